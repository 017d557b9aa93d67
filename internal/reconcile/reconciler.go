// Package reconcile examines all phone-like fields of one feature, resolves
// duplicates and type mismatches across fields, and produces the
// feature-level verdict persisted by the stream processor.
package reconcile

import (
	"github.com/confusedbuffalo/phone-report/internal/model"
	"github.com/confusedbuffalo/phone-report/internal/phone"
)

// Reconciler drives the tag validator over every recognized field of a
// feature and merges the per-field verdicts into one FeatureRecord.
type Reconciler struct {
	validator *phone.Validator
}

// New builds a reconciler on top of a configured validator.
func New(v *phone.Validator) *Reconciler {
	return &Reconciler{validator: v}
}

// Check validates one feature. It returns the FeatureRecord when at least
// one field needs editing (nil otherwise) and the number of candidate values
// examined, for run statistics.
func (r *Reconciler) Check(f model.Feature, country string) (*model.FeatureRecord, int) {
	rules := r.validator.Rules()

	verdicts := make(map[string]phone.TagVerdict)
	var visited []string
	numbers := 0
	for _, fam := range rules.Families() {
		for _, field := range fam {
			val, ok := f.Tags[field]
			if !ok {
				continue
			}
			if field == "mobile" && val == "yes" {
				// Boolean "has mobile coverage" flag, not a number.
				continue
			}
			tv := r.validator.CheckTag(val, country, field, f.Tags)
			verdicts[field] = tv
			visited = append(visited, field)
			numbers += tv.NumberOfValues
		}
	}
	if len(visited) == 0 {
		return nil, 0
	}

	// Working suggestion lists, mutated by duplicate and mismatch resolution.
	sugg := make(map[string][]string, len(visited))
	needsEdit := make(map[string]bool, len(visited))
	for field, tv := range verdicts {
		sugg[field] = append([]string(nil), tv.SuggestedNumbers...)
		if tv.IsInvalid {
			needsEdit[field] = true
		}
	}

	dupOf := r.resolveDuplicates(verdicts, sugg, needsEdit)
	mismatch, hasMismatch := r.relocateMismatches(verdicts, visited, sugg, needsEdit)
	companions := r.phonewordCompanions(f, verdicts, visited)

	autoFixable := true
	for _, field := range visited {
		autoFixable = autoFixable && verdicts[field].IsAutoFixable
	}

	if len(needsEdit) == 0 && len(companions) == 0 {
		return nil, numbers
	}

	rec := &model.FeatureRecord{
		Type:                f.Type,
		ID:                  f.ID,
		Lat:                 f.Lat,
		Lon:                 f.Lon,
		Area:                f.Area,
		Website:             f.Tags["website"],
		InvalidNumbers:      make(map[string]string),
		SuggestedFixes:      make(map[string]*string),
		DuplicateNumbers:    dupOf,
		MismatchTypeNumbers: mismatch,
		HasTypeMismatch:     hasMismatch,
		AutoFixable:         autoFixable,
	}

	for field := range needsEdit {
		tv, ok := verdicts[field]
		if !ok {
			// Field synthesized by mismatch relocation; nothing of its own
			// to be unfixable about.
			tv = phone.TagVerdict{IsAutoFixable: true}
		}
		rec.InvalidNumbers[field] = f.Tags[field]
		rec.SuggestedFixes[field] = fieldFix(tv, sugg[field])
	}
	for field, original := range companions {
		rec.InvalidNumbers[field] = f.Tags[field]
		fix := original
		rec.SuggestedFixes[field] = &fix
	}

	return rec, numbers
}

// resolveDuplicates collapses numbers repeated across fields of the same
// family: the highest-precedence field keeps the number, every other field
// loses it and is recorded against the winner.
func (r *Reconciler) resolveDuplicates(verdicts map[string]phone.TagVerdict, sugg map[string][]string, needsEdit map[string]bool) map[string]string {
	dupOf := make(map[string]string)
	for _, fam := range r.validator.Rules().Families() {
		winners := make(map[string]string)
		for _, field := range fam {
			if _, ok := verdicts[field]; !ok {
				continue
			}
			for _, canonical := range sugg[field] {
				if _, claimed := winners[canonical]; !claimed {
					winners[canonical] = field
				}
			}
		}
		for _, field := range fam {
			if _, ok := verdicts[field]; !ok {
				continue
			}
			kept := sugg[field][:0]
			for _, canonical := range sugg[field] {
				if w := winners[canonical]; w != field {
					dupOf[field] = w
					needsEdit[field] = true
					continue
				}
				kept = append(kept, canonical)
			}
			sugg[field] = kept
		}
	}
	if len(dupOf) == 0 {
		return nil
	}
	return dupOf
}

// relocateMismatches moves non-mobile numbers out of mobile-only fields into
// the phone field, creating it when absent.
func (r *Reconciler) relocateMismatches(verdicts map[string]phone.TagVerdict, visited []string, sugg map[string][]string, needsEdit map[string]bool) (map[string][]string, bool) {
	mismatch := make(map[string][]string)
	for _, field := range visited {
		tv := verdicts[field]
		if len(tv.MismatchTypeNumbers) == 0 {
			continue
		}
		mismatch[field] = tv.MismatchTypeNumbers
		needsEdit[field] = true

		moved := false
		for _, canonical := range tv.MismatchTypeNumbers {
			if !containsString(sugg["phone"], canonical) {
				sugg["phone"] = append(sugg["phone"], canonical)
				moved = true
			}
		}
		if moved {
			needsEdit["phone"] = true
		}
	}
	if len(mismatch) == 0 {
		return nil, false
	}
	return mismatch, true
}

// phonewordCompanions synthesizes the mnemonic companion field for every
// field whose value decoded as a phoneword: the companion keeps the original
// vanity text while the field itself gets the decoded digits.
func (r *Reconciler) phonewordCompanions(f model.Feature, verdicts map[string]phone.TagVerdict, visited []string) map[string]string {
	companions := make(map[string]string)
	for _, field := range visited {
		if verdicts[field].ValidPhonewords {
			companions[field+":mnemonic"] = f.Tags[field]
		}
	}
	return companions
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// fieldFix renders a field's final suggestion: nil for unfixable fields and
// for fields left with nothing (delete), the canonical join otherwise.
func fieldFix(tv phone.TagVerdict, numbers []string) *string {
	if !tv.IsAutoFixable || len(numbers) == 0 {
		return nil
	}
	fix := phone.JoinNumbers(numbers)
	return &fix
}
