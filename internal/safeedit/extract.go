package safeedit

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/confusedbuffalo/phone-report/internal/model"
)

// ReadRecords loads the persisted records of one subdivision's validation
// pass. The safe-edit pass is per-subdivision and bounded, so a full decode
// is fine here; only the validation pass streams.
func ReadRecords(path string) ([]model.FeatureRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "safeedit: read report")
	}
	var records []model.FeatureRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrap(err, "safeedit: decode report")
	}
	return records, nil
}

// ExtractBundle filters one subdivision's records down to the edits that are
// safe for unattended application, trimming each to identity plus the
// original values and fixes.
func (c *Classifier) ExtractBundle(records []model.FeatureRecord, countryName, subdivisionName, country string) *model.SafeEditBundle {
	bundle := &model.SafeEditBundle{
		CountryName:        countryName,
		SubdivisionName:    subdivisionName,
		TotalOriginalItems: len(records),
	}

	for i := range records {
		rec := &records[i]
		bundle.TotalSuggestedEdits += len(rec.SuggestedFixes)
		if !c.IsSafeItemEdit(rec, country) {
			continue
		}
		bundle.Edits = append(bundle.Edits, model.SafeEdit{
			Type:           rec.Type,
			ID:             rec.ID,
			InvalidNumbers: rec.InvalidNumbers,
			SuggestedFixes: rec.SuggestedFixes,
		})
	}
	bundle.TotalSafeEdits = len(bundle.Edits)
	return bundle
}
