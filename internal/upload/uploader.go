// Package upload applies safe-edit bundles against the live dataset, one
// changeset per subdivision, each edit guarded against concurrent
// modification since validation time.
package upload

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/confusedbuffalo/phone-report/internal/model"
	"github.com/confusedbuffalo/phone-report/pkg/osm"
)

// Result is the outcome for one subdivision's bundle. Err is set when the
// fetch, re-application or upload failed; siblings are unaffected.
type Result struct {
	Subdivision string
	ChangesetID int64
	Uploaded    int
	Skipped     int
	Err         error
}

// Uploader submits safe-edit bundles.
type Uploader struct {
	client      osm.Client
	reportURL   string
	concurrency int
	dryRun      bool
}

// New builds an uploader. reportURL is linked from every changeset so
// reviewers can find the full report.
func New(client osm.Client, reportURL string, concurrency int, dryRun bool) *Uploader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Uploader{
		client:      client,
		reportURL:   reportURL,
		concurrency: concurrency,
		dryRun:      dryRun,
	}
}

// UploadAll processes every bundle concurrently and independently, joining
// via wait-for-all: one subdivision's failure never cancels the others.
// Results come back in bundle order.
func (u *Uploader) UploadAll(ctx context.Context, bundles []model.SafeEditBundle) []Result {
	results := make([]Result, len(bundles))

	g := &errgroup.Group{}
	g.SetLimit(u.concurrency)
	for i := range bundles {
		i := i
		g.Go(func() error {
			results[i] = u.uploadOne(ctx, &bundles[i])
			if results[i].Err != nil {
				zap.L().Error("upload: subdivision failed",
					zap.String("subdivision", bundles[i].SubdivisionName),
					zap.Error(results[i].Err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (u *Uploader) uploadOne(ctx context.Context, bundle *model.SafeEditBundle) Result {
	res := Result{Subdivision: bundle.SubdivisionName}

	if len(bundle.Edits) == 0 {
		return res
	}

	live, err := u.fetchLive(ctx, bundle)
	if err != nil {
		res.Err = err
		return res
	}

	var modify []osm.Element
	for _, edit := range bundle.Edits {
		el, ok := live[elementKey{string(edit.Type), edit.ID}]
		if !ok {
			// Deleted since validation.
			res.Skipped++
			continue
		}
		changed, ok := applyEdit(el, edit)
		if !ok {
			res.Skipped++
			continue
		}
		if changed {
			modify = append(modify, *el)
		}
	}
	if len(modify) == 0 {
		return res
	}

	res.Uploaded = len(modify)
	if u.dryRun {
		zap.L().Info("upload: dry run",
			zap.String("subdivision", bundle.SubdivisionName),
			zap.Int("features", len(modify)),
		)
		return res
	}

	tags := map[string]string{
		"created_by": "phone-report",
		"comment":    fmt.Sprintf("Normalize phone number formats in %s", bundle.SubdivisionName),
		"website":    u.reportURL,
	}
	id, err := u.client.UploadChangeset(ctx, tags, osm.Changes{Modify: modify})
	if err != nil {
		res.Err = eris.Wrap(err, "upload changeset")
		return res
	}
	res.ChangesetID = id
	return res
}

type elementKey struct {
	typ string
	id  int64
}

// fetchLive retrieves the current state of every edited feature, grouped by
// element type so each fetch stays within the batch cap.
func (u *Uploader) fetchLive(ctx context.Context, bundle *model.SafeEditBundle) (map[elementKey]*osm.Element, error) {
	byType := make(map[string][]int64)
	for _, edit := range bundle.Edits {
		byType[string(edit.Type)] = append(byType[string(edit.Type)], edit.ID)
	}

	live := make(map[elementKey]*osm.Element)
	for elemType, ids := range byType {
		elements, err := u.client.FetchByIDs(ctx, elemType, ids)
		if err != nil {
			return nil, eris.Wrap(err, "fetch live state")
		}
		for i := range elements {
			el := &elements[i]
			live[elementKey{el.Type, el.ID}] = el
		}
	}
	return live, nil
}

// applyEdit re-applies one edit to the live element. Every target key must
// still hold the value recorded at validation time, otherwise the edit is
// stale and skipped (ok=false). A nil fix deletes the key.
func applyEdit(el *osm.Element, edit model.SafeEdit) (changed, ok bool) {
	for key := range edit.SuggestedFixes {
		if el.Tags[key] != edit.InvalidNumbers[key] {
			return false, false
		}
	}

	for key, fix := range edit.SuggestedFixes {
		if fix == nil {
			if _, present := el.Tags[key]; present {
				delete(el.Tags, key)
				changed = true
			}
			continue
		}
		if el.Tags[key] != *fix {
			if el.Tags == nil {
				el.Tags = make(map[string]string)
			}
			el.Tags[key] = *fix
			changed = true
		}
	}
	return changed, true
}
