// Package store keeps the run history: one row per validation or upload
// pass, queried by the runs command. The JSON reports stay the source of
// truth; losing this database loses nothing but bookkeeping.
package store

import (
	"context"
	"time"

	"github.com/confusedbuffalo/phone-report/internal/model"
)

// Run is one recorded validation pass over a subdivision.
type Run struct {
	ID          string         `json:"id"`
	Subdivision string         `json:"subdivision"`
	Country     string         `json:"country"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
	Stats       model.RunStats `json:"stats"`
	BBox        *model.BBox    `json:"bbox,omitempty"`
	ChangesetID int64          `json:"changeset_id,omitempty"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Subdivision string
	Limit       int
}

// Store is the run-history persistence interface.
type Store interface {
	SaveRun(ctx context.Context, run Run) error
	SetChangeset(ctx context.Context, subdivision string, changesetID int64) error
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
