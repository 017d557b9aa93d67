package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	subdivision  TEXT NOT NULL,
	country      TEXT NOT NULL,
	started_at   DATETIME NOT NULL,
	finished_at  DATETIME NOT NULL,
	stats        TEXT NOT NULL,
	bbox         TEXT,
	changeset_id INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_subdivision ON runs(subdivision);
CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON runs(finished_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stats")
	}
	var bboxJSON []byte
	if run.BBox != nil {
		if bboxJSON, err = json.Marshal(run.BBox); err != nil {
			return eris.Wrap(err, "sqlite: marshal bbox")
		}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, subdivision, country, started_at, finished_at, stats, bbox, changeset_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Subdivision, run.Country,
		run.StartedAt.UTC(), run.FinishedAt.UTC(),
		string(statsJSON), nullableString(bboxJSON), run.ChangesetID,
	)
	return eris.Wrap(err, "sqlite: save run")
}

func (s *SQLiteStore) SetChangeset(ctx context.Context, subdivision string, changesetID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET changeset_id = ?
		 WHERE id = (SELECT id FROM runs WHERE subdivision = ? ORDER BY finished_at DESC LIMIT 1)`,
		changesetID, subdivision,
	)
	return eris.Wrap(err, "sqlite: set changeset")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, subdivision, country, started_at, finished_at, stats, bbox, changeset_id FROM runs`
	var args []any
	if filter.Subdivision != "" {
		query += ` WHERE subdivision = ?`
		args = append(args, filter.Subdivision)
	}
	query += ` ORDER BY finished_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			stats     string
			bbox      sql.NullString
			started   time.Time
			finished  time.Time
			changeset int64
		)
		if err := rows.Scan(&run.ID, &run.Subdivision, &run.Country, &started, &finished, &stats, &bbox, &changeset); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		run.StartedAt, run.FinishedAt, run.ChangesetID = started, finished, changeset
		if err := json.Unmarshal([]byte(stats), &run.Stats); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode stats")
		}
		if bbox.Valid && bbox.String != "" {
			if err := json.Unmarshal([]byte(bbox.String), &run.BBox); err != nil {
				return nil, eris.Wrap(err, "sqlite: decode bbox")
			}
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
