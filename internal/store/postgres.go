// Package store persists jobs and crawl run summaries in PostgreSQL.
//
// Jobs are soft-deleted: a job that disappears from a fetch pass has its
// status flipped to removed and its row kept, so history survives and a
// re-posted job re-activates the same row instead of creating a duplicate.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/NaqibL/mcf/internal/model"
	"github.com/NaqibL/mcf/internal/reconcile"
)

var (
	// ErrNotFound is returned when a job uuid has never been stored.
	ErrNotFound = errors.New("job not found")

	// ErrRunInProgress is returned when another crawler holds the run lock.
	ErrRunInProgress = errors.New("another crawl run is in progress")
)

// runLockKey is the advisory lock key guarding crawl runs. Two schedulers
// reconciling against the same store at once would each snapshot a stale
// active set; the session lock serialises them.
const runLockKey = 724631002

const schema = `
CREATE TABLE IF NOT EXISTS crawl_runs (
  run_id      UUID PRIMARY KEY,
  started_at  TIMESTAMPTZ NOT NULL,
  finished_at TIMESTAMPTZ,
  kind        TEXT NOT NULL,
  categories  JSONB NOT NULL DEFAULT '[]',
  total_seen  INTEGER NOT NULL DEFAULT 0,
  added       INTEGER NOT NULL DEFAULT 0,
  maintained  INTEGER NOT NULL DEFAULT 0,
  removed     INTEGER NOT NULL DEFAULT 0,
  skipped     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS jobs (
  job_uuid          TEXT PRIMARY KEY,
  title             TEXT NOT NULL,
  company_name      TEXT,
  location          TEXT,
  description       TEXT,
  category          TEXT,
  status            TEXT NOT NULL CHECK (status IN ('active', 'removed')),
  first_seen_run_id UUID,
  last_seen_run_id  UUID,
  first_seen_at     TIMESTAMPTZ NOT NULL,
  last_seen_at      TIMESTAMPTZ NOT NULL,
  raw_data          JSONB
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs (status);
CREATE INDEX IF NOT EXISTS idx_jobs_last_seen ON jobs (last_seen_at DESC);

CREATE TABLE IF NOT EXISTS job_run_status (
  run_id   UUID NOT NULL,
  job_uuid TEXT NOT NULL,
  status   TEXT NOT NULL,
  PRIMARY KEY (run_id, job_uuid)
);
`

// Postgres is the persistence layer shared by the crawler and the read API.
type Postgres struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// New returns a Postgres store backed by the given pool.
func New(pool *pgxpool.Pool, log zerolog.Logger) *Postgres {
	return &Postgres{pool: pool, log: log}
}

// EnsureSchema creates the tables and indexes if they do not exist yet.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// AcquireRunLock takes the crawl-run advisory lock on a dedicated
// connection and returns a release func. ErrRunInProgress is returned when
// the lock is already held elsewhere.
func (s *Postgres) AcquireRunLock(ctx context.Context) (func(context.Context), error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, runLockKey).Scan(&locked); err != nil {
		conn.Release()
		return nil, fmt.Errorf("advisory lock: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, ErrRunInProgress
	}

	release := func(ctx context.Context) {
		if _, err := conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, runLockKey); err != nil {
			s.log.Warn().Err(err).Msg("advisory unlock failed")
		}
		conn.Release()
	}
	return release, nil
}

// BeginRun inserts the crawl_runs row with finished_at NULL and commits it
// immediately. A row that never gets its finished_at set marks a crashed or
// aborted run for manual inspection.
func (s *Postgres) BeginRun(ctx context.Context, kind string, categories []string) (model.CrawlRun, error) {
	if categories == nil {
		categories = []string{}
	}
	run := model.CrawlRun{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now().UTC(),
		Kind:       kind,
		Categories: categories,
	}

	cats, err := json.Marshal(categories)
	if err != nil {
		return model.CrawlRun{}, fmt.Errorf("marshal categories: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO crawl_runs (run_id, started_at, kind, categories)
		 VALUES ($1, $2, $3, $4::jsonb)`,
		run.RunID, run.StartedAt, run.Kind, string(cats),
	)
	if err != nil {
		return model.CrawlRun{}, fmt.Errorf("insert crawl run: %w", err)
	}
	return run, nil
}

// ApplyRun applies one reconciled partition in a single transaction:
// added jobs are upserted as active, maintained jobs get their last-seen
// and mutable fields refreshed, removed jobs are soft-deleted, per-job
// audit rows are appended, and the run row is finalised with its counters
// and finished_at. On any error the transaction rolls back and the store
// keeps its pre-run state, leaving the run row unfinished.
func (s *Postgres) ApplyRun(
	ctx context.Context,
	runID string,
	p reconcile.Partition,
	details map[string]model.Listing,
	skipped int,
) (model.CrawlRun, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.CrawlRun{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	// Upsert covers both brand-new jobs and re-posted jobs whose
	// soft-deleted row still exists: same row, status back to active,
	// first_seen preserved.
	const upsertJob = `
		INSERT INTO jobs (job_uuid, title, company_name, location, description, category,
		                  status, first_seen_run_id, last_seen_run_id, first_seen_at, last_seen_at, raw_data)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''),
		        'active', $7, $7, $8, $8, $9::jsonb)
		ON CONFLICT (job_uuid) DO UPDATE SET
		  status           = 'active',
		  last_seen_run_id = EXCLUDED.last_seen_run_id,
		  last_seen_at     = EXCLUDED.last_seen_at,
		  title            = EXCLUDED.title,
		  company_name     = COALESCE(EXCLUDED.company_name, jobs.company_name),
		  location         = COALESCE(EXCLUDED.location, jobs.location),
		  description      = COALESCE(EXCLUDED.description, jobs.description),
		  category         = COALESCE(EXCLUDED.category, jobs.category),
		  raw_data         = COALESCE(EXCLUDED.raw_data, jobs.raw_data)`

	for _, id := range p.Added {
		l := details[id]
		if _, err := tx.Exec(ctx, upsertJob,
			id, l.Title, l.CompanyName, l.Location, l.Description, l.Category,
			runID, now, jsonbOrNil(l.Raw),
		); err != nil {
			return model.CrawlRun{}, fmt.Errorf("insert job %s: %w", id, err)
		}
	}

	const refreshJob = `
		UPDATE jobs SET
		  status           = 'active',
		  last_seen_run_id = $2,
		  last_seen_at     = $3,
		  title            = COALESCE(NULLIF($4, ''), title),
		  company_name     = COALESCE(NULLIF($5, ''), company_name),
		  location         = COALESCE(NULLIF($6, ''), location),
		  description      = COALESCE(NULLIF($7, ''), description),
		  category         = COALESCE(NULLIF($8, ''), category),
		  raw_data         = COALESCE($9::jsonb, raw_data)
		WHERE job_uuid = $1`

	for _, id := range p.Maintained {
		l := details[id]
		if _, err := tx.Exec(ctx, refreshJob,
			id, runID, now,
			l.Title, l.CompanyName, l.Location, l.Description, l.Category,
			jsonbOrNil(l.Raw),
		); err != nil {
			return model.CrawlRun{}, fmt.Errorf("refresh job %s: %w", id, err)
		}
	}

	if len(p.Removed) > 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE jobs SET status = 'removed', last_seen_run_id = $2, last_seen_at = $3
			 WHERE job_uuid = ANY($1)`,
			p.Removed, runID, now,
		); err != nil {
			return model.CrawlRun{}, fmt.Errorf("soft-delete jobs: %w", err)
		}
	}

	for status, ids := range map[string][]string{
		"added":      p.Added,
		"maintained": p.Maintained,
		"removed":    p.Removed,
	} {
		if len(ids) == 0 {
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO job_run_status (run_id, job_uuid, status)
			 SELECT $1::uuid, unnest($2::text[]), $3::text
			 ON CONFLICT DO NOTHING`,
			runID, ids, status,
		); err != nil {
			return model.CrawlRun{}, fmt.Errorf("record %s statuses: %w", status, err)
		}
	}

	row := tx.QueryRow(ctx,
		`UPDATE crawl_runs SET
		   finished_at = $2,
		   total_seen  = $3,
		   added       = $4,
		   maintained  = $5,
		   removed     = $6,
		   skipped     = $7
		 WHERE run_id = $1
		 RETURNING run_id, started_at, finished_at, kind, categories,
		           total_seen, added, maintained, removed, skipped`,
		runID, time.Now().UTC(), p.TotalSeen(),
		len(p.Added), len(p.Maintained), len(p.Removed), skipped,
	)
	run, err := scanRun(row)
	if err != nil {
		return model.CrawlRun{}, fmt.Errorf("finalise crawl run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.CrawlRun{}, fmt.Errorf("commit tx: %w", err)
	}
	return run, nil
}

func jsonbOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
