package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/NaqibL/mcf/internal/model"
)

const jobColumns = `job_uuid, title, COALESCE(company_name, ''), COALESCE(location, ''),
	COALESCE(description, ''), COALESCE(category, ''), status, first_seen_at, last_seen_at`

// SearchOptions filters the job listing query. Zero values mean "no filter";
// Limit is clamped to 1..500 with a default of 100.
type SearchOptions struct {
	Limit    int
	Offset   int
	Keywords string
	Category string
}

func (o *SearchOptions) normalise() {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 500 {
		o.Limit = 500
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}

// SearchJobs returns active jobs, newest-seen first, optionally filtered by
// category and by a keyword match on title or description.
func (s *Postgres) SearchJobs(ctx context.Context, opts SearchOptions) ([]model.Job, error) {
	opts.normalise()

	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+`
		 FROM jobs
		 WHERE status = 'active'
		   AND ($3 = '' OR category = $3)
		   AND ($4 = '' OR title ILIKE '%' || $4 || '%' OR description ILIKE '%' || $4 || '%')
		 ORDER BY last_seen_at DESC, job_uuid
		 LIMIT $1 OFFSET $2`,
		opts.Limit, opts.Offset, opts.Category, opts.Keywords,
	)
	if err != nil {
		return nil, fmt.Errorf("search jobs query: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// GetJob returns a single job (active or removed) by uuid.
func (s *Postgres) GetJob(ctx context.Context, jobUUID string) (model.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE job_uuid = $1`, jobUUID)

	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Job{}, ErrNotFound
	}
	if err != nil {
		return model.Job{}, fmt.Errorf("get job %s: %w", jobUUID, err)
	}
	return j, nil
}

// ActiveJobUUIDs returns the snapshot of identifiers currently marked
// active. The crawler takes this once at run start and reconciles against
// it, never re-reading mid-run.
func (s *Postgres) ActiveJobUUIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT job_uuid FROM jobs WHERE status = 'active'`)
	if err != nil {
		return nil, fmt.Errorf("active job uuids query: %w", err)
	}
	defer rows.Close()

	active := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("active job uuids scan: %w", err)
		}
		active[id] = struct{}{}
	}
	return active, rows.Err()
}

// ActiveJobCount returns how many jobs are currently active.
func (s *Postgres) ActiveJobCount(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs WHERE status = 'active'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("active job count: %w", err)
	}
	return n, nil
}

// RecentRuns returns the latest crawl runs, newest first.
func (s *Postgres) RecentRuns(ctx context.Context, limit int) ([]model.CrawlRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx,
		`SELECT run_id, started_at, finished_at, kind, categories,
		        total_seen, added, maintained, removed, skipped
		 FROM crawl_runs
		 ORDER BY started_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent runs query: %w", err)
	}
	defer rows.Close()

	runs := make([]model.CrawlRun, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("recent runs scan: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// AllJobs returns every stored job for the full export, oldest first.
func (s *Postgres) AllJobs(ctx context.Context, activeOnly bool) ([]model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY first_seen_at, job_uuid`
	if activeOnly {
		query = `SELECT ` + jobColumns + ` FROM jobs WHERE status = 'active' ORDER BY first_seen_at, job_uuid`
	}

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("all jobs query: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// ─── Row scanning ────────────────────────────────────────────────────────────

func scanJob(row pgx.Row) (model.Job, error) {
	var j model.Job
	err := row.Scan(
		&j.JobUUID, &j.Title, &j.CompanyName, &j.Location,
		&j.Description, &j.Category, &j.Status, &j.FirstSeenAt, &j.LastSeenAt,
	)
	return j, err
}

func scanJobs(rows pgx.Rows) ([]model.Job, error) {
	jobs := make([]model.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("job scan: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func scanRun(row pgx.Row) (model.CrawlRun, error) {
	var (
		run  model.CrawlRun
		cats []byte
	)
	err := row.Scan(
		&run.RunID, &run.StartedAt, &run.FinishedAt, &run.Kind, &cats,
		&run.TotalSeen, &run.Added, &run.Maintained, &run.Removed, &run.Skipped,
	)
	if err != nil {
		return model.CrawlRun{}, err
	}
	if err := json.Unmarshal(cats, &run.Categories); err != nil {
		return model.CrawlRun{}, fmt.Errorf("decode categories: %w", err)
	}
	return run, nil
}
