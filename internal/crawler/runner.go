// Package crawler orchestrates one incremental crawl run: snapshot the
// active set, fetch the board to completion, reconcile, persist, publish.
// Each stage finishes before the next begins; a failed fetch aborts the run
// before reconciliation so a partial pass can never soft-delete live jobs.
package crawler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/NaqibL/mcf/internal/model"
	"github.com/NaqibL/mcf/internal/reconcile"
)

// EventChannel is the Redis pub/sub channel carrying run-finished events
// for the dashboard.
const EventChannel = "EVENT_CRAWL_RUN_FINISHED"

// Store is the slice of the persistence layer the runner needs.
type Store interface {
	AcquireRunLock(ctx context.Context) (func(context.Context), error)
	ActiveJobUUIDs(ctx context.Context) (map[string]struct{}, error)
	BeginRun(ctx context.Context, kind string, categories []string) (model.CrawlRun, error)
	ApplyRun(ctx context.Context, runID string, p reconcile.Partition,
		details map[string]model.Listing, skipped int) (model.CrawlRun, error)
}

// Stream yields listings lazily. After Next returns false, Err distinguishes
// a complete pass (nil) from a terminal fetch failure.
type Stream interface {
	Next(ctx context.Context) bool
	Listing() model.Listing
	Err() error
}

// Source produces a fresh listing stream for each run.
type Source interface {
	Listings() Stream
}

// Runner executes incremental crawl runs.
type Runner struct {
	store      Store
	source     Source
	events     *redis.Client // nil disables run-finished publishing
	categories []string
	log        zerolog.Logger
}

// New constructs a Runner. categories is recorded on each run row and is
// informational here; the source decides what it actually fetches.
func New(store Store, source Source, events *redis.Client, categories []string, log zerolog.Logger) *Runner {
	return &Runner{
		store:      store,
		source:     source,
		events:     events,
		categories: categories,
		log:        log,
	}
}

// Run performs one full fetch-and-reconcile pass. On fetch failure the begun
// run row is left with a NULL finished_at and no job row is touched.
func (r *Runner) Run(ctx context.Context) (model.CrawlRun, error) {
	release, err := r.store.AcquireRunLock(ctx)
	if err != nil {
		return model.CrawlRun{}, err
	}
	defer release(ctx)

	active, err := r.store.ActiveJobUUIDs(ctx)
	if err != nil {
		return model.CrawlRun{}, fmt.Errorf("snapshot active set: %w", err)
	}

	run, err := r.store.BeginRun(ctx, "incremental", r.categories)
	if err != nil {
		return model.CrawlRun{}, fmt.Errorf("begin run: %w", err)
	}
	r.log.Info().Str("run_id", run.RunID).Int("previously_active", len(active)).Msg("crawl run started")

	// Fetch to completion before reconciling. Duplicate uuids within the
	// pass collapse silently, last record wins; records without an
	// identifier are skipped and counted.
	details := make(map[string]model.Listing)
	skipped := 0
	stream := r.source.Listings()
	for stream.Next(ctx) {
		l := stream.Listing()
		if l.JobUUID == "" {
			skipped++
			continue
		}
		details[l.JobUUID] = l
	}
	if err := stream.Err(); err != nil {
		return run, fmt.Errorf("fetch pass failed, run %s left unfinished: %w", run.RunID, err)
	}

	observed := make(map[string]struct{}, len(details))
	for id := range details {
		observed[id] = struct{}{}
	}

	part := reconcile.Reconcile(active, observed)

	finished, err := r.store.ApplyRun(ctx, run.RunID, part, details, skipped)
	if err != nil {
		return run, fmt.Errorf("apply run %s: %w", run.RunID, err)
	}

	r.log.Info().
		Str("run_id", finished.RunID).
		Int("total_seen", finished.TotalSeen).
		Int("added", finished.Added).
		Int("maintained", finished.Maintained).
		Int("removed", finished.Removed).
		Int("skipped", finished.Skipped).
		Msg("crawl run finished")

	r.publish(ctx, finished)
	return finished, nil
}

// publish pushes the run summary to Redis for dashboard refresh. Failures
// are logged and swallowed; the run already committed.
func (r *Runner) publish(ctx context.Context, run model.CrawlRun) {
	if r.events == nil {
		return
	}
	payload, err := json.Marshal(run)
	if err != nil {
		r.log.Warn().Err(err).Msg("marshal run event failed")
		return
	}
	if err := r.events.Publish(ctx, EventChannel, payload).Err(); err != nil {
		r.log.Warn().Err(err).Str("run_id", run.RunID).Msg("publish run event failed")
	}
}
