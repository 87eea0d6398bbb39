// Package pipeline runs the fetch, normalize, diff, dispatch, persist cycle.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"internwatch/internal/delta"
	"internwatch/internal/feed"
	"internwatch/internal/listing"
	"internwatch/internal/logger"
	"internwatch/internal/notify"
	"internwatch/internal/snapshot"
	"internwatch/internal/store"
	"internwatch/internal/tenant"
)

// Stats is the outcome of one pipeline run. Ephemeral; never persisted.
type Stats struct {
	Fetched         int `json:"fetched"`
	Invalid         int `json:"invalid"`
	FilteredByDate  int `json:"filtered_by_date"`
	Summer          int `json:"summer"`
	Offseason       int `json:"offseason"`
	NewSummer       int `json:"new_summer"`
	NewOffseason    int `json:"new_offseason"`
	SummerPosted    int `json:"summer_posted"`
	OffseasonPosted int `json:"offseason_posted"`
	TotalNew        int `json:"total_new"`
	Errors          int `json:"errors"`
}

// Status reflects the most recent run, shared by the timer and the manual
// trigger.
type Status struct {
	Running   bool   `json:"running"`
	LastRunAt string `json:"last_run_at,omitempty"`
	LastOkAt  string `json:"last_ok_at,omitempty"`
	LastError string `json:"last_error,omitempty"`
	LastStats Stats  `json:"last_stats"`
}

// Runner ties the pipeline stages together and serializes runs: the timer
// and the manual trigger share one mutex, so a second trigger waits for the
// active run instead of interleaving snapshot reads and writes.
type Runner struct {
	mu sync.Mutex

	statusMu sync.Mutex
	status   Status

	feed       *feed.Client
	tenants    *tenant.Store
	snapshots  *snapshot.Store
	dispatcher *notify.Dispatcher
	archive    *store.DB // optional
	log        *logger.Logger

	// onPosted fires after a run that delivered at least one listing.
	onPosted func(stats Stats)
}

func NewRunner(fc *feed.Client, tenants *tenant.Store, snapshots *snapshot.Store, dispatcher *notify.Dispatcher, archive *store.DB, log *logger.Logger) *Runner {
	return &Runner{
		feed:       fc,
		tenants:    tenants,
		snapshots:  snapshots,
		dispatcher: dispatcher,
		archive:    archive,
		log:        log.With("component", "pipeline"),
	}
}

// OnPosted registers a hook fired after any run that delivered listings.
func (r *Runner) OnPosted(fn func(stats Stats)) { r.onPosted = fn }

// Status returns a copy of the latest run status.
func (r *Runner) Status() Status {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	return r.status
}

func (r *Runner) setRunning() {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	r.status.Running = true
	r.status.LastRunAt = time.Now().UTC().Format(time.RFC3339)
}

func (r *Runner) setDone(stats Stats, err error) {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	r.status.Running = false
	r.status.LastStats = stats
	if err != nil {
		r.status.LastError = err.Error()
	} else {
		r.status.LastError = ""
		r.status.LastOkAt = time.Now().UTC().Format(time.RFC3339)
	}
}

// Run executes one full cycle. Fetch-stage failures and a canceled dispatch
// propagate and leave the snapshot untouched; per-record and per-delivery
// failures only increment counters. After a completed dispatch the snapshot
// is replaced wholesale with the full current id sets (not the delta) so
// state converges even after partial delivery failures.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.setRunning()
	stats, err := r.run(ctx)
	r.setDone(stats, err)
	return stats, err
}

func (r *Runner) run(ctx context.Context) (Stats, error) {
	var stats Stats

	startTS, err := r.tenants.ScrapeStartTimestamp()
	if err != nil {
		return stats, err
	}
	prev, err := r.snapshots.Load()
	if err != nil {
		return stats, err
	}

	fresh, nstats, err := r.fetchAndNormalize(ctx, startTS)
	if err != nil {
		return stats, err
	}
	stats.Fetched = nstats.Processed
	stats.Invalid = nstats.Invalid
	stats.FilteredByDate = nstats.FilteredByDate
	stats.Summer = nstats.Summer
	stats.Offseason = nstats.Offseason

	newListings := delta.New(fresh, prev)
	stats.NewSummer = len(newListings.Summer)
	stats.NewOffseason = len(newListings.Offseason)
	stats.TotalNew = stats.NewSummer + stats.NewOffseason

	bindings := make(map[listing.Category][]string, len(listing.Categories))
	for _, cat := range listing.Categories {
		b, err := r.tenants.ChannelBindings(cat)
		if err != nil {
			return stats, err
		}
		bindings[cat] = b
	}

	dstats, derr := r.dispatcher.Dispatch(ctx, newListings, bindings, r.recordDelivered(ctx))
	stats.SummerPosted = dstats.SummerPosted
	stats.OffseasonPosted = dstats.OffseasonPosted
	stats.Errors += dstats.Errors
	if derr != nil {
		// An interrupted pass must not mark the undelivered listings as
		// seen; leaving the snapshot alone re-announces them next run.
		return stats, fmt.Errorf("dispatch interrupted: %w", derr)
	}

	// Persist the full current id sets after dispatch. Delivery errors do
	// not block this: a listing that failed every destination stays out of
	// the feed's view only until it vanishes upstream.
	if err := r.snapshots.Replace(fresh.IDs(listing.CategorySummer), fresh.IDs(listing.CategoryOffseason)); err != nil {
		return stats, fmt.Errorf("persist snapshot: %w", err)
	}

	r.log.Info("run complete",
		"fetched", stats.Fetched,
		"new", stats.TotalNew,
		"summer_posted", stats.SummerPosted,
		"offseason_posted", stats.OffseasonPosted,
		"errors", stats.Errors)

	if r.onPosted != nil && stats.SummerPosted+stats.OffseasonPosted > 0 {
		r.onPosted(stats)
	}
	return stats, nil
}

// Preview fetches and normalizes without diffing, dispatching, or touching
// the snapshot, returning the n most recent listings per category.
func (r *Runner) Preview(ctx context.Context, n int) (listing.ScrapedData, error) {
	startTS, err := r.tenants.ScrapeStartTimestamp()
	if err != nil {
		return listing.ScrapedData{}, err
	}
	fresh, _, err := r.fetchAndNormalize(ctx, startTS)
	if err != nil {
		return listing.ScrapedData{}, err
	}
	if n > 0 {
		if len(fresh.Summer) > n {
			fresh.Summer = fresh.Summer[:n]
		}
		if len(fresh.Offseason) > n {
			fresh.Offseason = fresh.Offseason[:n]
		}
	}
	return fresh, nil
}

func (r *Runner) fetchAndNormalize(ctx context.Context, startTS int64) (listing.ScrapedData, feed.NormalizeStats, error) {
	raw, err := r.feed.Fetch(ctx)
	if err != nil {
		return listing.ScrapedData{}, feed.NormalizeStats{}, fmt.Errorf("fetch feed: %w", err)
	}
	fresh, nstats := feed.Normalize(raw, startTS, r.log)
	return fresh, nstats, nil
}

func (r *Runner) recordDelivered(ctx context.Context) func(listing.Category, listing.Listing) {
	if r.archive == nil {
		return nil
	}
	return func(cat listing.Category, l listing.Listing) {
		if _, err := r.archive.RecordDelivered(ctx, cat, l); err != nil {
			r.log.Warn("archive write failed", "listing_id", l.ID, "err", err)
		}
	}
}
