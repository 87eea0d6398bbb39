package notify

import (
	"context"

	"golang.org/x/time/rate"

	"internwatch/internal/listing"
	"internwatch/internal/logger"
)

// DispatchStats is the outcome of one dispatch pass.
type DispatchStats struct {
	SummerPosted    int
	OffseasonPosted int
	Errors          int
}

// Posted returns the delivered count for cat.
func (s DispatchStats) Posted(cat listing.Category) int {
	if cat == listing.CategorySummer {
		return s.SummerPosted
	}
	return s.OffseasonPosted
}

// Dispatcher fans new listings out to every destination bound to their
// category. Each (destination, listing) delivery is independent: a failure
// is counted and logged, never aborting the rest of the pass.
type Dispatcher struct {
	sink    Sink
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewDispatcher builds a Dispatcher pacing deliveries at sendsPerSec to
// respect downstream rate limits.
func NewDispatcher(sink Sink, sendsPerSec float64, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		sink:    sink,
		limiter: rate.NewLimiter(rate.Limit(sendsPerSec), 1),
		log:     log.With("component", "dispatch"),
	}
}

// Dispatch delivers every listing in fresh to every destination bound to
// its category. onDelivered, when non-nil, fires once per listing on its
// first successful delivery. A canceled context aborts the pass and is
// returned as an error alongside the stats accumulated so far, so callers
// can tell an interrupted pass from a completed one.
func (d *Dispatcher) Dispatch(ctx context.Context, fresh listing.ScrapedData, bindings map[listing.Category][]string, onDelivered func(listing.Category, listing.Listing)) (DispatchStats, error) {
	var stats DispatchStats

	for _, cat := range listing.Categories {
		items := fresh.Category(cat)
		if len(items) == 0 {
			continue
		}
		delivered := make(map[string]bool, len(items))

		for _, dest := range bindings[cat] {
			for _, l := range items {
				if err := d.limiter.Wait(ctx); err != nil {
					d.log.Warn("dispatch interrupted", "err", err)
					return stats, err
				}
				if err := d.sink.Send(ctx, dest, RenderMessage(l)); err != nil {
					stats.Errors++
					d.log.Error("delivery failed",
						"category", string(cat),
						"destination", dest,
						"listing_id", l.ID,
						"err", err)
					continue
				}
				if cat == listing.CategorySummer {
					stats.SummerPosted++
				} else {
					stats.OffseasonPosted++
				}
				if onDelivered != nil && !delivered[l.ID] {
					delivered[l.ID] = true
					onDelivered(cat, l)
				}
			}
		}
	}

	return stats, nil
}
