package pipeline

import (
	"context"
	"fmt"

	errs "igcollect/pkg/errors"
	"igcollect/pkg/logger"
	"igcollect/pkg/normalize"
	"igcollect/pkg/ratelimit"
)

// UnitSummary describes one per-unit enrichment pass
type UnitSummary struct {
	Units    int
	Skipped  int
	Done     int
	NotFound int
}

// UnitOptions configures a per-unit collector
type UnitOptions struct {
	// Pacer applies the proactive inter-request throttle; may be nil
	Pacer *ratelimit.Pacer
	// OnProgress is an optional hook for UIs; may be nil
	OnProgress func(Progress)
	// Logger; defaults to the global logger
	Logger logger.Logger
}

// UnitCollector drives the per-unit enrichment loop used by the direct
// web-API strategy: fetch one unit at a time, normalize, append a
// checkpointed row, pace, repeat. Not-found units are tallied and
// skipped; auth failures and retry exhaustion abort the pass with the
// progress already persisted.
type UnitCollector struct {
	fetch  UnitFetcher
	sink   ProfileSink
	opts   UnitOptions
	logger logger.Logger
}

// NewUnitCollector creates a per-unit collector
func NewUnitCollector(fetch UnitFetcher, sink ProfileSink, opts UnitOptions) *UnitCollector {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	return &UnitCollector{
		fetch:  fetch,
		sink:   sink,
		opts:   opts,
		logger: log,
	}
}

// Collect enriches every unit not already in the sink. Each collected
// unit is persisted before the next fetch, so an interrupt loses at most
// the in-flight unit.
func (c *UnitCollector) Collect(ctx context.Context, units []string) (*UnitSummary, error) {
	done := AlreadyDone(c.sink)
	remaining := Remaining(units, done)

	summary := &UnitSummary{
		Units:   len(units),
		Skipped: len(units) - len(remaining),
	}

	c.logger.InfoWithFields("enrichment pass starting", map[string]interface{}{
		"units":     len(units),
		"skipped":   summary.Skipped,
		"remaining": len(remaining),
	})

	for i, unit := range remaining {
		if err := ctx.Err(); err != nil {
			c.logger.InfoWithFields("enrichment interrupted; progress checkpointed", map[string]interface{}{
				"done": summary.Done,
			})
			return summary, fmt.Errorf("collection interrupted: %w", err)
		}

		// Pace every gap between fetches, whether or not the previous
		// unit resolved; a run of unresolvable units must not hammer
		// the endpoint.
		if i > 0 && c.opts.Pacer != nil {
			if err := c.opts.Pacer.Wait(ctx); err != nil {
				return summary, fmt.Errorf("collection interrupted: %w", err)
			}
		}

		raw, err := c.fetch(ctx, unit)
		if err != nil {
			if errs.TypeOf(err) == errs.ErrorTypeNotFound {
				// An unresolvable unit is an empty result, not an error
				summary.NotFound++
				c.logger.WarnWithFields("unit not found, skipping", map[string]interface{}{
					"unit": unit,
				})
				continue
			}
			// Auth failures and exhausted retries abort the pass; every
			// collected row is already on disk.
			return summary, err
		}

		rec := normalize.Normalize(raw)
		if rec.Handle == "" {
			rec.Handle = unit
		}
		if err := c.sink.Append(rec); err != nil {
			return summary, fmt.Errorf("failed to persist unit %s: %w", unit, err)
		}
		summary.Done++

		if (summary.Done)%25 == 0 || i == len(remaining)-1 {
			c.logger.InfoWithFields("enrichment progress", map[string]interface{}{
				"done":      summary.Done,
				"remaining": len(remaining) - i - 1,
				"not_found": summary.NotFound,
			})
		}
		if c.opts.OnProgress != nil {
			c.opts.OnProgress(Progress{
				UnitsDone: summary.Skipped + summary.Done,
				Units:     len(units),
				Records:   summary.Done,
			})
		}
	}

	return summary, nil
}
