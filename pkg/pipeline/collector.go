package pipeline

import (
	"context"
	"fmt"
	"time"

	errs "igcollect/pkg/errors"
	"igcollect/pkg/logger"
	"igcollect/pkg/models"
	"igcollect/pkg/retry"
)

// Progress is reported after every state change worth showing to the
// operator: batch checkpointed, run polled, backoff applied.
type Progress struct {
	Batch     int
	Batches   int
	UnitsDone int
	Units     int
	Records   int
	Status    models.RunStatus
}

// Options configures a batch collector
type Options struct {
	// BatchSize bounds each submitted batch
	BatchSize int
	// PollInterval is how often run status is polled until terminal
	PollInterval time.Duration
	// ContinueOnBatchFailure skips a failed batch instead of aborting the
	// whole run
	ContinueOnBatchFailure bool
	// OnProgress is an optional hook for UIs; may be nil
	OnProgress func(Progress)
	// Logger; defaults to the global logger
	Logger logger.Logger
}

// Summary describes one completed (or aborted) collection pass
type Summary struct {
	Units         int
	Skipped       int
	Batches       int
	BatchesDone   int
	FailedBatches []int
	Records       int
}

// BatchCollector drives the core state machine: partition remaining work
// into batches, submit each to the remote backend, poll to a terminal
// state, drain results, and checkpoint the store before advancing.
// Batches are strictly sequential; the remote service is the bottleneck.
type BatchCollector struct {
	backend BatchBackend
	store   ResultStore
	opts    Options
	logger  logger.Logger
}

// NewBatchCollector creates a collector over the given backend and store
func NewBatchCollector(backend BatchBackend, store ResultStore, opts Options) *BatchCollector {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 15 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	return &BatchCollector{
		backend: backend,
		store:   store,
		opts:    opts,
		logger:  log,
	}
}

// Collect runs the pipeline over the given work units. Units already in
// the store are skipped; each successful batch is checkpointed before the
// next is submitted, so an interrupt or crash loses at most the in-flight
// batch. Cancellation is cooperative: it takes effect at the next safe
// boundary and the store is checkpointed on the way out.
func (c *BatchCollector) Collect(ctx context.Context, units []string) (*Summary, error) {
	done := AlreadyDone(c.store)
	remaining := Remaining(units, done)
	batches := PartitionBatches(remaining, c.opts.BatchSize)

	summary := &Summary{
		Units:   len(units),
		Skipped: len(units) - len(remaining),
		Batches: len(batches),
	}

	c.logger.InfoWithFields("collection pass starting", map[string]interface{}{
		"units":     len(units),
		"skipped":   summary.Skipped,
		"remaining": len(remaining),
		"batches":   len(batches),
	})

	if len(remaining) == 0 {
		c.logger.Info("nothing to collect; all units already in the store")
		return summary, nil
	}

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return summary, c.checkpointOnCancel(summary, err)
		}

		records, err := c.collectBatch(ctx, i+1, len(batches), batch)
		if err != nil {
			if ctx.Err() != nil {
				return summary, c.checkpointOnCancel(summary, ctx.Err())
			}
			if c.opts.ContinueOnBatchFailure && errs.TypeOf(err) == errs.ErrorTypeRunFailed {
				summary.FailedBatches = append(summary.FailedBatches, i+1)
				c.logger.WarnWithFields("batch failed, continuing with the next", map[string]interface{}{
					"batch": i + 1,
					"error": err.Error(),
				})
				continue
			}
			// Everything collected so far is already checkpointed; the
			// operator re-invokes to resume.
			return summary, err
		}

		c.store.Append(records...)
		if err := c.store.Save(); err != nil {
			return summary, fmt.Errorf("failed to checkpoint after batch %d: %w", i+1, err)
		}

		summary.BatchesDone++
		summary.Records += len(records)

		c.logger.InfoWithFields("batch checkpointed", map[string]interface{}{
			"batch":   i + 1,
			"batches": len(batches),
			"records": len(records),
		})
		c.report(Progress{
			Batch:     i + 1,
			Batches:   len(batches),
			UnitsDone: summary.Skipped + (i+1)*c.opts.BatchSize,
			Units:     len(units),
			Records:   summary.Records,
			Status:    models.RunStatusSucceeded,
		})
	}

	return summary, nil
}

// collectBatch runs one batch through the submit → poll → drain protocol
func (c *BatchCollector) collectBatch(ctx context.Context, n, total int, batch []string) ([]models.RawRecord, error) {
	c.logger.InfoWithFields("submitting batch", map[string]interface{}{
		"batch":   n,
		"batches": total,
		"size":    len(batch),
	})

	handle, err := c.backend.Submit(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to submit batch %d: %w", n, err)
	}

	status, err := c.pollUntilTerminal(ctx, handle, n, total)
	if err != nil {
		return nil, err
	}

	if status != models.RunStatusSucceeded {
		return nil, errs.RunFailed(handle.ID, string(status))
	}

	// Drain completely before advancing; the result feed is single-pass.
	records, err := c.backend.Results(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("failed to drain results for run %s: %w", handle.ID, err)
	}
	return records, nil
}

// pollUntilTerminal polls run status at the configured interval
func (c *BatchCollector) pollUntilTerminal(ctx context.Context, h RunHandle, n, total int) (models.RunStatus, error) {
	for {
		status, err := c.backend.Status(ctx, h)
		if err != nil {
			return "", fmt.Errorf("failed to poll run %s: %w", h.ID, err)
		}
		if status.Terminal() {
			return status, nil
		}

		c.logger.DebugWithFields("run still in flight", map[string]interface{}{
			"run":    h.ID,
			"status": string(status),
			"batch":  n,
		})
		c.report(Progress{Batch: n, Batches: total, Status: status})

		if err := retry.Wait(ctx, c.opts.PollInterval); err != nil {
			return "", err
		}
	}
}

// checkpointOnCancel writes whatever is collected before a clean exit
func (c *BatchCollector) checkpointOnCancel(summary *Summary, cause error) error {
	if err := c.store.Save(); err != nil {
		c.logger.WithError(err).Error("failed to checkpoint during shutdown")
	}
	c.logger.InfoWithFields("collection interrupted; progress checkpointed", map[string]interface{}{
		"batches_done": summary.BatchesDone,
		"records":      summary.Records,
	})
	return fmt.Errorf("collection interrupted: %w", cause)
}

func (c *BatchCollector) report(p Progress) {
	if c.opts.OnProgress != nil {
		c.opts.OnProgress(p)
	}
}
