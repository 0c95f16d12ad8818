package pipeline

import (
	"context"

	"igcollect/pkg/models"
)

// RunHandle identifies one remote collection run and its result set
type RunHandle struct {
	ID        string
	DatasetID string
}

// BatchBackend is the remote collection backend: it accepts a batch of
// work-unit identifiers, exposes run status, and yields the run's result
// records once the run succeeds.
type BatchBackend interface {
	// Submit starts a run for the given batch and returns its handle
	Submit(ctx context.Context, units []string) (RunHandle, error)

	// Status reports the run's current state
	Status(ctx context.Context, h RunHandle) (models.RunStatus, error)

	// Results drains the run's result set completely. The underlying feed
	// is single-pass; the returned slice is the cached, complete set.
	Results(ctx context.Context, h RunHandle) ([]models.RawRecord, error)
}

// ResultStore is the durable record collection the collector checkpoints
// into after every batch.
type ResultStore interface {
	// Identifiers returns the set of work-unit identifiers already stored
	Identifiers() map[string]struct{}

	// Append merges records, keyed by identifier, and returns how many
	// were new rather than overwrites
	Append(recs ...models.RawRecord) int

	// Save writes the store durably; the crash-recovery checkpoint
	Save() error
}

// UnitFetcher collects a single work unit through a direct polling
// backend. A not_found error means an empty result for that unit, which
// the collector recovers from locally.
type UnitFetcher func(ctx context.Context, unit string) (models.RawRecord, error)

// ProfileSink is the row-oriented store the per-unit loop appends
// normalized profiles into, one checkpointed row per collected unit.
type ProfileSink interface {
	Identifiers() map[string]struct{}
	Append(rec models.NormalizedRecord) error
}
