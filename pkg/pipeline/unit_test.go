package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igcollect/pkg/errors"
	"igcollect/pkg/logger"
	"igcollect/pkg/models"
	"igcollect/pkg/ratelimit"
	"igcollect/pkg/store"
)

func unitOptions() UnitOptions {
	return UnitOptions{
		Pacer:  ratelimit.NewPacer(0, 0, 0, logger.NewTestLogger()),
		Logger: logger.NewTestLogger(),
	}
}

func TestUnitCollectorEnriches(t *testing.T) {
	sink, err := store.OpenCSV(filepath.Join(t.TempDir(), "profiles.csv"))
	require.NoError(t, err)

	fetch := func(ctx context.Context, unit string) (models.RawRecord, error) {
		return models.RawRecord{"username": unit, "followerCount": float64(5)}, nil
	}

	c := NewUnitCollector(fetch, sink, unitOptions())
	summary, err := c.Collect(context.Background(), []string{"alice", "bob"})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Done)
	assert.Equal(t, 0, summary.NotFound)
	assert.Equal(t, 2, sink.Len())
	require.NoError(t, sink.Close())
}

func TestUnitCollectorSkipsNotFound(t *testing.T) {
	sink, err := store.OpenCSV(filepath.Join(t.TempDir(), "profiles.csv"))
	require.NoError(t, err)

	fetch := func(ctx context.Context, unit string) (models.RawRecord, error) {
		if unit == "gone" {
			return nil, errs.NewWithCode(errs.ErrorTypeNotFound, "no such account", 404)
		}
		return models.RawRecord{"username": unit}, nil
	}

	c := NewUnitCollector(fetch, sink, unitOptions())
	summary, err := c.Collect(context.Background(), []string{"alice", "gone", "bob"})
	require.NoError(t, err, "a not-found unit is an empty result, not an error")

	assert.Equal(t, 2, summary.Done)
	assert.Equal(t, 1, summary.NotFound)
	done := sink.Identifiers()
	assert.NotContains(t, done, "gone")
	require.NoError(t, sink.Close())
}

func TestUnitCollectorAbortsOnAuthError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.csv")
	sink, err := store.OpenCSV(path)
	require.NoError(t, err)

	calls := 0
	fetch := func(ctx context.Context, unit string) (models.RawRecord, error) {
		calls++
		if calls == 2 {
			return nil, errs.SessionExpired(401)
		}
		return models.RawRecord{"username": unit}, nil
	}

	c := NewUnitCollector(fetch, sink, unitOptions())
	summary, err := c.Collect(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeAuth, errs.TypeOf(err))
	assert.Equal(t, 1, summary.Done, "first unit persisted before the abort")
	require.NoError(t, sink.Close())

	// The persisted row survives for the next invocation's resume set
	reloaded, err := store.OpenCSV(path)
	require.NoError(t, err)
	assert.Contains(t, reloaded.Identifiers(), "a")
}

func TestUnitCollectorResumesFromSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.csv")

	first, err := store.OpenCSV(path)
	require.NoError(t, err)
	require.NoError(t, first.Append(models.NormalizedRecord{Handle: "alice"}))
	require.NoError(t, first.Close())

	var fetched []string
	fetch := func(ctx context.Context, unit string) (models.RawRecord, error) {
		fetched = append(fetched, unit)
		return models.RawRecord{"username": unit}, nil
	}

	sink, err := store.OpenCSV(path)
	require.NoError(t, err)
	c := NewUnitCollector(fetch, sink, unitOptions())
	summary, err := c.Collect(context.Background(), []string{"alice", "bob"})
	require.NoError(t, err)

	assert.Equal(t, []string{"bob"}, fetched, "already-enriched handles are never refetched")
	assert.Equal(t, 1, summary.Skipped)
	require.NoError(t, sink.Close())
}

func TestUnitCollectorCancellation(t *testing.T) {
	sink, err := store.OpenCSV(filepath.Join(t.TempDir(), "profiles.csv"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	fetch := func(fctx context.Context, unit string) (models.RawRecord, error) {
		cancel() // request stop while a unit is in flight
		return models.RawRecord{"username": unit}, nil
	}

	opts := UnitOptions{
		Pacer:  ratelimit.NewPacer(time.Millisecond, 0, 0, logger.NewTestLogger()),
		Logger: logger.NewTestLogger(),
	}
	c := NewUnitCollector(fetch, sink, opts)
	summary, err := c.Collect(ctx, []string{"a", "b", "c"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted")
	assert.Equal(t, 1, summary.Done, "the in-flight unit completes and is persisted before exit")
	require.NoError(t, sink.Close())
}

func TestUnitCollectorPacesAfterNotFound(t *testing.T) {
	sink, err := store.OpenCSV(filepath.Join(t.TempDir(), "profiles.csv"))
	require.NoError(t, err)

	fetch := func(ctx context.Context, unit string) (models.RawRecord, error) {
		if unit == "gone1" || unit == "gone2" {
			return nil, errs.NewWithCode(errs.ErrorTypeNotFound, "no such account", 404)
		}
		return models.RawRecord{"username": unit}, nil
	}

	pacer := ratelimit.NewPacer(0, 0, 0, logger.NewTestLogger())
	c := NewUnitCollector(fetch, sink, UnitOptions{Pacer: pacer, Logger: logger.NewTestLogger()})
	summary, err := c.Collect(context.Background(), []string{"alice", "gone1", "gone2", "bob"})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Done)
	assert.Equal(t, 2, summary.NotFound)
	// Unresolvable units still count toward pacing; only the gaps between
	// fetches are waited on, so four fetches pace three times.
	assert.Equal(t, 3, pacer.Count())
	require.NoError(t, sink.Close())
}

func TestUnitCollectorFallbackHandle(t *testing.T) {
	sink, err := store.OpenCSV(filepath.Join(t.TempDir(), "profiles.csv"))
	require.NoError(t, err)

	// A response without any handle field still persists under the
	// requested unit so resume works.
	fetch := func(ctx context.Context, unit string) (models.RawRecord, error) {
		return models.RawRecord{"followerCount": float64(3)}, nil
	}

	c := NewUnitCollector(fetch, sink, unitOptions())
	_, err = c.Collect(context.Background(), []string{"mystery"})
	require.NoError(t, err)
	assert.Contains(t, sink.Identifiers(), "mystery")
	require.NoError(t, sink.Close())
}
