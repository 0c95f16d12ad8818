package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemaining(t *testing.T) {
	units := []string{"u1", "u2", "u3", "u4"}
	done := map[string]struct{}{"u1": {}, "u3": {}}

	assert.Equal(t, []string{"u2", "u4"}, Remaining(units, done))
}

func TestRemainingIdempotent(t *testing.T) {
	units := []string{"a", "b", "c"}
	done := map[string]struct{}{"b": {}}

	first := Remaining(units, done)
	second := Remaining(units, done)
	assert.Equal(t, first, second)
}

func TestRemainingEmptyDone(t *testing.T) {
	units := []string{"a", "b"}
	assert.Equal(t, units, Remaining(units, map[string]struct{}{}))
	assert.Equal(t, units, Remaining(units, nil))
}

func TestAlreadyDoneNilStore(t *testing.T) {
	assert.Empty(t, AlreadyDone(nil))
}

func TestPartitionBatchesSizes(t *testing.T) {
	units := make([]string, 137)
	for i := range units {
		units[i] = fmt.Sprintf("u%d", i+1)
	}

	batches := PartitionBatches(units, 50)
	assert.Len(t, batches, 3)
	assert.Len(t, batches[0], 50)
	assert.Len(t, batches[1], 50)
	assert.Len(t, batches[2], 37)
}

func TestPartitionBatchesCoverage(t *testing.T) {
	for _, tc := range []struct {
		n, size int
	}{
		{0, 50}, {1, 50}, {50, 50}, {51, 50}, {137, 50}, {7, 1}, {10, 1000},
	} {
		units := make([]string, tc.n)
		for i := range units {
			units[i] = fmt.Sprintf("u%d", i+1)
		}

		var flat []string
		for _, b := range PartitionBatches(units, tc.size) {
			flat = append(flat, b...)
		}

		// Concatenated in order, the batches equal the input exactly
		assert.Equal(t, len(units), len(flat), "n=%d size=%d", tc.n, tc.size)
		for i := range units {
			assert.Equal(t, units[i], flat[i], "n=%d size=%d index=%d", tc.n, tc.size, i)
		}
	}
}

func TestPartitionBatchesDegenerateSize(t *testing.T) {
	units := []string{"a", "b", "c"}
	batches := PartitionBatches(units, 0)
	assert.Len(t, batches, 1)
	assert.Equal(t, units, batches[0])
}
