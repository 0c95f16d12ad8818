package runlog

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igcollect/pkg/models"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestStartAndFinish(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	id, err := l.Start(ctx, "followers", "someaccount", "apify", 1)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	run, err := l.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(models.RunStatusRunning), run.Status)
	assert.Equal(t, "followers", run.Command)
	assert.True(t, run.FinishedAt.IsZero())

	require.NoError(t, l.Finish(ctx, id, Outcome{
		Status:    models.RunStatusSucceeded,
		UnitsDone: 1,
		Records:   250,
	}))

	run, err = l.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(models.RunStatusSucceeded), run.Status)
	assert.Equal(t, 250, run.Records)
	assert.False(t, run.FinishedAt.IsZero())
}

func TestFinishRecordsError(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	id, err := l.Start(ctx, "enrich", "", "instagram", 40)
	require.NoError(t, err)

	require.NoError(t, l.Finish(ctx, id, Outcome{
		Status:     models.RunStatusFailed,
		UnitsDone:  12,
		UnitErrors: 1,
		Err:        fmt.Errorf("session expired or invalid"),
	}))

	run, err := l.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(models.RunStatusFailed), run.Status)
	assert.Equal(t, 12, run.UnitsDone)
	assert.Contains(t, run.ErrorMessage, "session expired")
}

func TestListNewestFirst(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := l.Start(ctx, fmt.Sprintf("cmd%d", i), "t", "apify", i)
		require.NoError(t, err)
	}

	runs, err := l.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	runs, err = l.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestGetMissingRun(t *testing.T) {
	l := openTestLedger(t)
	_, err := l.Get(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLedgerSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runs.db")
	ctx := context.Background()

	l, err := Open(path)
	require.NoError(t, err)
	id, err := l.Start(ctx, "comments", "someaccount", "apify", 4)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	run, err := reopened.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "comments", run.Command)
}
