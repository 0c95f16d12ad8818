package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 15*time.Second, cfg.Backend.PollInterval)
	assert.Equal(t, 1000, cfg.Backend.ProfileBatch)
	assert.Equal(t, 8, cfg.Retry.MaxAttempts)
	assert.Equal(t, 60*time.Second, cfg.Retry.RateLimitBase)
	assert.Equal(t, 900*time.Second, cfg.Retry.MaxDelay)
	assert.False(t, cfg.Collector.ContinueOnBatchFailure)
	assert.Equal(t, 5000, cfg.Reports.NoteworthyFollowers)
	assert.Equal(t, 25000, cfg.Reports.LargeFollowing)
	assert.Equal(t, 2*time.Second, cfg.Instagram.PageDelay)
	assert.Equal(t, 15*time.Second, cfg.Instagram.PagePause)
	assert.Equal(t, 10, cfg.Instagram.PagePauseEvery)

	require.NoError(t, cfg.Validate())
}

func TestApplyFastPacing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyFastPacing()

	assert.Equal(t, 1500*time.Millisecond, cfg.Pacing.PerUnitDelay)
	assert.Equal(t, 50, cfg.Pacing.BatchPauseEvery)
	assert.Equal(t, 15*time.Second, cfg.Pacing.BatchPause)

	// The fast profile also speeds up the direct follower walk
	assert.Equal(t, time.Second, cfg.Instagram.PageDelay)
	assert.Equal(t, 5*time.Second, cfg.Instagram.PagePause)
	assert.Equal(t, 10, cfg.Instagram.PagePauseEvery)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
data_dir: /tmp/collect
batch_size: 25
backend:
  endpoint: https://api.example.com
  poll_interval: 5s
pacing:
  per_unit_delay: 2s
  batch_pause_every: 10
  batch_pause: 15s
reports:
  noteworthy_followers: 1000
  local_keywords: [queens, astoria]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "/tmp/collect", cfg.DataDir)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, "https://api.example.com", cfg.Backend.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Backend.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.Pacing.PerUnitDelay)
	assert.Equal(t, 1000, cfg.Reports.NoteworthyFollowers)
	assert.Equal(t, []string{"queens", "astoria"}, cfg.Reports.LocalKeywords)

	// Fields absent from the file keep their defaults
	assert.Equal(t, 8, cfg.Retry.MaxAttempts)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IGCOLLECT_DATA_DIR", "/env/data")
	t.Setenv("IGCOLLECT_BATCH_SIZE", "77")
	t.Setenv("IG_SESSION_ID", "sess-123")
	t.Setenv("IG_CSRF_TOKEN", "csrf-456")
	t.Setenv("IG_DS_USER_ID", "789")
	t.Setenv("IGCOLLECT_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "/env/data", cfg.DataDir)
	assert.Equal(t, 77, cfg.BatchSize)
	assert.Equal(t, "sess-123", cfg.Instagram.SessionID)
	assert.Equal(t, "csrf-456", cfg.Instagram.CSRFToken)
	assert.Equal(t, "789", cfg.Instagram.DSUserID)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = ""
	cfg.BatchSize = 0
	cfg.Backend.Endpoint = ""
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data directory is required")
	assert.Contains(t, err.Error(), "batch size must be positive")
	assert.Contains(t, err.Error(), "backend endpoint is required")
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"data-dir":   "/flag/data",
		"batch-size": 10,
		"fast":       true,
	})

	assert.Equal(t, "/flag/data", cfg.DataDir)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 1500*time.Millisecond, cfg.Pacing.PerUnitDelay)
	assert.Equal(t, 15*time.Second, cfg.Pacing.BatchPause)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.DataDir = "/saved/data"
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "/saved/data", loaded.DataDir)
	assert.Equal(t, cfg.Backend.PollInterval, loaded.Backend.PollInterval)
}
