package integration

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"igcollect/pkg/config"
	"igcollect/pkg/logger"
	"igcollect/pkg/models"
)

const testToken = "test-token"

// testConfig returns a configuration tuned for fast test runs: millisecond
// polling, a single retry attempt and no pacing delays.
func testConfig(t *testing.T, endpoint string) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.BatchSize = 2

	cfg.Backend.Endpoint = endpoint
	cfg.Backend.FollowersActor = "test~followers"
	cfg.Backend.PostsActor = "test~posts"
	cfg.Backend.CommentsActor = "test~comments"
	cfg.Backend.ProfilesActor = "test~profiles"
	cfg.Backend.PollInterval = 5 * time.Millisecond
	cfg.Backend.ProfileBatch = 3

	cfg.Retry.MaxAttempts = 1

	cfg.Pacing.PerUnitDelay = 0
	cfg.Pacing.BatchPauseEvery = 0

	cfg.Instagram.SessionID = "session"
	cfg.Instagram.CSRFToken = "csrf"
	cfg.Instagram.DSUserID = "1"
	cfg.Instagram.PageDelay = 0
	cfg.Instagram.PagePause = 0
	cfg.Instagram.PagePauseEvery = 0

	return cfg
}

func testLogger() logger.Logger {
	return logger.NewTestLogger()
}

// dataFile resolves a store path inside the test data directory
func dataFile(cfg *config.Config, name string) string {
	return filepath.Join(cfg.DataDir, name)
}

// commentRecords fabricates n comment items for a post URL
func commentRecords(postURL string, n int) []models.RawRecord {
	out := make([]models.RawRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.RawRecord{
			"id":            fmt.Sprintf("%s-c%d", postURL, i),
			"postUrl":       postURL,
			"ownerUsername": fmt.Sprintf("commenter_%d", i),
			"text":          fmt.Sprintf("comment %d", i),
		})
	}
	return out
}

// profileRecord fabricates one full profile document for a handle
func profileRecord(handle string, followers int) models.RawRecord {
	return models.RawRecord{
		"username":          handle,
		"fullName":          "Test " + handle,
		"followersCount":    float64(followers),
		"followsCount":      float64(100),
		"postsCount":        float64(10),
		"verified":          false,
		"private":           false,
		"isBusinessAccount": followers > 5000,
	}
}
