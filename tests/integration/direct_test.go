package integration

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"igcollect/pkg/checkpoint"
	"igcollect/pkg/instagram"
	"igcollect/pkg/models"
	"igcollect/pkg/pipeline"
	"igcollect/pkg/store"
)

// webProfile fabricates a web API profile document for a handle
func webProfile(id, username string, followers int) models.RawRecord {
	return models.RawRecord{
		"id":               id,
		"username":         username,
		"full_name":        "Test " + username,
		"edge_followed_by": map[string]any{"count": float64(followers)},
		"is_private":       false,
	}
}

func followerPage(page, n int) []models.RawRecord {
	recs := make([]models.RawRecord, 0, n)
	for i := 0; i < n; i++ {
		recs = append(recs, models.RawRecord{
			"pk":       fmt.Sprintf("%d%d", page, i),
			"username": fmt.Sprintf("follower_p%d_%d", page, i),
		})
	}
	return recs
}

func TestDirectFollowerWalkResumesFromCheckpoint(t *testing.T) {
	mock := NewMockWebServer()
	defer mock.Close()

	mock.AddProfile("target", webProfile("42", "target", 6))
	mock.SetFollowerPages("42", [][]models.RawRecord{
		followerPage(0, 2),
		followerPage(1, 2),
		followerPage(2, 2),
	})

	cfg := testConfig(t, "")
	client := instagram.NewClient(cfg, testLogger())
	client.SetBaseURL(mock.URL())

	followers, err := store.OpenJSON(dataFile(cfg, "followers_raw.json"), store.ProfileKey)
	if err != nil {
		t.Fatalf("OpenJSON: %v", err)
	}
	walks, err := checkpoint.NewManager(cfg.DataDir, "target")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	profile, err := client.ResolveProfile(context.Background(), "target")
	if err != nil {
		t.Fatalf("ResolveProfile: %v", err)
	}
	if profile.ID != "42" || profile.FollowerCount != 6 {
		t.Fatalf("profile = %+v, want id 42 with 6 followers", profile)
	}

	walk, err := walks.Create("target", profile.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// First walk processes one page, checkpoints, then aborts
	abort := errors.New("simulated interrupt")
	pages := 0
	err = client.CollectFollowers(context.Background(), profile.ID, walk.Cursor, func(page []models.RawRecord, nextCursor string) error {
		followers.Append(page...)
		if err := followers.Save(); err != nil {
			return err
		}
		if err := walks.Advance(walk, nextCursor, len(page)); err != nil {
			return err
		}
		pages++
		if pages == 1 {
			return abort
		}
		return nil
	})
	if !errors.Is(err, abort) {
		t.Fatalf("first walk error = %v, want the injected abort", err)
	}
	if len(followers.Records()) != 2 {
		t.Fatalf("stored %d records after interrupt, want 2", len(followers.Records()))
	}

	// Resume from the persisted cursor with fresh state, as a re-invoked
	// command would
	followers, err = store.OpenJSON(dataFile(cfg, "followers_raw.json"), store.ProfileKey)
	if err != nil {
		t.Fatalf("OpenJSON reload: %v", err)
	}
	walks, err = checkpoint.NewManager(cfg.DataDir, "target")
	if err != nil {
		t.Fatalf("NewManager reload: %v", err)
	}
	walk, err = walks.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if walk == nil {
		t.Fatal("checkpoint missing after interrupt")
	}
	if walk.Cursor != "page-1" {
		t.Fatalf("resumed cursor = %q, want page-1", walk.Cursor)
	}
	if walk.Collected != 2 {
		t.Fatalf("resumed collected = %d, want 2", walk.Collected)
	}

	requestsBefore := mock.Requests()
	client = instagram.NewClient(cfg, testLogger())
	client.SetBaseURL(mock.URL())
	err = client.CollectFollowers(context.Background(), walk.UserID, walk.Cursor, func(page []models.RawRecord, nextCursor string) error {
		followers.Append(page...)
		if err := followers.Save(); err != nil {
			return err
		}
		return walks.Advance(walk, nextCursor, len(page))
	})
	if err != nil {
		t.Fatalf("resumed walk: %v", err)
	}

	if len(followers.Records()) != 6 {
		t.Errorf("stored %d records after resume, want 6", len(followers.Records()))
	}
	// The resumed walk refetches only the remaining two pages
	if got := mock.Requests() - requestsBefore; got != 2 {
		t.Errorf("resume made %d requests, want 2", got)
	}

	if err := walks.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if walks.Exists() {
		t.Error("checkpoint still present after delete")
	}
}

func TestUnitEnrichmentSkipsAndNotFound(t *testing.T) {
	mock := NewMockWebServer()
	defer mock.Close()

	mock.AddProfile("alice", webProfile("1", "alice", 120))
	mock.AddProfile("bob", webProfile("2", "bob", 340))
	// "ghost" is intentionally absent and resolves to a 404

	cfg := testConfig(t, "")
	client := instagram.NewClient(cfg, testLogger())
	client.SetBaseURL(mock.URL())

	sink, err := store.OpenCSV(dataFile(cfg, "profiles.csv"))
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	if err := sink.Append(models.NormalizedRecord{Handle: "carol"}); err != nil {
		t.Fatalf("seed append: %v", err)
	}

	collector := pipeline.NewUnitCollector(client.FetchProfile, sink, pipeline.UnitOptions{
		Logger: testLogger(),
	})

	summary, err := collector.Collect(context.Background(), []string{"alice", "bob", "carol", "ghost"})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1 for the pre-collected handle", summary.Skipped)
	}
	if summary.Done != 2 {
		t.Errorf("Done = %d, want 2", summary.Done)
	}
	if summary.NotFound != 1 {
		t.Errorf("NotFound = %d, want 1", summary.NotFound)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Row checkpointing means a reload sees every enriched handle
	recs, err := store.ReadCSV(dataFile(cfg, "profiles.csv"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("reloaded %d rows, want 3", len(recs))
	}
	byHandle := map[string]models.NormalizedRecord{}
	for _, r := range recs {
		byHandle[r.Handle] = r
	}
	if byHandle["alice"].FollowerCount != 120 {
		t.Errorf("alice follower count = %d, want 120", byHandle["alice"].FollowerCount)
	}
	if _, ok := byHandle["ghost"]; ok {
		t.Error("unresolvable handle must not be persisted")
	}
}
