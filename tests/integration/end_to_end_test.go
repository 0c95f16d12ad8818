package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"igcollect/pkg/apify"
	errs "igcollect/pkg/errors"
	"igcollect/pkg/models"
	"igcollect/pkg/normalize"
	"igcollect/pkg/pipeline"
	"igcollect/pkg/report"
	"igcollect/pkg/store"
)

// commentResults scripts the comment actor: two comments per submitted
// post URL
func commentResults(actor string, input map[string]any) []models.RawRecord {
	urls, _ := input["directUrls"].([]any)
	var items []models.RawRecord
	for _, u := range urls {
		items = append(items, commentRecords(u.(string), 2)...)
	}
	return items
}

// profileResults scripts the profile actor: one document per handle
func profileResults(actor string, input map[string]any) []models.RawRecord {
	handles, _ := input["usernames"].([]any)
	var items []models.RawRecord
	for i, h := range handles {
		items = append(items, profileRecord(h.(string), 1000*(i+1)))
	}
	return items
}

func postURLs(n int) []string {
	urls := make([]string, 0, n)
	for i := 0; i < n; i++ {
		urls = append(urls, "https://example.com/p/post"+string(rune('a'+i))+"/")
	}
	return urls
}

func TestBatchCommentCollection(t *testing.T) {
	mock := NewMockActorServer(testToken, commentResults)
	defer mock.Close()

	cfg := testConfig(t, mock.URL())
	comments, err := store.OpenGrouped(dataFile(cfg, "comments.json"), store.CommentKey, store.PostURLKey)
	if err != nil {
		t.Fatalf("OpenGrouped: %v", err)
	}

	client := apify.NewClient(cfg.Backend.Endpoint, testToken, testLogger())
	backend := apify.NewCommentsBackend(client, cfg, testLogger())

	var updates []pipeline.Progress
	collector := pipeline.NewBatchCollector(backend, comments, pipeline.Options{
		BatchSize:    cfg.BatchSize,
		PollInterval: cfg.Backend.PollInterval,
		OnProgress:   func(p pipeline.Progress) { updates = append(updates, p) },
		Logger:       testLogger(),
	})

	units := postURLs(5)
	summary, err := collector.Collect(context.Background(), units)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if summary.Batches != 3 || summary.BatchesDone != 3 {
		t.Errorf("Batches = %d, BatchesDone = %d, want 3 and 3", summary.Batches, summary.BatchesDone)
	}
	if summary.Records != 10 {
		t.Errorf("Records = %d, want 10 (2 comments per post)", summary.Records)
	}
	if mock.RunsStarted() != 3 {
		t.Errorf("RunsStarted = %d, want 3", mock.RunsStarted())
	}

	// Resume identifiers are post URLs, not comment ids
	ids := comments.Identifiers()
	if len(ids) != 5 {
		t.Errorf("Identifiers = %d, want 5 post URLs", len(ids))
	}
	for _, u := range units {
		if _, ok := ids[u]; !ok {
			t.Errorf("post %s missing from identifiers", u)
		}
	}

	// Checkpoint file is on disk
	if _, err := os.Stat(dataFile(cfg, "comments.json")); err != nil {
		t.Errorf("store file not written: %v", err)
	}

	if len(updates) == 0 {
		t.Fatal("no progress reported")
	}
	last := updates[len(updates)-1]
	if last.Batch != 3 || last.Records != 10 {
		t.Errorf("last progress = %+v, want batch 3 with 10 records", last)
	}
}

func TestBatchCollectionResumesFromStore(t *testing.T) {
	mock := NewMockActorServer(testToken, commentResults)
	defer mock.Close()

	cfg := testConfig(t, mock.URL())
	path := dataFile(cfg, "comments.json")
	units := postURLs(4)

	client := apify.NewClient(cfg.Backend.Endpoint, testToken, testLogger())
	backend := apify.NewCommentsBackend(client, cfg, testLogger())

	// First pass covers the first two posts only
	first, err := store.OpenGrouped(path, store.CommentKey, store.PostURLKey)
	if err != nil {
		t.Fatalf("OpenGrouped: %v", err)
	}
	collector := pipeline.NewBatchCollector(backend, first, pipeline.Options{
		BatchSize:    cfg.BatchSize,
		PollInterval: cfg.Backend.PollInterval,
		Logger:       testLogger(),
	})
	if _, err := collector.Collect(context.Background(), units[:2]); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if mock.RunsStarted() != 1 {
		t.Fatalf("RunsStarted = %d after first pass, want 1", mock.RunsStarted())
	}

	// Second pass over the full unit list reloads the store and skips
	// the collected posts
	second, err := store.OpenGrouped(path, store.CommentKey, store.PostURLKey)
	if err != nil {
		t.Fatalf("OpenGrouped reload: %v", err)
	}
	collector = pipeline.NewBatchCollector(backend, second, pipeline.Options{
		BatchSize:    cfg.BatchSize,
		PollInterval: cfg.Backend.PollInterval,
		Logger:       testLogger(),
	})
	summary, err := collector.Collect(context.Background(), units)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if summary.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", summary.Skipped)
	}
	if summary.Batches != 1 {
		t.Errorf("Batches = %d, want 1 (only the remaining posts)", summary.Batches)
	}
	if mock.RunsStarted() != 2 {
		t.Errorf("RunsStarted = %d total, want 2", mock.RunsStarted())
	}
	if len(second.Identifiers()) != 4 {
		t.Errorf("Identifiers = %d, want all 4 posts", len(second.Identifiers()))
	}
}

func TestBatchFailureAbortsByDefault(t *testing.T) {
	mock := NewMockActorServer(testToken, commentResults)
	defer mock.Close()
	mock.FailNextRuns(1)

	cfg := testConfig(t, mock.URL())
	comments, err := store.OpenGrouped(dataFile(cfg, "comments.json"), store.CommentKey, store.PostURLKey)
	if err != nil {
		t.Fatalf("OpenGrouped: %v", err)
	}

	client := apify.NewClient(cfg.Backend.Endpoint, testToken, testLogger())
	backend := apify.NewCommentsBackend(client, cfg, testLogger())
	collector := pipeline.NewBatchCollector(backend, comments, pipeline.Options{
		BatchSize:    cfg.BatchSize,
		PollInterval: cfg.Backend.PollInterval,
		Logger:       testLogger(),
	})

	summary, err := collector.Collect(context.Background(), postURLs(4))
	if err == nil {
		t.Fatal("expected an error from the failed run")
	}
	if errs.TypeOf(err) != errs.ErrorTypeRunFailed {
		t.Errorf("error type = %s, want %s", errs.TypeOf(err), errs.ErrorTypeRunFailed)
	}
	if summary.BatchesDone != 0 {
		t.Errorf("BatchesDone = %d, want 0", summary.BatchesDone)
	}
}

func TestBatchFailureSkippedWhenContinuing(t *testing.T) {
	mock := NewMockActorServer(testToken, commentResults)
	defer mock.Close()
	mock.FailNextRuns(1)

	cfg := testConfig(t, mock.URL())
	comments, err := store.OpenGrouped(dataFile(cfg, "comments.json"), store.CommentKey, store.PostURLKey)
	if err != nil {
		t.Fatalf("OpenGrouped: %v", err)
	}

	client := apify.NewClient(cfg.Backend.Endpoint, testToken, testLogger())
	backend := apify.NewCommentsBackend(client, cfg, testLogger())
	collector := pipeline.NewBatchCollector(backend, comments, pipeline.Options{
		BatchSize:              cfg.BatchSize,
		PollInterval:           cfg.Backend.PollInterval,
		ContinueOnBatchFailure: true,
		Logger:                 testLogger(),
	})

	summary, err := collector.Collect(context.Background(), postURLs(4))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(summary.FailedBatches) != 1 || summary.FailedBatches[0] != 1 {
		t.Errorf("FailedBatches = %v, want [1]", summary.FailedBatches)
	}
	if summary.BatchesDone != 1 {
		t.Errorf("BatchesDone = %d, want 1", summary.BatchesDone)
	}
	if summary.Records != 4 {
		t.Errorf("Records = %d, want 4 from the surviving batch", summary.Records)
	}
}

func TestRejectedTokenSurfacesAuthError(t *testing.T) {
	mock := NewMockActorServer(testToken, commentResults)
	defer mock.Close()

	cfg := testConfig(t, mock.URL())
	comments, err := store.OpenGrouped(dataFile(cfg, "comments.json"), store.CommentKey, store.PostURLKey)
	if err != nil {
		t.Fatalf("OpenGrouped: %v", err)
	}

	client := apify.NewClient(cfg.Backend.Endpoint, "wrong-token", testLogger())
	backend := apify.NewCommentsBackend(client, cfg, testLogger())
	collector := pipeline.NewBatchCollector(backend, comments, pipeline.Options{
		BatchSize:    cfg.BatchSize,
		PollInterval: cfg.Backend.PollInterval,
		Logger:       testLogger(),
	})

	_, err = collector.Collect(context.Background(), postURLs(2))
	if err == nil {
		t.Fatal("expected an auth error")
	}
	var apiErr *errs.Error
	if !errors.As(err, &apiErr) || apiErr.Type != errs.ErrorTypeAuth {
		t.Errorf("error = %v, want type %s", err, errs.ErrorTypeAuth)
	}
}

func TestEnrichmentThroughReports(t *testing.T) {
	mock := NewMockActorServer(testToken, profileResults)
	defer mock.Close()

	cfg := testConfig(t, mock.URL())
	profiles, err := store.OpenJSON(dataFile(cfg, "profiles.json"), store.ProfileKey)
	if err != nil {
		t.Fatalf("OpenJSON: %v", err)
	}

	client := apify.NewClient(cfg.Backend.Endpoint, testToken, testLogger())
	backend := apify.NewProfilesBackend(client, cfg, testLogger())
	collector := pipeline.NewBatchCollector(backend, profiles, pipeline.Options{
		BatchSize:    cfg.Backend.ProfileBatch,
		PollInterval: cfg.Backend.PollInterval,
		Logger:       testLogger(),
	})

	handles := []string{"alice", "bob", "carol", "dave", "erin"}
	summary, err := collector.Collect(context.Background(), handles)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if summary.Records != 5 {
		t.Fatalf("Records = %d, want 5", summary.Records)
	}

	// Everything collected flows into the report set
	recs := normalize.NormalizeAll(profiles.Records())
	if len(recs) != 5 {
		t.Fatalf("normalized %d records, want 5", len(recs))
	}

	gen := report.NewGenerator(cfg.Reports, testLogger())
	dir := filepath.Join(cfg.DataDir, "reports")
	files, err := gen.WriteAll(dir, report.Inputs{Profiles: recs})
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if _, ok := files[report.FileAllFollowers]; !ok {
		t.Fatalf("all-followers view missing from %v", files)
	}

	data, err := os.ReadFile(files[report.FileAllFollowers])
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 6 {
		t.Errorf("report has %d lines, want header plus 5 rows", len(lines))
	}

	dashPath := filepath.Join(dir, "dashboard.html")
	if err := gen.WriteDashboard(dashPath, report.Inputs{Profiles: recs}); err != nil {
		t.Fatalf("WriteDashboard: %v", err)
	}
	html, err := os.ReadFile(dashPath)
	if err != nil {
		t.Fatalf("read dashboard: %v", err)
	}
	if !strings.Contains(strings.ToLower(string(html)), "<html") {
		t.Error("dashboard output does not look like HTML")
	}
}
