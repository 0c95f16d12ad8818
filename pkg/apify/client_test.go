package apify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igcollect/pkg/config"
	errs "igcollect/pkg/errors"
	"igcollect/pkg/logger"
	"igcollect/pkg/models"
)

// fakeActorService simulates the actor REST API: one run per submission,
// succeeding after a configurable number of status polls.
type fakeActorService struct {
	mux         *http.ServeMux
	runs        int
	polls       map[string]int
	pollsNeeded int
	finalStatus string
	items       map[string][]map[string]any
	lastInput   map[string]any
}

func newFakeActorService() *fakeActorService {
	s := &fakeActorService{
		mux:         http.NewServeMux(),
		polls:       map[string]int{},
		finalStatus: "SUCCEEDED",
		items:       map[string][]map[string]any{},
	}

	s.mux.HandleFunc("POST /v2/acts/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&s.lastInput)
		s.runs++
		runID := fmt.Sprintf("run-%d", s.runs)
		writeRun(w, runID, "RUNNING", "ds-"+runID)
	})

	s.mux.HandleFunc("GET /v2/actor-runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		runID := r.PathValue("id")
		s.polls[runID]++
		status := "RUNNING"
		if s.polls[runID] > s.pollsNeeded {
			status = s.finalStatus
		}
		writeRun(w, runID, status, "ds-"+runID)
	})

	s.mux.HandleFunc("GET /v2/datasets/{id}/items", func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		all := s.items[r.PathValue("id")]
		if offset > len(all) {
			offset = len(all)
		}
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(all[offset:end])
	})

	return s
}

func writeRun(w http.ResponseWriter, id, status, datasetID string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": map[string]any{
			"id":               id,
			"status":           status,
			"defaultDatasetId": datasetID,
		},
	})
}

func testClient(t *testing.T, svc *fakeActorService) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(svc.mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token", logger.NewTestLogger()), srv
}

func TestStartRun(t *testing.T) {
	svc := newFakeActorService()
	client, _ := testClient(t, svc)

	info, err := client.StartRun(context.Background(), "acme~profile-actor", map[string]any{"usernames": []string{"alice"}}, 3600, 4096)
	require.NoError(t, err)

	assert.Equal(t, "run-1", info.ID)
	assert.Equal(t, "ds-run-1", info.DatasetID)
	assert.Equal(t, models.RunStatusRunning, info.Status)
}

func TestStartRunBadToken(t *testing.T) {
	svc := newFakeActorService()
	srv := httptest.NewServer(svc.mux)
	defer srv.Close()

	client := NewClient(srv.URL, "wrong-token", logger.NewTestLogger())
	_, err := client.StartRun(context.Background(), "acme~profile-actor", nil, 3600, 4096)
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeAuth, errs.TypeOf(err))
}

func TestGetRunStatusMapping(t *testing.T) {
	for wire, want := range map[string]models.RunStatus{
		"READY":     models.RunStatusPending,
		"RUNNING":   models.RunStatusRunning,
		"SUCCEEDED": models.RunStatusSucceeded,
		"FAILED":    models.RunStatusFailed,
		"ABORTED":   models.RunStatusAborted,
		"TIMED-OUT": models.RunStatusTimedOut,
	} {
		assert.Equal(t, want, mapStatus(wire), wire)
	}
}

func TestDatasetItemsPagination(t *testing.T) {
	svc := newFakeActorService()
	all := make([]map[string]any, datasetPageSize+7)
	for i := range all {
		all[i] = map[string]any{"username": fmt.Sprintf("u%d", i)}
	}
	svc.items["ds-big"] = all
	client, _ := testClient(t, svc)

	items, err := client.DatasetItems(context.Background(), "ds-big")
	require.NoError(t, err)
	assert.Len(t, items, datasetPageSize+7)
	assert.Equal(t, "u0", items[0].String("username"))
	assert.Equal(t, fmt.Sprintf("u%d", datasetPageSize+6), items[len(items)-1].String("username"))
}

func TestDatasetItemsEmpty(t *testing.T) {
	svc := newFakeActorService()
	svc.items["ds-empty"] = []map[string]any{}
	client, _ := testClient(t, svc)

	items, err := client.DatasetItems(context.Background(), "ds-empty")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestActorBackendCycle(t *testing.T) {
	svc := newFakeActorService()
	svc.pollsNeeded = 2
	svc.items["ds-run-1"] = []map[string]any{
		{"username": "alice"},
		{"username": "bob"},
	}
	client, _ := testClient(t, svc)

	cfg := config.DefaultConfig()
	backend := NewProfilesBackend(client, cfg, logger.NewTestLogger())

	ctx := context.Background()
	handle, err := backend.Submit(ctx, []string{"alice", "bob"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", handle.ID)
	assert.Equal(t, []any{"alice", "bob"}, svc.lastInput["usernames"])

	status, err := backend.Status(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusRunning, status)

	status, err = backend.Status(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusRunning, status)

	status, err = backend.Status(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSucceeded, status)

	records, err := backend.Results(ctx, handle)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "alice", records[0].String("username"))
}

func TestCommentsBackendInputShape(t *testing.T) {
	svc := newFakeActorService()
	client, _ := testClient(t, svc)

	cfg := config.DefaultConfig()
	backend := NewCommentsBackend(client, cfg, logger.NewTestLogger())

	_, err := backend.Submit(context.Background(), []string{"https://example.com/p/abc/"})
	require.NoError(t, err)
	assert.Equal(t, []any{"https://example.com/p/abc/"}, svc.lastInput["directUrls"])
	assert.Equal(t, float64(cfg.Backend.ResultsLimit), svc.lastInput["resultsLimit"])
}

func TestFollowersBackendSingleTarget(t *testing.T) {
	svc := newFakeActorService()
	client, _ := testClient(t, svc)

	cfg := config.DefaultConfig()
	backend := NewFollowersBackend(client, cfg, logger.NewTestLogger())

	_, err := backend.Submit(context.Background(), []string{"targetacct"})
	require.NoError(t, err)
	assert.Equal(t, "targetacct", svc.lastInput["username"])
}
