package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"igcollect/pkg/models"
)

// ResultsFunc produces the dataset items one actor run would yield for
// the given input document. Tests script the backend with it.
type ResultsFunc func(actor string, input map[string]any) []models.RawRecord

// MockActorServer simulates the actor service REST surface: run start,
// run status polling, and dataset item paging.
type MockActorServer struct {
	server *httptest.Server

	mu            sync.Mutex
	runs          map[string]*mockRun
	nextRun       int
	pollsToFinish int
	failNext      int
	results       ResultsFunc
	token         string

	runsStarted int
	statusPolls int
}

type mockRun struct {
	id      string
	actor   string
	input   map[string]any
	polls   int
	fail    bool
	dataset string
	items   []models.RawRecord
}

// NewMockActorServer creates a mock actor service. Runs succeed on the
// first status poll unless configured otherwise.
func NewMockActorServer(token string, results ResultsFunc) *MockActorServer {
	m := &MockActorServer{
		runs:          make(map[string]*mockRun),
		pollsToFinish: 1,
		results:       results,
		token:         token,
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// URL returns the base URL of the mock service
func (m *MockActorServer) URL() string {
	return m.server.URL
}

// Close shuts the mock service down
func (m *MockActorServer) Close() {
	m.server.Close()
}

// SetPollsToFinish makes runs stay RUNNING for n-1 polls before finishing
func (m *MockActorServer) SetPollsToFinish(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pollsToFinish = n
}

// FailNextRuns makes the next n started runs end FAILED
func (m *MockActorServer) FailNextRuns(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = n
}

// RunsStarted returns how many runs were submitted
func (m *MockActorServer) RunsStarted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runsStarted
}

// LastInput returns the input document of the most recently started run
func (m *MockActorServer) LastInput() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	run := m.runs[fmt.Sprintf("run-%d", m.nextRun)]
	if run == nil {
		return nil
	}
	return run.input
}

func (m *MockActorServer) handle(w http.ResponseWriter, r *http.Request) {
	if auth := r.Header.Get("Authorization"); auth != "Bearer "+m.token {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"type": "token-not-found"}})
		return
	}

	path := r.URL.Path
	switch {
	case r.Method == http.MethodPost && strings.HasPrefix(path, "/v2/acts/") && strings.HasSuffix(path, "/runs"):
		m.handleStartRun(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/v2/actor-runs/"):
		m.handleGetRun(w, strings.TrimPrefix(path, "/v2/actor-runs/"))
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/v2/datasets/") && strings.HasSuffix(path, "/items"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/v2/datasets/"), "/items")
		m.handleDatasetItems(w, r, id)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (m *MockActorServer) handleStartRun(w http.ResponseWriter, r *http.Request) {
	actor := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v2/acts/"), "/runs")

	var input map[string]any
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.nextRun++
	m.runsStarted++
	run := &mockRun{
		id:      fmt.Sprintf("run-%d", m.nextRun),
		actor:   actor,
		input:   input,
		dataset: fmt.Sprintf("ds-%d", m.nextRun),
	}
	if m.failNext > 0 {
		m.failNext--
		run.fail = true
	} else if m.results != nil {
		run.items = m.results(actor, input)
	}
	m.runs[run.id] = run
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeRunEnvelope(w, run.id, "READY", run.dataset)
}

func (m *MockActorServer) handleGetRun(w http.ResponseWriter, runID string) {
	m.mu.Lock()
	run, ok := m.runs[runID]
	if !ok {
		m.mu.Unlock()
		w.WriteHeader(http.StatusNotFound)
		return
	}
	m.statusPolls++
	run.polls++
	status := "RUNNING"
	if run.polls >= m.pollsToFinish {
		if run.fail {
			status = "FAILED"
		} else {
			status = "SUCCEEDED"
		}
	}
	dataset := run.dataset
	m.mu.Unlock()

	writeRunEnvelope(w, runID, status, dataset)
}

func (m *MockActorServer) handleDatasetItems(w http.ResponseWriter, r *http.Request, datasetID string) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 1000
	}

	m.mu.Lock()
	var items []models.RawRecord
	for _, run := range m.runs {
		if run.dataset == datasetID {
			items = run.items
			break
		}
	}
	m.mu.Unlock()

	if offset > len(items) {
		offset = len(items)
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items[offset:end])
}

func writeRunEnvelope(w http.ResponseWriter, id, status, datasetID string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"data": map[string]any{
			"id":               id,
			"status":           status,
			"defaultDatasetId": datasetID,
		},
	})
}

// MockWebServer simulates the web API endpoints the direct strategy
// uses: profile resolution and follower paging.
type MockWebServer struct {
	server *httptest.Server

	mu            sync.Mutex
	profiles      map[string]models.RawRecord
	followerPages map[string][][]models.RawRecord
	requests      int
}

// NewMockWebServer creates a mock web API host
func NewMockWebServer() *MockWebServer {
	m := &MockWebServer{
		profiles:      make(map[string]models.RawRecord),
		followerPages: make(map[string][][]models.RawRecord),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users/web_profile_info/", m.handleProfile)
	mux.HandleFunc("/api/v1/friendships/", m.handleFollowers)
	m.server = httptest.NewServer(mux)
	return m
}

// URL returns the base URL of the mock host
func (m *MockWebServer) URL() string {
	return m.server.URL
}

// Close shuts the mock host down
func (m *MockWebServer) Close() {
	m.server.Close()
}

// AddProfile registers a profile document served for the handle
func (m *MockWebServer) AddProfile(username string, profile models.RawRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[username] = profile
}

// SetFollowerPages scripts the follower listing for a user id. Page n is
// served for cursor "page-n"; the first page for an empty cursor.
func (m *MockWebServer) SetFollowerPages(userID string, pages [][]models.RawRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.followerPages[userID] = pages
}

// Requests returns how many requests the host served
func (m *MockWebServer) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

func (m *MockWebServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requests++
	profile, ok := m.profiles[r.URL.Query().Get("username")]
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"status": "fail", "message": "User not found"})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"data":   map[string]any{"user": profile},
		"status": "ok",
	})
}

func (m *MockWebServer) handleFollowers(w http.ResponseWriter, r *http.Request) {
	// Path shape: /api/v1/friendships/<id>/followers/
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 4 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	userID := parts[3]

	m.mu.Lock()
	m.requests++
	pages := m.followerPages[userID]
	m.mu.Unlock()

	page := 0
	if cursor := r.URL.Query().Get("max_id"); cursor != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(cursor, "page-"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		page = n
	}
	if page >= len(pages) {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	next := ""
	if page+1 < len(pages) {
		next = fmt.Sprintf("page-%d", page+1)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"users":       pages[page],
		"next_max_id": next,
		"status":      "ok",
	})
}
