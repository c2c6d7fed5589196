package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NaqibL/mcf/internal/api"
	"github.com/NaqibL/mcf/internal/model"
	"github.com/NaqibL/mcf/internal/store"
)

type fakeStore struct {
	jobs     map[string]model.Job
	runs     []model.CrawlRun
	active   int
	lastOpts store.SearchOptions
}

func (f *fakeStore) SearchJobs(ctx context.Context, opts store.SearchOptions) ([]model.Job, error) {
	f.lastOpts = opts
	out := make([]model.Job, 0, len(f.jobs))
	for _, j := range f.jobs {
		if j.Status == model.StatusActive {
			out = append(out, j)
		}
	}
	return out, nil
}

func (f *fakeStore) GetJob(ctx context.Context, jobUUID string) (model.Job, error) {
	j, ok := f.jobs[jobUUID]
	if !ok {
		return model.Job{}, store.ErrNotFound
	}
	return j, nil
}

func (f *fakeStore) RecentRuns(ctx context.Context, limit int) ([]model.CrawlRun, error) {
	if limit < len(f.runs) {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

func (f *fakeStore) ActiveJobCount(ctx context.Context) (int, error) {
	return f.active, nil
}

func newServer(t *testing.T, st api.Store) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	api.NewHandler(st, zerolog.Nop()).RegisterRoutes(mux)
	srv := httptest.NewServer(api.CORS("http://localhost:3000", mux))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var body map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestHandleJobs_List(t *testing.T) {
	st := &fakeStore{jobs: map[string]model.Job{
		"j1": {JobUUID: "j1", Title: "Data Engineer", Status: model.StatusActive},
	}}
	srv := newServer(t, st)

	resp, body := get(t, srv.URL+"/jobs?limit=5&offset=10&keywords=engineer&category=Engineering")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `1`, string(body["total"]))

	assert.Equal(t, 5, st.lastOpts.Limit)
	assert.Equal(t, 10, st.lastOpts.Offset)
	assert.Equal(t, "engineer", st.lastOpts.Keywords)
	assert.Equal(t, "Engineering", st.lastOpts.Category)
}

func TestHandleJobs_BadLimit(t *testing.T) {
	srv := newServer(t, &fakeStore{})

	resp, body := get(t, srv.URL+"/jobs?limit=lots")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body["error"]), "limit")
}

func TestHandleJob_Found(t *testing.T) {
	st := &fakeStore{jobs: map[string]model.Job{
		"j1": {JobUUID: "j1", Title: "Data Engineer", Status: model.StatusRemoved},
	}}
	srv := newServer(t, st)

	resp, body := get(t, srv.URL+"/jobs/j1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `"j1"`, string(body["jobUuid"]))
	assert.JSONEq(t, `"removed"`, string(body["status"]))
}

func TestHandleJob_NotFound(t *testing.T) {
	srv := newServer(t, &fakeStore{})

	resp, body := get(t, srv.URL+"/jobs/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `"job not found"`, string(body["error"]))
}

func TestHandleStats(t *testing.T) {
	now := time.Now().UTC()
	st := &fakeStore{
		active: 42,
		runs: []model.CrawlRun{
			{RunID: "r2", StartedAt: now, FinishedAt: &now, TotalSeen: 40, Added: 2, Maintained: 38, Removed: 1},
			{RunID: "r1", StartedAt: now.Add(-time.Hour)},
		},
	}
	srv := newServer(t, st)

	resp, body := get(t, srv.URL+"/crawl/stats")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `42`, string(body["active_job_count"]))

	var runs []model.CrawlRun
	require.NoError(t, json.Unmarshal(body["recent_runs"], &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, "r2", runs[0].RunID)
	assert.Nil(t, runs[1].FinishedAt) // unfinished run is visible, not hidden
}

func TestHandleHealth(t *testing.T) {
	srv := newServer(t, &fakeStore{})

	resp, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `"ok"`, string(body["status"]))
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newServer(t, &fakeStore{})

	resp, err := http.Post(srv.URL+"/jobs", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCORSHeadersAndPreflight(t *testing.T) {
	srv := newServer(t, &fakeStore{})

	resp, _ := get(t, srv.URL+"/health")
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/jobs", nil)
	require.NoError(t, err)
	pre, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer pre.Body.Close()
	assert.Equal(t, http.StatusNoContent, pre.StatusCode)
}
