package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorly/catalog-enricher/internal/config"
	"github.com/floorly/catalog-enricher/internal/jobs"
	"github.com/floorly/catalog-enricher/internal/models"
)

type memStore struct {
	jobs map[string]*models.Job
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[string]*models.Job)}
}

func (s *memStore) CreateJob(ctx context.Context, vendorID string) (*models.Job, error) {
	job := &models.Job{ID: "job-1", VendorID: vendorID, Status: "pending", CreatedAt: time.Now()}
	s.jobs[job.ID] = job
	return job, nil
}

func (s *memStore) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, errors.New("not found")
	}
	return job, nil
}

func (s *memStore) ListJobs(ctx context.Context, limit int) ([]*models.Job, error) {
	var list []*models.Job
	for _, job := range s.jobs {
		list = append(list, job)
	}
	return list, nil
}

func (s *memStore) NextPendingJob(ctx context.Context) (*models.Job, error) {
	return nil, errors.New("no rows")
}

func (s *memStore) MarkRunning(ctx context.Context, jobID string) error { return nil }

func (s *memStore) MarkCompleted(ctx context.Context, jobID string, stats *models.RunStats) error {
	return nil
}

func (s *memStore) MarkFailed(ctx context.Context, jobID string, jobErr error) error { return nil }

func testServer(t *testing.T) (*Server, *memStore) {
	t.Helper()

	store := newMemStore()
	manager := jobs.NewManager(store, func(vendorID string) (jobs.Runner, error) {
		if vendorID != "artesa" {
			return nil, errors.New("unknown vendor: " + vendorID)
		}
		return nil, nil
	}, nil)

	server := NewServer(Params{
		Config:    config.ServerConfig{Host: "127.0.0.1", Port: "0"},
		Manager:   manager,
		VendorIDs: []string{"artesa", "nordplank"},
	})

	return server, store
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := testServer(t)

	rec := httptest.NewRecorder()
	server.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListVendors(t *testing.T) {
	server, _ := testServer(t)

	rec := httptest.NewRecorder()
	server.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/vendors", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Vendors []string `json:"vendors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"artesa", "nordplank"}, resp.Vendors)
}

func TestCreateJob(t *testing.T) {
	server, store := testServer(t)

	body := bytes.NewBufferString(`{"vendor_id": "artesa"}`)
	rec := httptest.NewRecorder()
	server.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/jobs", body))

	require.Equal(t, http.StatusAccepted, rec.Code)

	var job models.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, "artesa", job.VendorID)
	assert.Equal(t, "pending", job.Status)
	assert.Contains(t, store.jobs, job.ID)
}

func TestCreateJobValidation(t *testing.T) {
	server, _ := testServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing vendor", `{}`},
		{"unknown vendor", `{"vendor_id": "bogus"}`},
		{"malformed body", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewBufferString(tt.body))
			server.routes().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetJob(t *testing.T) {
	server, store := testServer(t)
	store.jobs["job-9"] = &models.Job{ID: "job-9", VendorID: "artesa", Status: "completed"}

	rec := httptest.NewRecorder()
	server.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/job-9", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var job models.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, "completed", job.Status)
}

func TestGetJobNotFound(t *testing.T) {
	server, _ := testServer(t)

	rec := httptest.NewRecorder()
	server.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOutboxStatsUnconfigured(t *testing.T) {
	server, _ := testServer(t)

	rec := httptest.NewRecorder()
	server.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/outbox/stats", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
