package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/floorly/catalog-enricher/internal/models"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// JobStore persists enrichment jobs, their log lines, and their error
// entries.
type JobStore struct {
	db *DB
}

func NewJobStore(db *DB) *JobStore {
	return &JobStore{db: db}
}

func (s *JobStore) CreateJob(ctx context.Context, vendorID string) (*models.Job, error) {
	job := &models.Job{
		ID:        uuid.New().String(),
		VendorID:  vendorID,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO enrichment_jobs (id, vendor_id, status, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := s.db.pool.Exec(ctx, query, job.ID, job.VendorID, job.Status, job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	return job, nil
}

func (s *JobStore) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	query := `
		SELECT id, vendor_id, status, stats, created_at, started_at, completed_at, COALESCE(error, '')
		FROM enrichment_jobs
		WHERE id = $1`

	job := &models.Job{}
	var stats []byte
	err := s.db.pool.QueryRow(ctx, query, jobID).Scan(
		&job.ID, &job.VendorID, &job.Status, &stats,
		&job.CreatedAt, &job.StartedAt, &job.CompletedAt, &job.Error,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if len(stats) > 0 {
		job.Stats = &models.RunStats{}
		if err := json.Unmarshal(stats, job.Stats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal job stats: %w", err)
		}
	}

	return job, nil
}

func (s *JobStore) ListJobs(ctx context.Context, limit int) ([]*models.Job, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, vendor_id, status, created_at, started_at, completed_at, COALESCE(error, '')
		FROM enrichment_jobs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.db.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job := &models.Job{}
		err := rows.Scan(
			&job.ID, &job.VendorID, &job.Status,
			&job.CreatedAt, &job.StartedAt, &job.CompletedAt, &job.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// NextPendingJob claims the oldest pending job, or returns nil when none.
func (s *JobStore) NextPendingJob(ctx context.Context) (*models.Job, error) {
	query := `
		SELECT id, vendor_id, status, created_at
		FROM enrichment_jobs
		WHERE status = $1
		ORDER BY created_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED`

	job := &models.Job{}
	err := s.db.pool.QueryRow(ctx, query, JobStatusPending).Scan(
		&job.ID, &job.VendorID, &job.Status, &job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return job, nil
}

func (s *JobStore) MarkRunning(ctx context.Context, jobID string) error {
	query := `UPDATE enrichment_jobs SET status = $1, started_at = $2 WHERE id = $3`
	_, err := s.db.pool.Exec(ctx, query, JobStatusRunning, time.Now(), jobID)
	return err
}

func (s *JobStore) MarkCompleted(ctx context.Context, jobID string, stats *models.RunStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	query := `UPDATE enrichment_jobs SET status = $1, stats = $2, completed_at = $3 WHERE id = $4`
	_, err = s.db.pool.Exec(ctx, query, JobStatusCompleted, data, time.Now(), jobID)
	return err
}

func (s *JobStore) MarkFailed(ctx context.Context, jobID string, jobErr error) error {
	query := `UPDATE enrichment_jobs SET status = $1, error = $2, completed_at = $3 WHERE id = $4`
	_, err := s.db.pool.Exec(ctx, query, JobStatusFailed, jobErr.Error(), time.Now(), jobID)
	return err
}

// AppendLog writes one job log line with an optional structured payload.
func (s *JobStore) AppendLog(ctx context.Context, jobID, message string, payload map[string]interface{}) error {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal log payload: %w", err)
		}
	}

	query := `
		INSERT INTO enrichment_job_logs (job_id, message, payload, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := s.db.pool.Exec(ctx, query, jobID, message, data, time.Now())
	if err != nil {
		return fmt.Errorf("failed to append job log: %w", err)
	}

	return nil
}

// AddJobError records one error entry for a job. Callers cap how many they
// persist; this method does not enforce the cap itself.
func (s *JobStore) AddJobError(ctx context.Context, jobID, message string) error {
	query := `
		INSERT INTO enrichment_job_errors (job_id, message, created_at)
		VALUES ($1, $2, $3)`

	_, err := s.db.pool.Exec(ctx, query, jobID, message, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add job error: %w", err)
	}

	return nil
}
