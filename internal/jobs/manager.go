package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/floorly/catalog-enricher/internal/models"
)

// Store is the job persistence surface the manager needs.
type Store interface {
	CreateJob(ctx context.Context, vendorID string) (*models.Job, error)
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	ListJobs(ctx context.Context, limit int) ([]*models.Job, error)
	NextPendingJob(ctx context.Context) (*models.Job, error)
	MarkRunning(ctx context.Context, jobID string) error
	MarkCompleted(ctx context.Context, jobID string, stats *models.RunStats) error
	MarkFailed(ctx context.Context, jobID string, jobErr error) error
}

// Runner executes one enrichment run for a job.
type Runner interface {
	Run(ctx context.Context, jobID string) (*models.RunStats, error)
}

// RunnerFactory builds the runner for a vendor. It fails fast on unknown
// vendor ids so a bad job never reaches the running state.
type RunnerFactory func(vendorID string) (Runner, error)

// Manager owns the job lifecycle: enqueue, execute, and status transitions.
type Manager struct {
	store     Store
	newRunner RunnerFactory
	logger    *slog.Logger
}

func NewManager(store Store, newRunner RunnerFactory, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		store:     store,
		newRunner: newRunner,
		logger:    logger.With("component", "jobs"),
	}
}

// Enqueue validates the vendor and creates a pending job for it.
func (m *Manager) Enqueue(ctx context.Context, vendorID string) (*models.Job, error) {
	if _, err := m.newRunner(vendorID); err != nil {
		return nil, err
	}

	job, err := m.store.CreateJob(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	m.logger.Info("Job enqueued", "job_id", job.ID, "vendor", vendorID)
	return job, nil
}

func (m *Manager) Get(ctx context.Context, jobID string) (*models.Job, error) {
	return m.store.GetJob(ctx, jobID)
}

func (m *Manager) List(ctx context.Context, limit int) ([]*models.Job, error) {
	return m.store.ListJobs(ctx, limit)
}

// Execute runs a claimed job to completion, recording the terminal status.
// The returned error reflects the run outcome; status persistence failures
// are logged but do not mask it.
func (m *Manager) Execute(ctx context.Context, job *models.Job) error {
	if err := m.store.MarkRunning(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}

	m.logger.Info("Job started", "job_id", job.ID, "vendor", job.VendorID)

	runner, err := m.newRunner(job.VendorID)
	if err != nil {
		m.fail(ctx, job.ID, err)
		return err
	}

	stats, runErr := runner.Run(ctx, job.ID)
	if runErr != nil {
		m.fail(ctx, job.ID, runErr)
		return runErr
	}

	if err := m.store.MarkCompleted(ctx, job.ID, stats); err != nil {
		m.logger.Error("Failed to mark job completed", "job_id", job.ID, "error", err)
		return err
	}

	m.logger.Info("Job completed",
		"job_id", job.ID,
		"vendor", job.VendorID,
		"products_found", stats.ProductsTotal,
		"products_updated", stats.ProductsUpdated,
	)

	return nil
}

func (m *Manager) fail(ctx context.Context, jobID string, jobErr error) {
	m.logger.Error("Job failed", "job_id", jobID, "error", jobErr)
	if err := m.store.MarkFailed(ctx, jobID, jobErr); err != nil {
		m.logger.Error("Failed to mark job failed", "job_id", jobID, "error", err)
	}
}
