package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

// Worker polls for pending jobs and executes them one at a time. A single
// worker per process keeps vendor sites at one browser session each.
type Worker struct {
	manager  *Manager
	interval time.Duration
	logger   *slog.Logger
}

func NewWorker(manager *Manager, interval time.Duration, logger *slog.Logger) *Worker {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		manager:  manager,
		interval: interval,
		logger:   logger.With("component", "worker"),
	}
}

// Start blocks until ctx is cancelled, claiming and running pending jobs.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Job worker started", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Job worker stopped")
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll claims at most one job per tick. Run errors are already recorded on
// the job by the manager; the worker only logs and moves on.
func (w *Worker) poll(ctx context.Context) {
	job, err := w.manager.store.NextPendingJob(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return
		}
		w.logger.Error("Failed to poll for jobs", "error", err)
		return
	}

	if err := w.manager.Execute(ctx, job); err != nil {
		w.logger.Error("Job execution failed", "job_id", job.ID, "error", err)
	}
}
