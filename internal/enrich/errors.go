package enrich

import (
	"context"
	"log/slog"
)

// ErrorSink persists one error entry for a job.
type ErrorSink interface {
	AddJobError(ctx context.Context, jobID, message string) error
}

// boundedErrorLog counts every error in a run but persists at most limit of
// them. A run against a misbehaving vendor site can fail on every product;
// the cap keeps the error table from absorbing thousands of near-identical
// rows while the counter still reflects the real total.
type boundedErrorLog struct {
	jobID  string
	sink   ErrorSink
	limit  int
	count  int
	logger *slog.Logger
}

func newBoundedErrorLog(jobID string, sink ErrorSink, limit int, logger *slog.Logger) *boundedErrorLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &boundedErrorLog{
		jobID:  jobID,
		sink:   sink,
		limit:  limit,
		logger: logger,
	}
}

// Record counts the error and persists it if the cap has not been reached.
// A persistence failure is logged and swallowed so a broken error table
// cannot take down the run itself.
func (l *boundedErrorLog) Record(ctx context.Context, message string) {
	l.count++
	l.logger.Warn("Enrichment error", "job_id", l.jobID, "error", message)

	if l.sink == nil || l.count > l.limit {
		return
	}

	if err := l.sink.AddJobError(ctx, l.jobID, message); err != nil {
		l.logger.Warn("Failed to persist job error", "job_id", l.jobID, "error", err)
	}
}

// Count returns the total number of errors recorded, including those past
// the persistence cap.
func (l *boundedErrorLog) Count() int {
	return l.count
}

// Dropped returns how many errors were counted but not persisted.
func (l *boundedErrorLog) Dropped() int {
	if l.count <= l.limit {
		return 0
	}
	return l.count - l.limit
}
