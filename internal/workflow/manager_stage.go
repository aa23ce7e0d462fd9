package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gleaner/internal/jobs"
	"gleaner/internal/logging"
	"gleaner/internal/services"
)

func (m *Manager) processJob(ctx context.Context, job *jobs.Job) error {
	requestID := uuid.NewString()
	jobCtx := services.WithJobID(ctx, job.ID)
	jobCtx = services.WithStage(jobCtx, "process")
	jobCtx = services.WithRequestID(jobCtx, requestID)
	logger := logging.WithContext(jobCtx, m.logger)

	start := time.Now()
	logger.Info("job started", logging.String(logging.FieldEventType, "job_start"))

	if err := m.handler.Prepare(jobCtx, job); err != nil {
		m.handleJobFailure(jobCtx, logger, job, err)
		return err
	}

	if err := m.handler.Execute(jobCtx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			m.failForShutdown(job, logger)
			return err
		}
		m.handleJobFailure(jobCtx, logger, job, err)
		return err
	}

	if !job.Status.IsTerminal() {
		job.Status = jobs.StatusCompleted
		job.Progress = 100
		if job.Message == "" {
			job.Message = "done"
		}
	}
	if err := m.store.Update(jobCtx, job); err != nil {
		wrapped := fmt.Errorf("persist job result: %w", err)
		logger.Error("failed to persist job result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	m.setLastJob(job)
	logger.Info("job finished",
		logging.String(logging.FieldEventType, "job_finish"),
		logging.String("status", string(job.Status)),
		logging.Duration("elapsed", time.Since(start)))
	return nil
}

func (m *Manager) handleJobFailure(ctx context.Context, logger *slog.Logger, job *jobs.Job, jobErr error) {
	if job.Status != jobs.StatusFailed {
		job.SetFailure(jobErr.Error(), services.Kind(jobErr))
	}
	logger.Error("job failed",
		logging.Error(jobErr),
		logging.String("error_code", job.ErrorCode),
		logging.String(logging.FieldEventType, "job_failure"))

	if err := m.store.Update(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Error("daemon shutting down, could not persist job failure", logging.Error(err))
		} else {
			logger.Error("failed to persist job failure", logging.Error(err))
		}
	}
	m.setLastJob(job)
	m.setLastError(jobErr)
}

// failForShutdown records the interruption without masking the queued work:
// the startup requeue pass picks the job up again on the next run.
func (m *Manager) failForShutdown(job *jobs.Job, logger *slog.Logger) {
	logger.Debug("job interrupted by shutdown", logging.String("job_id", job.ID))
	updateCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	job.Status = jobs.StatusQueued
	job.Message = jobs.DaemonStopMessage
	_ = m.store.Update(updateCtx, job)
}
