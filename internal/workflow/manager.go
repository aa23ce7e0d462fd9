package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"gleaner/internal/config"
	"gleaner/internal/jobs"
	"gleaner/internal/logging"
	"gleaner/internal/stage"
)

// Manager coordinates job processing using the registered stage handler.
type Manager struct {
	cfg           *config.Config
	store         *jobs.Store
	handler       stage.Handler
	logger        *slog.Logger
	pollInterval  time.Duration
	retryInterval time.Duration

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *jobs.Job
}

// NewManager constructs a workflow manager around one stage handler.
func NewManager(cfg *config.Config, store *jobs.Store, handler stage.Handler, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:           cfg,
		store:         store,
		handler:       handler,
		logger:        logging.NewComponentLogger(logger, "workflow"),
		pollInterval:  time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
	}
}

// Start begins background processing. Jobs stranded in processing by a
// previous run are re-queued first.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	if count, err := m.store.ResetStuckProcessing(runCtx); err != nil {
		m.logger.Warn("failed to requeue stale processing jobs", logging.Error(err))
	} else if count > 0 {
		m.logger.Info("requeued stale processing jobs", slog.Int64("count", count))
	}

	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the poll loop is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := m.store.Claim(ctx)
		if err != nil {
			m.setLastError(err)
			m.logger.Error("failed to claim next job",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_claim_failed"))
			m.sleep(ctx, m.retryInterval)
			continue
		}
		if job == nil {
			m.sleep(ctx, m.pollInterval)
			continue
		}

		if err := m.processJob(ctx, job); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		d = time.Second
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(job *jobs.Job) {
	m.mu.Lock()
	m.lastJob = job
	m.mu.Unlock()
}

// LastError returns the most recent loop error, if any.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// LastJob returns the most recently processed job.
func (m *Manager) LastJob() *jobs.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastJob
}
