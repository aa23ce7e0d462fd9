package workflow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"gleaner/internal/config"
	"gleaner/internal/jobs"
	"gleaner/internal/services"
	"gleaner/internal/stage"
	"gleaner/internal/testsupport"
)

type stubHandler struct {
	executed  atomic.Int64
	execErr   error
	execDelay time.Duration
}

func (h *stubHandler) Prepare(ctx context.Context, job *jobs.Job) error { return nil }

func (h *stubHandler) Execute(ctx context.Context, job *jobs.Job) error {
	h.executed.Add(1)
	if h.execDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.execDelay):
		}
	}
	if h.execErr != nil {
		return h.execErr
	}
	job.Status = jobs.StatusCompleted
	job.Progress = 100
	job.Message = "done"
	return nil
}

func (h *stubHandler) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("stub")
}

func fastConfig(t *testing.T) *config.Config {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1
	return cfg
}

func waitForTerminal(t *testing.T, store *jobs.Store, id string) *jobs.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		if job != nil && job.Status.IsTerminal() {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return nil
}

func TestManagerProcessesQueuedJob(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	handler := &stubHandler{}
	manager := NewManager(cfg, store, handler, nil)

	job, err := store.NewJob(context.Background(), `{}`)
	if err != nil {
		t.Fatal(err)
	}
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	final := waitForTerminal(t, store, job.ID)
	if final.Status != jobs.StatusCompleted || final.Progress != 100 {
		t.Fatalf("final = %q/%d", final.Status, final.Progress)
	}
	if handler.executed.Load() != 1 {
		t.Fatalf("execute calls = %d", handler.executed.Load())
	}
}

func TestManagerPersistsFailure(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	handler := &stubHandler{execErr: services.Wrap(services.ErrAcquisition, "process", "fetch", "download_failed", errors.New("boom"))}
	manager := NewManager(cfg, store, handler, nil)

	job, err := store.NewJob(context.Background(), `{}`)
	if err != nil {
		t.Fatal(err)
	}
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	final := waitForTerminal(t, store, job.ID)
	if final.Status != jobs.StatusFailed {
		t.Fatalf("status = %q", final.Status)
	}
	if final.ErrorCode != "acquisition_error" {
		t.Fatalf("error code = %q", final.ErrorCode)
	}
	if manager.LastError() == nil {
		t.Fatal("expected last error to be recorded")
	}
}

func TestManagerStartTwiceFails(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := NewManager(cfg, store, &stubHandler{}, nil)

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()
	if err := manager.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}
}

func TestManagerRequeuesStuckJobsOnStart(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	if _, err := store.NewJob(ctx, `{}`); err != nil {
		t.Fatal(err)
	}
	claimed, err := store.Claim(ctx)
	if err != nil || claimed == nil {
		t.Fatalf("Claim: %v %v", claimed, err)
	}

	manager := NewManager(cfg, store, &stubHandler{}, nil)
	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	final := waitForTerminal(t, store, claimed.ID)
	if final.Status != jobs.StatusCompleted {
		t.Fatalf("status = %q", final.Status)
	}
}

func TestManagerStopHaltsProcessing(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := NewManager(cfg, store, &stubHandler{}, nil)

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	manager.Stop()
	if manager.Running() {
		t.Fatal("manager still reports running")
	}
}

func TestManagerHealth(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := NewManager(cfg, store, &stubHandler{}, nil)

	checks := manager.Health(context.Background())
	if len(checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(checks))
	}
	for _, check := range checks {
		if !check.Ready {
			t.Errorf("check %s not ready: %s", check.Name, check.Detail)
		}
	}
}
