package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gleaner/internal/jobs"
	"gleaner/internal/stage"
	"gleaner/internal/testsupport"
	"gleaner/internal/workflow"
)

type idleHandler struct{}

func (idleHandler) Prepare(ctx context.Context, job *jobs.Job) error { return nil }

func (idleHandler) Execute(ctx context.Context, job *jobs.Job) error {
	job.Status = jobs.StatusCompleted
	job.Progress = 100
	job.Message = "done"
	return nil
}

func (idleHandler) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("process")
}

func startDaemon(t *testing.T, opts ...testsupport.ConfigOption) (*Daemon, *jobs.Store, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Workflow.QueuePollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)
	manager := workflow.NewManager(cfg, store, idleHandler{}, nil)
	d, err := New(cfg, store, nil, manager)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)
	return d, store, "http://" + d.APIAddr()
}

func TestSubmitAndFetchJob(t *testing.T) {
	_, _, base := startDaemon(t)

	body := bytes.NewBufferString(`{"source":"oscar","language":"kk","max_sentences":10}`)
	resp, err := http.Post(base+"/api/v1/jobs", "application/json", body)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var created struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.JobID == "" || created.Status != "queued" {
		t.Fatalf("created = %+v", created)
	}

	get, err := http.Get(base + "/api/v1/jobs/" + created.JobID)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer get.Body.Close()
	if get.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", get.StatusCode)
	}
	var view struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(get.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	if view.JobID != created.JobID {
		t.Fatalf("view = %+v", view)
	}
}

func TestSubmitRejectsInvalidParams(t *testing.T) {
	_, _, base := startDaemon(t)

	for _, payload := range []string{
		`{"source":"gutenberg","language":"kk"}`,
		`{"source":"oscar","language":"kk","max_sentences":0}`,
		`{"source":"oscar","language":"kk","script":"Hieroglyphic"}`,
		`not json`,
	} {
		resp, err := http.Post(base+"/api/v1/jobs", "application/json", bytes.NewBufferString(payload))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("payload %q: status = %d, want 400", payload, resp.StatusCode)
		}
	}
}

func TestMissingJobReturns404(t *testing.T) {
	_, _, base := startDaemon(t)
	resp, err := http.Get(base + "/api/v1/jobs/does-not-exist")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestBearerAuth(t *testing.T) {
	_, _, base := startDaemon(t, testsupport.WithAPIToken("sekrit"))

	resp, err := http.Get(base + "/api/v1/jobs")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodGet, base+"/api/v1/jobs", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer sekrit")
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Fatalf("authenticated status = %d", authed.StatusCode)
	}

	// Health stays open for probes.
	health, err := http.Get(base + "/api/v1/health")
	if err != nil {
		t.Fatal(err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", health.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, _, base := startDaemon(t)
	resp, err := http.Get(base + "/api/v1/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var payload struct {
		Status string `json:"status"`
		Checks []struct {
			Name  string `json:"name"`
			Ready bool   `json:"ready"`
		} `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload.Status != "healthy" {
		t.Fatalf("status = %q", payload.Status)
	}
	if len(payload.Checks) == 0 {
		t.Fatal("expected checks")
	}
}

func TestResultEndpoint(t *testing.T) {
	_, store, base := startDaemon(t)

	job, err := store.NewJob(context.Background(), `{}`)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/jobs/%s/result", base, job.ID))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("pending result status = %d", resp.StatusCode)
	}

	resultPath := filepath.Join(t.TempDir(), job.ID+".txt")
	if err := os.WriteFile(resultPath, []byte("first line\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	job.Status = jobs.StatusCompleted
	job.Progress = 100
	job.ResultFile = resultPath
	if err := store.Update(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	done, err := http.Get(fmt.Sprintf("%s/api/v1/jobs/%s/result", base, job.ID))
	if err != nil {
		t.Fatal(err)
	}
	defer done.Body.Close()
	if done.StatusCode != http.StatusOK {
		t.Fatalf("result status = %d", done.StatusCode)
	}
}

func TestSecondInstanceRefused(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)

	first, err := New(cfg, store, nil, workflow.NewManager(cfg, store, idleHandler{}, nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()

	secondCfg := *cfg
	second, err := New(&secondCfg, store, nil, workflow.NewManager(cfg, store, idleHandler{}, nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second instance to be refused")
	}
}

func TestJobEventuallyProcessed(t *testing.T) {
	_, store, base := startDaemon(t)

	resp, err := http.Post(base+"/api/v1/jobs", "application/json",
		bytes.NewBufferString(`{"source":"wikipedia","language":"tr"}`))
	if err != nil {
		t.Fatal(err)
	}
	var created struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetByID(context.Background(), created.JobID)
		if err != nil {
			t.Fatal(err)
		}
		if job != nil && job.Status == jobs.StatusCompleted {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job never completed")
}
