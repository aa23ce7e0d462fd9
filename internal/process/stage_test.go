package process

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gleaner/internal/corpus"
	"gleaner/internal/jobs"
	"gleaner/internal/services/databank"
	"gleaner/internal/testsupport"
	"gleaner/internal/translit"
)

type sliceIterator struct {
	lines []string
	pos   int
}

func (it *sliceIterator) Next() (string, error) {
	if it.pos >= len(it.lines) {
		return "", io.EOF
	}
	line := it.lines[it.pos]
	it.pos++
	return line, nil
}

func (it *sliceIterator) Close() error { return nil }

type stubStreamer struct {
	lines []string
	calls int
}

func (s *stubStreamer) Stream(ctx context.Context, lang corpus.Language) (corpus.Iterator, error) {
	s.calls++
	return &sliceIterator{lines: s.lines}, nil
}

type stubUploader struct {
	configured bool
	fileID     string
	err        error
	calls      int
}

func (u *stubUploader) Configured() bool { return u.configured }

func (u *stubUploader) Upload(ctx context.Context, jobID, path string) (string, error) {
	u.calls++
	if u.err != nil {
		return "", u.err
	}
	return u.fileID, nil
}

func newStage(t *testing.T, streamer corpus.Streamer, uploader databank.Client) (*Stage, *jobs.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	materializer := corpus.NewMaterializer(cfg.Paths.DataDir,
		map[corpus.Source]corpus.Streamer{corpus.SourceOscar: streamer}, nil, nil)
	registry := translit.NewRegistry(cfg.Translit.RulesDir)
	return New(cfg, store, materializer, registry, uploader, nil), store
}

func submit(t *testing.T, store *jobs.Store, params string) *jobs.Job {
	t.Helper()
	job, err := store.NewJob(context.Background(), params)
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	return job
}

const basicParams = `{"source":"oscar","language":"uz","max_sentences":2,"transliterate":false,"confidence_threshold":0}`

func TestExecuteHappyPath(t *testing.T) {
	streamer := &stubStreamer{lines: []string{"a", "b", "", "c"}}
	stage, store := newStage(t, streamer, nil)
	job := submit(t, store, basicParams)

	ctx := context.Background()
	if err := stage.Prepare(ctx, job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := stage.Execute(ctx, job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if job.Status != jobs.StatusCompleted || job.Progress != 100 || job.Message != "done" {
		t.Fatalf("terminal fields = %q/%d/%q", job.Status, job.Progress, job.Message)
	}
	data, err := os.ReadFile(job.ResultFile)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	if string(data) != "a\nb\n" {
		t.Fatalf("result contents = %q", data)
	}
	if filepath.Base(job.ResultFile) != job.ID+".txt" {
		t.Fatalf("result path = %q", job.ResultFile)
	}
}

func TestExecuteInvalidParamsFailsJob(t *testing.T) {
	stage, store := newStage(t, &stubStreamer{lines: []string{"x"}}, nil)
	job := submit(t, store, `{"source":"oscar","language":"xx"}`)

	err := stage.Execute(context.Background(), job)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if job.Status != jobs.StatusFailed {
		t.Fatalf("status = %q", job.Status)
	}
	if job.ErrorCode != "validation_error" {
		t.Fatalf("error code = %q", job.ErrorCode)
	}
}

func TestExecuteAcquisitionFailure(t *testing.T) {
	stage, store := newStage(t, &failingStreamer{}, nil)
	job := submit(t, store, basicParams)

	err := stage.Execute(context.Background(), job)
	if err == nil {
		t.Fatal("expected acquisition failure")
	}
	if job.Status != jobs.StatusFailed || job.Message != "download_failed" {
		t.Fatalf("failure fields = %q/%q", job.Status, job.Message)
	}
	if job.ErrorCode != "acquisition_error" {
		t.Fatalf("error code = %q", job.ErrorCode)
	}
}

type failingStreamer struct{}

func (failingStreamer) Stream(ctx context.Context, lang corpus.Language) (corpus.Iterator, error) {
	return nil, errors.New("connection refused")
}

func TestExecuteTransliteratesWhenRequested(t *testing.T) {
	streamer := &stubStreamer{lines: []string{"сс"}}
	cfg := testsupport.NewConfig(t, testsupport.WithRules("kk", "с s\n"))
	store := testsupport.MustOpenStore(t, cfg)
	materializer := corpus.NewMaterializer(cfg.Paths.DataDir,
		map[corpus.Source]corpus.Streamer{corpus.SourceOscar: streamer}, nil, nil)
	stage := New(cfg, store, materializer, translit.NewRegistry(cfg.Translit.RulesDir), nil, nil)

	job := submit(t, store, `{"source":"oscar","language":"kk","transliterate":true,"confidence_threshold":0}`)
	if err := stage.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err := os.ReadFile(job.ResultFile)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "ss" {
		t.Fatalf("transliterated output = %q", data)
	}
}

func TestExecuteMissingRulesFailsJob(t *testing.T) {
	streamer := &stubStreamer{lines: []string{"text"}}
	stage, store := newStage(t, streamer, nil)
	job := submit(t, store, `{"source":"oscar","language":"uz","transliterate":true,"confidence_threshold":0}`)

	if err := stage.Execute(context.Background(), job); err == nil {
		t.Fatal("expected configuration error for missing rules")
	}
	if job.ErrorCode != "configuration_error" {
		t.Fatalf("error code = %q", job.ErrorCode)
	}
}

func TestExecuteUploadGatesCompletion(t *testing.T) {
	streamer := &stubStreamer{lines: []string{"line"}}
	uploader := &stubUploader{configured: true, err: &databank.UploadError{Code: "status_500", Message: "server error"}}
	stage, store := newStage(t, streamer, uploader)
	job := submit(t, store, basicParams)

	if err := stage.Execute(context.Background(), job); err == nil {
		t.Fatal("expected upload failure to propagate")
	}
	if job.Status != jobs.StatusFailed {
		t.Fatalf("status = %q", job.Status)
	}
	if job.ErrorCode != "status_500" {
		t.Fatalf("error code = %q", job.ErrorCode)
	}
	if job.UploadStatus != jobs.UploadFailed {
		t.Fatalf("upload status = %q", job.UploadStatus)
	}
	// The result file stays on disk for inspection and retry.
	if _, err := os.Stat(job.ResultFile); err != nil {
		t.Fatalf("result file missing: %v", err)
	}
}

func TestExecuteUploadSuccessRecordsFileID(t *testing.T) {
	streamer := &stubStreamer{lines: []string{"line"}}
	uploader := &stubUploader{configured: true, fileID: "df-77"}
	stage, store := newStage(t, streamer, uploader)
	job := submit(t, store, basicParams)

	if err := stage.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if job.FileID != "df-77" || job.UploadStatus != jobs.UploadSucceeded {
		t.Fatalf("upload fields = %q/%q", job.FileID, job.UploadStatus)
	}
	if uploader.calls != 1 {
		t.Fatalf("upload calls = %d", uploader.calls)
	}
}

func TestExecuteCheckpointsProgress(t *testing.T) {
	lines := make([]string, 120)
	for i := range lines {
		lines[i] = "sentence"
	}
	streamer := &stubStreamer{lines: lines}
	stage, store := newStage(t, streamer, nil)
	job := submit(t, store, `{"source":"oscar","language":"uz","max_sentences":120,"transliterate":false,"confidence_threshold":0}`)

	if err := stage.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	loaded, err := store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Progress != 100 {
		t.Fatalf("final progress = %d", loaded.Progress)
	}
}
