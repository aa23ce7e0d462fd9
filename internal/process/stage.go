package process

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gleaner/internal/config"
	"gleaner/internal/corpus"
	"gleaner/internal/jobs"
	"gleaner/internal/logging"
	"gleaner/internal/services"
	"gleaner/internal/services/databank"
	"gleaner/internal/stage"
	"gleaner/internal/translit"
)

// Progress is checkpointed every checkpointInterval written lines, clamped
// below 100 so only a finished job reads as complete.
const (
	checkpointInterval = 50
	maxRunningProgress = 99
)

// Stage runs one corpus-processing job end to end: validate parameters,
// materialize the corpus, write the bounded (optionally transliterated)
// result file, and gate completion on the data bank upload.
type Stage struct {
	cfg          *config.Config
	store        *jobs.Store
	materializer *corpus.Materializer
	local        *corpus.LocalCorpus
	translits    *translit.Registry
	uploader     databank.Client
	logger       *slog.Logger
}

func New(cfg *config.Config, store *jobs.Store, materializer *corpus.Materializer, translits *translit.Registry, uploader databank.Client, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stage{
		cfg:          cfg,
		store:        store,
		materializer: materializer,
		local:        corpus.NewLocalCorpus(cfg.Paths.DataDir),
		translits:    translits,
		uploader:     uploader,
		logger:       logger,
	}
}

// Prepare makes sure the result directory exists before Execute runs.
func (s *Stage) Prepare(ctx context.Context, job *jobs.Job) error {
	if err := os.MkdirAll(s.cfg.ResultsDir(), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "process", "prepare", "create results directory", err)
	}
	return nil
}

// Execute drives the job to a terminal state. Intermediate progress is
// persisted as it happens; the caller persists the terminal fields set on
// job when Execute returns.
func (s *Stage) Execute(ctx context.Context, job *jobs.Job) error {
	logger := s.logger.With(slog.String(logging.FieldJobID, job.ID))
	ctx = services.WithJobID(ctx, job.ID)

	job.Status = jobs.StatusProcessing
	job.Progress = 0
	job.Message = "started"
	if err := s.store.Update(ctx, job); err != nil {
		return services.Wrap(services.ErrTransient, "process", "start", "record job start", err)
	}

	spec, script, err := parseJobParams(job.ParamsJSON)
	if err != nil {
		job.SetFailure(err.Error(), services.Kind(err))
		return err
	}
	logger.Info("processing job",
		slog.String("source", string(spec.Source)),
		slog.String("language", string(spec.Language)),
		slog.Int("max_sentences", spec.MaxSentences))

	if _, err := s.materializer.Ensure(ctx, spec, script); err != nil {
		job.SetFailure("download_failed", services.Kind(err))
		return err
	}

	var transliterate translit.Transliterator
	if spec.Transliterate {
		transliterate, err = s.translits.For(string(spec.Language))
		if err != nil {
			job.SetFailure("transliteration unavailable", services.Kind(err))
			return err
		}
	}

	resultPath := filepath.Join(s.cfg.ResultsDir(), job.ID+".txt")
	written, err := s.writeResult(ctx, job, spec, transliterate, resultPath)
	if err != nil {
		job.SetFailure("processing_failed", services.Kind(err))
		return err
	}
	job.ResultFile = resultPath
	logger.Info("result file written", slog.Int("lines", written), slog.String("path", resultPath))

	if s.uploader != nil && s.uploader.Configured() {
		fileID, err := s.uploader.Upload(ctx, job.ID, resultPath)
		if err != nil {
			job.UploadStatus = jobs.UploadFailed
			job.SetFailure("upload_failed", uploadCode(err))
			return err
		}
		job.FileID = fileID
		job.UploadStatus = jobs.UploadSucceeded
		logger.Info("result uploaded", slog.String("file_id", fileID))
	}

	job.Status = jobs.StatusCompleted
	job.Progress = 100
	job.Message = "done"
	if err := s.store.Update(ctx, job); err != nil {
		return services.Wrap(services.ErrTransient, "process", "finish", "record job completion", err)
	}
	return nil
}

// HealthCheck verifies the pieces Execute depends on.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	const name = "process"
	if err := s.store.CheckHealth(ctx); err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	if err := os.MkdirAll(s.cfg.ResultsDir(), 0o755); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("results directory: %v", err))
	}
	return stage.Healthy(name)
}

func parseJobParams(paramsJSON string) (corpus.ProcessSpec, corpus.Script, error) {
	var params map[string]any
	if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
		return corpus.ProcessSpec{}, "", services.Wrap(services.ErrValidation, "process", "parse_params", "job parameters are not a JSON object", err)
	}
	return corpus.ParseParams(params)
}

func (s *Stage) writeResult(ctx context.Context, job *jobs.Job, spec corpus.ProcessSpec, transliterate translit.Transliterator, dest string) (int, error) {
	tmp := fmt.Sprintf("%s.tmp-%d", dest, os.Getpid())
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create result file: %w", err)
	}
	cleanup := func() {
		_ = file.Close()
		_ = os.Remove(tmp)
	}

	writer := bufio.NewWriter(file)
	written := 0
	err = s.local.Lines(spec, func(line string) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if transliterate != nil {
			converted, err := transliterate.Transliterate(line)
			if err != nil {
				return false, fmt.Errorf("transliterate line: %w", err)
			}
			line = converted
		}
		if _, err := writer.WriteString(line + "\n"); err != nil {
			return false, fmt.Errorf("write result line: %w", err)
		}
		written++
		if written%checkpointInterval == 0 {
			progress := min(maxRunningProgress, written)
			if err := s.store.SetProgress(ctx, job.ID, progress, "processing"); err != nil {
				return false, fmt.Errorf("checkpoint progress: %w", err)
			}
			job.Progress = progress
		}
		return true, nil
	})
	if err != nil {
		cleanup()
		return 0, err
	}
	if err := writer.Flush(); err != nil {
		cleanup()
		return 0, fmt.Errorf("flush result file: %w", err)
	}
	if err := file.Sync(); err != nil {
		cleanup()
		return 0, fmt.Errorf("sync result file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("close result file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("finalize result file: %w", err)
	}
	return written, nil
}

func uploadCode(err error) string {
	var uploadErr *databank.UploadError
	if errors.As(err, &uploadErr) {
		return uploadErr.Code
	}
	return services.Kind(err)
}
