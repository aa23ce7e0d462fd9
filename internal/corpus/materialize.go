package corpus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"gleaner/internal/logging"
	"gleaner/internal/services"
)

// ErrNoSentences reports that a materialization produced zero surviving
// sentences. The destination file is removed so a poisoned empty corpus can
// never be cached.
var ErrNoSentences = errors.New("no sentences written for the requested corpus")

const lockRetryDelay = 250 * time.Millisecond

// Materializer downloads, filters, and caches corpus files on local disk.
// Files are keyed by (source, language) only: the first successful
// materialization wins and later requests reuse it regardless of the filter
// settings they carry.
type Materializer struct {
	dataDir   string
	streamers map[Source]Streamer
	filters   FilterBuilder
	logger    *slog.Logger
}

// NewMaterializer wires a materializer with one streamer per source. The
// filter builder may be nil when no filtering capability is available; in
// that case jobs requesting a filter fail with a configuration error.
func NewMaterializer(dataDir string, streamers map[Source]Streamer, filters FilterBuilder, logger *slog.Logger) *Materializer {
	return &Materializer{
		dataDir:   dataDir,
		streamers: streamers,
		filters:   filters,
		logger:    logging.NewComponentLogger(logger, "materializer"),
	}
}

// Path returns the canonical cache location for the given spec.
func (m *Materializer) Path(spec ProcessSpec) string {
	return filepath.Join(m.dataDir, "corpus", fmt.Sprintf("%s_%s.txt", spec.Source, spec.Language))
}

// Ensure guarantees a local corpus file exists for the spec and returns its
// path. An existing file is reused as-is; otherwise the remote source is
// streamed, optionally filtered, and at most spec.MaxSentences lines are
// written. The file is staged under a temporary name and renamed into place
// so a crash mid-write never leaves a truncated cache entry.
func (m *Materializer) Ensure(ctx context.Context, spec ProcessSpec, script Script) (string, error) {
	path := m.Path(spec)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create corpus directory: %w", err)
	}
	if fileExists(path) {
		return path, nil
	}

	// Advisory per-key lock so two jobs racing on the same uncached
	// (source, language) pair stream the corpus once, not twice.
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return "", fmt.Errorf("acquire corpus lock: %w", err)
	}
	if !locked {
		return "", fmt.Errorf("acquire corpus lock for %s: not granted", path)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	// Another worker may have finished while we waited on the lock.
	if fileExists(path) {
		return path, nil
	}

	streamer, ok := m.streamers[spec.Source]
	if !ok {
		return "", services.Wrap(services.ErrConfiguration, "materialize", "select source",
			fmt.Sprintf("unsupported corpus source %q", spec.Source), nil)
	}

	iter, err := streamer.Stream(ctx, spec.Language)
	if err != nil {
		return "", services.Wrap(services.ErrAcquisition, "materialize", "open stream", string(spec.Source), err)
	}
	defer iter.Close()

	keep, err := m.buildFilter(ctx, spec, script)
	if err != nil {
		return "", err
	}

	start := time.Now()
	written, err := m.writeLines(path, iter, keep, spec.MaxSentences)
	if err != nil {
		return "", services.Wrap(services.ErrAcquisition, "materialize", "stream corpus", string(spec.Source), err)
	}
	if written == 0 {
		return "", services.Wrap(services.ErrAcquisition, "materialize", "write corpus", "", ErrNoSentences)
	}

	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		m.logger.Warn("touch corpus mtime failed", logging.String("path", path), logging.Error(err))
	}
	m.logger.Info("corpus materialized",
		logging.String("path", path),
		logging.String("source", string(spec.Source)),
		logging.String("language", string(spec.Language)),
		logging.Int("sentences", written),
		logging.Duration("elapsed", time.Since(start)),
	)
	return path, nil
}

func (m *Materializer) buildFilter(ctx context.Context, spec ProcessSpec, script Script) (func(string) bool, error) {
	if spec.ConfidenceThreshold <= 0 && script == "" {
		return nil, nil
	}
	if m.filters == nil {
		return nil, services.Wrap(services.ErrConfiguration, "materialize", "build filter",
			"language filtering requested but no classifier is configured", nil)
	}
	keep, err := m.filters(ctx, spec.Language, script, spec.ConfidenceThreshold)
	if err != nil {
		return nil, services.Wrap(services.ErrAcquisition, "materialize", "build filter", "", err)
	}
	return keep, nil
}

// writeLines drains the iterator into a temp file next to dest, applying the
// keep predicate when present, and renames the file into place on success.
// The temp file is removed on every failure path, including zero yield.
func (m *Materializer) writeLines(dest string, iter Iterator, keep func(string) bool, limit int) (int, error) {
	tmp := fmt.Sprintf("%s.tmp-%d", dest, os.Getpid())
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create temp corpus file: %w", err)
	}

	cleanup := func() {
		_ = file.Close()
		_ = os.Remove(tmp)
	}

	writer := bufio.NewWriter(file)
	written := 0
	for written < limit {
		sentence, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			cleanup()
			return 0, err
		}
		if keep != nil && !keep(sentence) {
			continue
		}
		line := strings.TrimSpace(flattenWhitespace(sentence))
		if _, err := writer.WriteString(line + "\n"); err != nil {
			cleanup()
			return 0, fmt.Errorf("write corpus line: %w", err)
		}
		written++
	}

	if written == 0 {
		cleanup()
		return 0, nil
	}
	if err := writer.Flush(); err != nil {
		cleanup()
		return 0, fmt.Errorf("flush corpus file: %w", err)
	}
	if err := file.Sync(); err != nil {
		cleanup()
		return 0, fmt.Errorf("sync corpus file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("close corpus file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("finalize corpus file: %w", err)
	}
	return written, nil
}

func flattenWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
