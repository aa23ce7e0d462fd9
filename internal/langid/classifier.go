package langid

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"gleaner/internal/corpus"
	"gleaner/internal/logging"
	"gleaner/internal/services"
)

// RawPrediction is a single top-1 prediction as produced by a backend,
// label still in classifier form (e.g. "__label__kaz_Cyrl").
type RawPrediction struct {
	Label       string
	Probability float64
}

// Backend evaluates the language-identification model against one sentence.
type Backend interface {
	Predict(ctx context.Context, text string) (RawPrediction, error)
}

// BackendFactory opens a Backend for the model stored at modelPath.
type BackendFactory func(modelPath string) (Backend, error)

// Classifier lazily downloads the configured model and hands out filter
// predicates built on top of it. Backends are cached per resolved model
// path so repeated jobs reuse the loaded model.
type Classifier struct {
	dataDir     string
	preferLarge bool
	client      *http.Client
	factory     BackendFactory
	logger      *slog.Logger

	mu       sync.Mutex
	backends map[string]Backend
}

// NewClassifier builds a classifier rooted at dataDir. The client is used
// for one-time model downloads and may be nil.
func NewClassifier(dataDir string, preferLarge bool, client *http.Client, factory BackendFactory, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Classifier{
		dataDir:     dataDir,
		preferLarge: preferLarge,
		client:      client,
		factory:     factory,
		logger:      logger,
		backends:    make(map[string]Backend),
	}
}

func (c *Classifier) backend(ctx context.Context) (Backend, error) {
	path, err := EnsureModel(ctx, c.client, c.dataDir, c.preferLarge)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "langid", "ensure_model", "classifier model unavailable", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if backend, ok := c.backends[path]; ok {
		return backend, nil
	}
	backend, err := c.factory(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "langid", "open_model", "classifier backend unavailable", err)
	}
	c.backends[path] = backend
	c.logger.Info("classifier model loaded", slog.String("model", path))
	return backend, nil
}

// BuildFilter satisfies corpus.FilterBuilder. The returned predicate keeps a
// sentence only when the predicted language matches, the predicted script
// matches (an empty script accepts any), and the top-1 probability clears
// the threshold. Backend errors reject the sentence rather than aborting
// the run.
func (c *Classifier) BuildFilter(ctx context.Context, lang corpus.Language, script corpus.Script, threshold float64) (func(string) bool, error) {
	backend, err := c.backend(ctx)
	if err != nil {
		return nil, err
	}
	logger := c.logger
	return func(text string) bool {
		pred, err := backend.Predict(ctx, strings.ReplaceAll(text, "\n", " "))
		if err != nil {
			logger.Debug("prediction failed, sentence dropped", logging.Error(err))
			return false
		}
		predLang, predScript := ParseLabel(pred.Label)
		if predLang != string(lang) {
			return false
		}
		if script != "" && predScript != string(script) {
			return false
		}
		return pred.Probability >= threshold
	}, nil
}
