package main

import (
	"log/slog"
	"net/http"
	"time"

	"gleaner/internal/config"
	"gleaner/internal/corpus"
	"gleaner/internal/jobs"
	"gleaner/internal/langid"
	"gleaner/internal/process"
	"gleaner/internal/services/databank"
	"gleaner/internal/services/fasttext"
	"gleaner/internal/stream"
	"gleaner/internal/translit"
)

// buildProcessStage wires the acquisition, classification, transliteration,
// and upload services into the single processing stage the workflow drives.
func buildProcessStage(cfg *config.Config, store *jobs.Store, logger *slog.Logger) *process.Stage {
	pageClient := &http.Client{Timeout: time.Duration(cfg.Sources.RequestTimeout) * time.Second}
	// Dump downloads stream for a long time; no overall timeout.
	dumpClient := &http.Client{}

	streamers := map[corpus.Source]corpus.Streamer{
		corpus.SourceOscar: stream.NewOscarStreamer(
			pageClient,
			cfg.Sources.DatasetServerURL,
			cfg.Sources.OscarDataset,
			cfg.Sources.HFToken,
			cfg.Sources.OscarPageSize,
			logger,
		),
		corpus.SourceWikipedia: stream.NewWikipediaStreamer(dumpClient, cfg.Sources.WikipediaDumpHost, logger),
	}

	// The fastText binary is resolved lazily so its absence fails the job
	// that needs it instead of the whole daemon.
	factory := func(modelPath string) (langid.Backend, error) {
		client, err := fasttext.New(cfg.LangID.FastTextBinary)
		if err != nil {
			return nil, err
		}
		return client.Open(modelPath)
	}
	downloadClient := &http.Client{Timeout: time.Duration(cfg.LangID.DownloadTimeout) * time.Second}
	classifier := langid.NewClassifier(cfg.Paths.DataDir, cfg.LangID.PreferLargeModel, downloadClient, factory, logger)

	materializer := corpus.NewMaterializer(cfg.Paths.DataDir, streamers, classifier.BuildFilter, logger)
	registry := translit.NewRegistry(cfg.Translit.RulesDir)
	uploader := databank.New(cfg.DataBank.URL, cfg.DataBank.APIKey,
		time.Duration(cfg.DataBank.UploadTimeout)*time.Second, nil)

	return process.New(cfg, store, materializer, registry, uploader, logger)
}
