package preflight

import (
	"context"

	"gleaner/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// MinFreeBytes is the free-space floor for the data directory. Corpus
// dumps are large; refusing to start beats failing mid-download.
const MinFreeBytes = 1 << 30 // 1 GiB

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckDiskSpace("Data disk space", cfg.Paths.DataDir, MinFreeBytes))
	results = append(results, CheckBinary("fastText", cfg.LangID.FastTextBinary))

	if cfg.Translit.RulesDir != "" {
		results = append(results, CheckDirectoryAccess("Transliteration rules", cfg.Translit.RulesDir))
	}
	if cfg.UploadConfigured() {
		results = append(results, CheckDataBank(ctx, cfg.DataBank.URL, cfg.DataBank.APIKey))
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
