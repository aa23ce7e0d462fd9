package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Sources contains configuration for the remote corpus sources.
type Sources struct {
	HFToken           string `toml:"hf_token"`
	OscarDataset      string `toml:"oscar_dataset"`
	DatasetServerURL  string `toml:"dataset_server_url"`
	WikipediaDumpHost string `toml:"wikipedia_dump_host"`
	RequestTimeout    int    `toml:"request_timeout"`
	OscarPageSize     int    `toml:"oscar_page_size"`
}

// LangID contains configuration for the language-identification classifier.
type LangID struct {
	PreferLargeModel bool   `toml:"prefer_large_model"`
	FastTextBinary   string `toml:"fasttext_binary"`
	DownloadTimeout  int    `toml:"download_timeout"`
}

// DataBank contains configuration for the optional result upload endpoint.
type DataBank struct {
	URL           string `toml:"url"`
	APIKey        string `toml:"api_key"`
	UploadTimeout int    `toml:"upload_timeout"`
}

// Translit contains configuration for the transliteration rule tables.
type Translit struct {
	RulesDir string `toml:"rules_dir"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Gleaner.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Sources: remote corpus source endpoints and credentials
//   - LangID: classifier model variant and fasttext binary
//   - DataBank: optional result upload endpoint
//   - Translit: transliteration rule table location
//   - Workflow: daemon polling intervals
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	Sources  Sources  `toml:"sources"`
	LangID   LangID   `toml:"langid"`
	DataBank DataBank `toml:"databank"`
	Translit Translit `toml:"translit"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/gleaner/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/gleaner/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("gleaner.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// CorpusDir returns the corpus cache directory under the data root.
func (c *Config) CorpusDir() string {
	return filepath.Join(c.Paths.DataDir, "corpus")
}

// ModelsDir returns the classifier model directory under the data root.
func (c *Config) ModelsDir() string {
	return filepath.Join(c.Paths.DataDir, "models")
}

// ResultsDir returns the job result artifact directory under the data root.
func (c *Config) ResultsDir() string {
	return filepath.Join(c.Paths.DataDir, "results")
}

// UploadConfigured reports whether both data-bank settings are present.
// Upload is skipped entirely when either value is blank.
func (c *Config) UploadConfigured() bool {
	return strings.TrimSpace(c.DataBank.URL) != "" && strings.TrimSpace(c.DataBank.APIKey) != ""
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.DataDir,
		c.Paths.LogDir,
		c.CorpusDir(),
		c.ModelsDir(),
		c.ResultsDir(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
