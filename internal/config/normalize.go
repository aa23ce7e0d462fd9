package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSources()
	if err := c.normalizeLangID(); err != nil {
		return err
	}
	c.normalizeDataBank()
	if err := c.normalizeTranslit(); err != nil {
		return err
	}
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeSources() {
	c.Sources.HFToken = strings.TrimSpace(c.Sources.HFToken)
	if c.Sources.HFToken == "" {
		if value, ok := os.LookupEnv("GLEANER_HF_TOKEN"); ok {
			c.Sources.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Sources.HFToken = strings.TrimSpace(value)
		}
	}
	c.Sources.OscarDataset = strings.TrimSpace(c.Sources.OscarDataset)
	if c.Sources.OscarDataset == "" {
		c.Sources.OscarDataset = defaultOscarDataset
	}
	c.Sources.DatasetServerURL = strings.TrimRight(strings.TrimSpace(c.Sources.DatasetServerURL), "/")
	if c.Sources.DatasetServerURL == "" {
		c.Sources.DatasetServerURL = defaultDatasetServerURL
	}
	c.Sources.WikipediaDumpHost = strings.TrimSpace(c.Sources.WikipediaDumpHost)
	if c.Sources.WikipediaDumpHost == "" {
		c.Sources.WikipediaDumpHost = defaultWikipediaDumpHost
	}
	if c.Sources.RequestTimeout <= 0 {
		c.Sources.RequestTimeout = defaultRequestTimeout
	}
	if c.Sources.OscarPageSize <= 0 {
		c.Sources.OscarPageSize = defaultOscarPageSize
	}
}

func (c *Config) normalizeLangID() error {
	c.LangID.FastTextBinary = strings.TrimSpace(c.LangID.FastTextBinary)
	if c.LangID.FastTextBinary == "" {
		c.LangID.FastTextBinary = defaultFastTextBinary
	}
	if c.LangID.DownloadTimeout <= 0 {
		c.LangID.DownloadTimeout = defaultModelTimeout
	}
	return nil
}

func (c *Config) normalizeDataBank() {
	c.DataBank.URL = strings.TrimRight(strings.TrimSpace(c.DataBank.URL), "/")
	c.DataBank.APIKey = strings.TrimSpace(c.DataBank.APIKey)
	if c.DataBank.APIKey == "" {
		if value, ok := os.LookupEnv("GLEANER_DATABANK_API_KEY"); ok {
			c.DataBank.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("DATABANK_API_KEY"); ok {
			c.DataBank.APIKey = strings.TrimSpace(value)
		}
	}
	if c.DataBank.UploadTimeout <= 0 {
		c.DataBank.UploadTimeout = defaultUploadTimeout
	}
}

func (c *Config) normalizeTranslit() error {
	var err error
	if strings.TrimSpace(c.Translit.RulesDir) == "" {
		c.Translit.RulesDir = defaultRulesDir
	}
	if c.Translit.RulesDir, err = expandPath(c.Translit.RulesDir); err != nil {
		return fmt.Errorf("translit.rules_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
