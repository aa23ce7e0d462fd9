package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateDataBank(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateSources() error {
	if !strings.HasPrefix(c.Sources.DatasetServerURL, "http://") && !strings.HasPrefix(c.Sources.DatasetServerURL, "https://") {
		return fmt.Errorf("sources.dataset_server_url must be an http(s) URL, got %q", c.Sources.DatasetServerURL)
	}
	if strings.Contains(c.Sources.WikipediaDumpHost, "/") {
		return fmt.Errorf("sources.wikipedia_dump_host must be a bare host name, got %q", c.Sources.WikipediaDumpHost)
	}
	return nil
}

func (c *Config) validateDataBank() error {
	url := strings.TrimSpace(c.DataBank.URL)
	key := strings.TrimSpace(c.DataBank.APIKey)
	if url == "" && key == "" {
		return nil
	}
	// Half-configured upload is rejected up front rather than failing mid-job.
	if url == "" {
		return errors.New("databank.url must be set when databank.api_key is set (or set GLEANER_DATABANK_API_KEY only together with a URL)")
	}
	if key == "" {
		return errors.New("databank.api_key must be set when databank.url is set (or set GLEANER_DATABANK_API_KEY)")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("databank.url must be an http(s) URL, got %q", url)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"sources.request_timeout":       c.Sources.RequestTimeout,
		"langid.download_timeout":       c.LangID.DownloadTimeout,
		"databank.upload_timeout":       c.DataBank.UploadTimeout,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
