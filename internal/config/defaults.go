package config

const (
	defaultDataDir            = "~/.local/share/gleaner/data"
	defaultLogDir             = "~/.local/share/gleaner/logs"
	defaultAPIBind            = "127.0.0.1:7319"
	defaultOscarDataset       = "oscar-corpus/OSCAR-2301"
	defaultDatasetServerURL   = "https://datasets-server.huggingface.co"
	defaultWikipediaDumpHost  = "dumps.wikimedia.org"
	defaultRequestTimeout     = 30
	defaultOscarPageSize      = 100
	defaultFastTextBinary     = "fasttext"
	defaultModelTimeout       = 300
	defaultUploadTimeout      = 600
	defaultRulesDir           = "~/.local/share/gleaner/rules"
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Sources: Sources{
			OscarDataset:      defaultOscarDataset,
			DatasetServerURL:  defaultDatasetServerURL,
			WikipediaDumpHost: defaultWikipediaDumpHost,
			RequestTimeout:    defaultRequestTimeout,
			OscarPageSize:     defaultOscarPageSize,
		},
		LangID: LangID{
			PreferLargeModel: true,
			FastTextBinary:   defaultFastTextBinary,
			DownloadTimeout:  defaultModelTimeout,
		},
		DataBank: DataBank{
			UploadTimeout: defaultUploadTimeout,
		},
		Translit: Translit{
			RulesDir: defaultRulesDir,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
