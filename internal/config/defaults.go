package config

const (
	defaultDataDir         = "~/.local/share/mediasort"
	defaultLogDir          = "~/.local/share/mediasort/logs"
	defaultTransferMode    = "copy"
	defaultCompareContent  = true
	defaultCompareChunkKiB = 64
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultHistoryLimit    = 10
	defaultCheckpointEvery = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Transfer: Transfer{
			Mode:            defaultTransferMode,
			CompareContent:  defaultCompareContent,
			CompareChunkKiB: defaultCompareChunkKiB,
		},
		Logging: Logging{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
		History: History{
			HistoryLimit: defaultHistoryLimit,
		},
		Progress: Progress{
			CheckpointEvery: defaultCheckpointEvery,
		},
	}
}
