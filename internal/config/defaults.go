package config

const (
	defaultConfigPath             = "~/.config/fetchd/config.toml"
	defaultStateDir               = "~/.local/share/fetchd"
	defaultLogDir                 = "~/.local/share/fetchd/logs"
	defaultSocketPath             = "~/.local/share/fetchd/fetchd.sock"
	defaultDownloadDir            = "~/Downloads"
	defaultRPCListen              = "127.0.0.1:6800"
	defaultSplit                  = 5
	defaultMaxConnPerServer       = 1
	defaultFileAllocation         = "prealloc"
	defaultMaxConcurrentDownloads = 5
	defaultMaxDownloadResult      = 1000
	defaultHistoryRetentionDays   = 30
	defaultHistoryPruneSchedule   = "@daily"
	defaultHistoryRestoreLimit    = 1000
	defaultRedisTTLHours          = 24
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
			SocketPath: defaultSocketPath,
		},
		RPC: RPC{
			Listen:    defaultRPCListen,
			EnableXML: true,
		},
		Download: Download{
			Dir:                    defaultDownloadDir,
			Split:                  defaultSplit,
			MaxConnectionPerServer: defaultMaxConnPerServer,
			FileAllocation:         defaultFileAllocation,
			MaxConcurrentDownloads: defaultMaxConcurrentDownloads,
			MaxDownloadResult:      defaultMaxDownloadResult,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetentionDays,
			PruneSchedule: defaultHistoryPruneSchedule,
			RestoreLimit:  defaultHistoryRestoreLimit,
			RedisTTLHours: defaultRedisTTLHours,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
