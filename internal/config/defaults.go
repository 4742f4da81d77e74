package config

const (
	defaultConfigPath      = "~/.config/golfr/config.toml"
	defaultResolution      = 10
	defaultFPS             = 30
	defaultFormat          = "mp4"
	defaultOnMalformed     = "fail"
	defaultWorkers         = 1
	defaultFFmpegBinary    = "ffmpeg"
	defaultCRF             = 18
	defaultPreset          = "medium"
	defaultHistoryFallback = "~/.local/share/golfr/history.db"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Formats lists the output formats golfr can produce.
var Formats = []string{"mp4", "mkv", "webm", "av1", "gif", "png"}

// MalformedPolicies lists the accepted values for render.on_malformed.
var MalformedPolicies = []string{"fail", "skip"}

func defaultExtensions() []string {
	return []string{".golfr", ".golfr.gz"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Render: Render{
			Resolution:  defaultResolution,
			FPS:         defaultFPS,
			Format:      defaultFormat,
			OnMalformed: defaultOnMalformed,
			Extensions:  defaultExtensions(),
		},
		Batch: Batch{
			Workers: defaultWorkers,
		},
		Encoder: Encoder{
			CRF:    defaultCRF,
			Preset: defaultPreset,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
