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

// Render contains settings that shape every frame and the output stream.
type Render struct {
	Resolution  int      `toml:"resolution"`
	FPS         int      `toml:"fps"`
	Format      string   `toml:"format"`
	OnMalformed string   `toml:"on_malformed"`
	Extensions  []string `toml:"extensions"`
}

// Output controls where converted files are written.
type Output struct {
	// Dir is the destination directory. Empty writes next to each input.
	Dir       string `toml:"dir"`
	Overwrite bool   `toml:"overwrite"`
}

// Batch contains directory-mode settings.
type Batch struct {
	Workers       int  `toml:"workers"`
	SkipUnchanged bool `toml:"skip_unchanged"`
}

// Encoder contains settings passed to external encoders.
type Encoder struct {
	FFmpegBinary string `toml:"ffmpeg_binary"`
	CRF          int    `toml:"crf"`
	Preset       string `toml:"preset"`
}

// History contains settings for the conversion ledger.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// Dir receives golfr.log in addition to stderr when set.
	Dir string `toml:"dir"`
}

// Config encapsulates all configuration values for golfr.
//
// Configuration sections:
//   - Render: magnification, frame rate, output format, malformed-line policy
//   - Output: destination directory and overwrite behaviour
//   - Batch: directory-mode worker count and skip-unchanged
//   - Encoder: ffmpeg binary and quality knobs
//   - History: SQLite conversion ledger
//   - Logging: log format, level and optional log directory
type Config struct {
	Render  Render  `toml:"render"`
	Output  Output  `toml:"output"`
	Batch   Batch   `toml:"batch"`
	Encoder Encoder `toml:"encoder"`
	History History `toml:"history"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
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
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strings.TrimSpace(strict.String()))
			}
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

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("golfr.toml")
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

// EnsureDirectories creates the directories golfr writes into. Output.Dir is
// only created when configured; an empty value means "next to the input".
func (c *Config) EnsureDirectories() error {
	dirs := []string{}
	if c.Output.Dir != "" {
		dirs = append(dirs, c.Output.Dir)
	}
	if c.Logging.Dir != "" {
		dirs = append(dirs, c.Logging.Dir)
	}
	if c.History.Enabled && c.History.Path != "" {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used by the video sinks.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Encoder.FFmpegBinary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// RequiresFFmpeg reports whether the configured format shells out to ffmpeg.
func (c *Config) RequiresFFmpeg() bool {
	switch c.Render.Format {
	case "gif", "png":
		return false
	default:
		return true
	}
}

// HasExtension reports whether name carries one of the recognized recording
// extensions and returns the matched extension.
func (c *Config) HasExtension(name string) (string, bool) {
	lower := strings.ToLower(name)
	best := ""
	for _, ext := range c.Render.Extensions {
		if strings.HasSuffix(lower, ext) && len(ext) > len(best) && len(lower) > len(ext) {
			best = ext
		}
	}
	return best, best != ""
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

func defaultHistoryPath() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "golfr", "history.db")
	}
	return defaultHistoryFallback
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

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	var b strings.Builder
	enc := toml.NewEncoder(&b)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return []byte(b.String()), nil
}
