package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeRender()
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	c.normalizeBatch()
	c.normalizeEncoder()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeRender() {
	c.Render.Format = strings.ToLower(strings.TrimSpace(c.Render.Format))
	if c.Render.Format == "" {
		c.Render.Format = defaultFormat
	}
	c.Render.OnMalformed = strings.ToLower(strings.TrimSpace(c.Render.OnMalformed))
	if c.Render.OnMalformed == "" {
		c.Render.OnMalformed = defaultOnMalformed
	}
	exts := make([]string, 0, len(c.Render.Extensions))
	seen := make(map[string]struct{}, len(c.Render.Extensions))
	for _, ext := range c.Render.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = defaultExtensions()
	}
	c.Render.Extensions = exts
}

func (c *Config) normalizeOutput() error {
	var err error
	if c.Output.Dir, err = expandPath(strings.TrimSpace(c.Output.Dir)); err != nil {
		return fmt.Errorf("output.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBatch() {
	if c.Batch.Workers == 0 {
		c.Batch.Workers = defaultWorkers
	}
}

func (c *Config) normalizeEncoder() {
	c.Encoder.FFmpegBinary = strings.TrimSpace(c.Encoder.FFmpegBinary)
	if c.Encoder.FFmpegBinary == "" {
		if value, ok := os.LookupEnv("GOLFR_FFMPEG"); ok && strings.TrimSpace(value) != "" {
			c.Encoder.FFmpegBinary = strings.TrimSpace(value)
		} else {
			c.Encoder.FFmpegBinary = defaultFFmpegBinary
		}
	}
	c.Encoder.Preset = strings.ToLower(strings.TrimSpace(c.Encoder.Preset))
	if c.Encoder.Preset == "" {
		c.Encoder.Preset = defaultPreset
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath()
	}
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
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
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
