package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRender() error {
	if err := ensurePositiveMap(map[string]int{
		"render.resolution": c.Render.Resolution,
		"render.fps":        c.Render.FPS,
	}); err != nil {
		return err
	}
	if !slices.Contains(Formats, c.Render.Format) {
		return fmt.Errorf("render.format %q is not one of %s", c.Render.Format, strings.Join(Formats, ", "))
	}
	if !slices.Contains(MalformedPolicies, c.Render.OnMalformed) {
		return fmt.Errorf("render.on_malformed %q must be one of %s", c.Render.OnMalformed, strings.Join(MalformedPolicies, ", "))
	}
	if len(c.Render.Extensions) == 0 {
		return errors.New("render.extensions must include at least one extension")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Workers < 1 {
		return errors.New("batch.workers must be >= 1")
	}
	if c.Batch.SkipUnchanged && !c.History.Enabled {
		return errors.New("batch.skip_unchanged requires history.enabled")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.CRF < 0 || c.Encoder.CRF > 63 {
		return errors.New("encoder.crf must be between 0 and 63")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
