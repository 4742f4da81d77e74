package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"golfr/internal/config"
	"golfr/internal/failure"
	"golfr/internal/history"
	"golfr/internal/logging"
)

type globalFlags struct {
	config    string
	logLevel  string
	logFormat string
	json      bool
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = failure.Wrap(failure.ErrConfiguration, path, 0, "load config", err)
			return
		}
		if level := strings.ToLower(strings.TrimSpace(c.flags.logLevel)); level != "" {
			cfg.Logging.Level = level
		}
		if format := strings.ToLower(strings.TrimSpace(c.flags.logFormat)); format != "" {
			cfg.Logging.Format = format
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = failure.Wrap(failure.ErrConfiguration, path, 0, "", err)
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

// loggerFor builds the process logger from cfg on first use. Later calls
// return the same logger regardless of cfg.
func (c *commandContext) loggerFor(cfg *config.Config) (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
		if c.loggerErr != nil {
			c.loggerErr = failure.Wrap(failure.ErrConfiguration, "", 0, "init logger", c.loggerErr)
		}
	})
	return c.logger, c.loggerErr
}

// openHistory opens the ledger configured in cfg. It returns nil without an
// error when the ledger is disabled.
func (c *commandContext) openHistory(cfg *config.Config) (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, failure.Wrap(failure.ErrIO, cfg.History.Path, 0, "open history", err)
	}
	return store, nil
}

// JSONMode reports whether --json was passed.
func (c *commandContext) JSONMode() bool {
	return c.flags.json
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func requireHistory(cfg *config.Config) error {
	if !cfg.History.Enabled {
		return failure.Errorf(failure.ErrConfiguration, "", 0, "history is disabled (set history.enabled = true)")
	}
	return nil
}
