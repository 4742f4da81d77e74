package preflight

import (
	"context"
	"path/filepath"

	"golfr/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if cfg.RequiresFFmpeg() {
		results = append(results, CheckFFmpeg(ctx, cfg.FFmpegBinary()))
	}

	// Output directory (when configured; otherwise outputs land next to inputs)
	if cfg.Output.Dir != "" {
		results = append(results, CheckCreatableDirectory("Output directory", cfg.Output.Dir))
	}

	if cfg.Logging.Dir != "" {
		results = append(results, CheckCreatableDirectory("Log directory", cfg.Logging.Dir))
	}

	if cfg.History.Enabled && cfg.History.Path != "" {
		results = append(results, CheckCreatableDirectory("History directory", filepath.Dir(cfg.History.Path)))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
