package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"golfr/internal/failure"
	"golfr/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that golfr can convert with the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg := *base
			if format = strings.ToLower(strings.TrimSpace(format)); format != "" {
				cfg.Render.Format = format
				if err := cfg.Validate(); err != nil {
					return failure.Wrap(failure.ErrConfiguration, "", 0, "--format", err)
				}
			}

			results := preflight.RunAll(cmd.Context(), &cfg)
			if ctx.JSONMode() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					status := "passed"
					if !r.Passed {
						status = "failed"
					}
					rows = append(rows, []string{r.Name, titleLabel(status), r.Detail})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
				fmt.Fprintf(out, "Format: %s (ffmpeg required: %s)\n", cfg.Render.Format, yesNo(cfg.RequiresFFmpeg()))
				fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return errors.New(plural(int64(len(failed)), "1 check failed", fmt.Sprintf("%d checks failed", len(failed))))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Check requirements for this output format instead of the configured one")
	return cmd
}
