package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"golfr/internal/config"
	"golfr/internal/convert"
	"golfr/internal/failure"
)

func newSnapshotCommand(ctx *commandContext) *cobra.Command {
	var (
		output     string
		resolution int
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot <recording> <frame>",
		Short: "Render a single frame (1-based) of a recording to PNG",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return failure.Errorf(failure.ErrConfiguration, "", 0, "frame number %q is not an integer", args[1])
			}

			cfg := *base
			// Snapshots are always PNG; the configured video format is irrelevant.
			cfg.Render.Format = "png"
			if cmd.Flags().Changed("resolution") {
				cfg.Render.Resolution = resolution
			}
			if cmd.Flags().Changed("overwrite") {
				cfg.Output.Overwrite = overwrite
			}
			logger, err := ctx.loggerFor(&cfg)
			if err != nil {
				return err
			}
			converter, err := convert.New(&cfg, convert.WithLogger(logger))
			if err != nil {
				return err
			}

			target := converter.SnapshotPath(args[0], n)
			if strings.TrimSpace(output) != "" {
				if target, err = config.ExpandPath(strings.TrimSpace(output)); err != nil {
					return failure.Wrap(failure.ErrConfiguration, "", 0, "--output", err)
				}
			}

			frame, err := converter.Snapshot(cmd.Context(), args[0], n, target)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote frame %d (%dx%d) to %s\n", n, frame.Width, frame.Height, target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG path (default: <stem>_frame_<n>.png in the output directory)")
	cmd.Flags().IntVarP(&resolution, "resolution", "r", 0, "Pixels per grid cell along each axis")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing PNG")
	return cmd
}
