package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"golfr/internal/logging"
	"golfr/internal/staging"
)

const defaultStaleAge = 24 * time.Hour

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var (
		olderThan time.Duration
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "clean [directory]",
		Short: "Remove partial outputs left behind by interrupted conversions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir := cfg.Output.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return fmt.Errorf("no directory given and output.dir is not set")
			}
			out := cmd.OutOrStdout()

			if dryRun {
				leftovers, err := staging.List(dir)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(leftovers))
				for _, l := range leftovers {
					if time.Since(l.ModTime) < olderThan {
						continue
					}
					rows = append(rows, leftoverRow(l))
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, "Nothing to clean")
					return nil
				}
				fmt.Fprintln(out, renderTable([]string{"Artifact", "Kind", "Age", "Size"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
				return nil
			}

			logger, err := ctx.loggerFor(cfg)
			if err != nil {
				return err
			}
			result := staging.CleanStale(cmd.Context(), dir, olderThan, logging.WithContext(cmd.Context(), logger))
			var freed uint64
			for _, l := range result.Removed {
				freed += uint64(max(l.Size, 0))
			}
			fmt.Fprintf(out, "Removed %d %s (%s)\n", len(result.Removed),
				plural(int64(len(result.Removed)), "artifact", "artifacts"), humanize.Bytes(freed))
			for _, e := range result.Errors {
				fmt.Fprintf(out, "Could not remove %s: %v\n", e.Path, e.Error)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d artifacts could not be removed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", defaultStaleAge, "Only remove artifacts older than this")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be removed")
	return cmd
}

func leftoverRow(l staging.Leftover) []string {
	return []string{
		filepath.Base(l.Path),
		titleLabel(string(l.Kind)),
		humanize.Time(l.ModTime),
		humanize.Bytes(uint64(max(l.Size, 0))),
	}
}
