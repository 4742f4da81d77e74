package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"golfr/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and prune the conversion history",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

type historyEntryView struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id,omitempty"`
	Input     string    `json:"input"`
	Output    string    `json:"output,omitempty"`
	Format    string    `json:"format"`
	Status    string    `json:"status"`
	Frames    int       `json:"frames"`
	ErrorKind string    `json:"error_kind,omitempty"`
	Error     string    `json:"error,omitempty"`
	ElapsedMS int64     `json:"elapsed_ms"`
	CreatedAt time.Time `json:"created_at"`
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var (
		status string
		input  string
		limit  int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show recent conversions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := requireHistory(cfg); err != nil {
				return err
			}
			filter := history.Filter{Limit: limit}
			if status = strings.ToLower(strings.TrimSpace(status)); status != "" {
				switch history.Status(status) {
				case history.StatusSucceeded, history.StatusFailed, history.StatusSkipped:
					filter.Status = history.Status(status)
				default:
					return fmt.Errorf("unknown status %q (want succeeded, failed or skipped)", status)
				}
			}
			if input = strings.TrimSpace(input); input != "" {
				abs, err := filepath.Abs(input)
				if err != nil {
					return err
				}
				filter.Input = abs
			}

			store, err := ctx.openHistory(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				views := make([]historyEntryView, 0, len(entries))
				for _, e := range entries {
					views = append(views, historyEntryView{
						ID:        e.ID,
						RunID:     e.RunID,
						Input:     e.Input,
						Output:    e.Output,
						Format:    e.Format,
						Status:    string(e.Status),
						Frames:    e.Frames,
						ErrorKind: e.ErrorKind,
						Error:     e.ErrorMessage,
						ElapsedMS: e.Elapsed.Milliseconds(),
						CreatedAt: e.CreatedAt,
					})
				}
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No conversions recorded")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				detail := e.Output
				if e.Status == history.StatusFailed {
					detail = titleLabel(e.ErrorKind)
					if e.ErrorLine > 0 {
						detail = fmt.Sprintf("%s (line %d)", detail, e.ErrorLine)
					}
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", e.ID),
					humanize.Time(e.CreatedAt),
					filepath.Base(e.Input),
					e.Format,
					titleLabel(string(e.Status)),
					humanize.Comma(int64(e.Frames)),
					e.Elapsed.Round(time.Millisecond).String(),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "When", "Recording", "Format", "Status", "Frames", "Elapsed", "Output / Error"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only show succeeded, failed or skipped conversions")
	cmd.Flags().StringVar(&input, "input", "", "Only show conversions of this recording")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries (0 for all)")
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var (
		olderThan time.Duration
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && olderThan <= 0 {
				return errors.New("pass --older-than <duration> or --all")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := requireHistory(cfg); err != nil {
				return err
			}
			store, err := ctx.openHistory(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var before time.Time
			if !all {
				before = time.Now().Add(-olderThan)
			}
			removed, err := store.Clear(cmd.Context(), before)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s history %s\n", humanize.Comma(removed), plural(removed, "entry", "entries"))
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Delete entries older than this duration (e.g. 720h)")
	cmd.Flags().BoolVar(&all, "all", false, "Delete every entry")
	return cmd
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
