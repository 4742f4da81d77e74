package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"golfr/internal/config"
	"golfr/internal/convert"
	"golfr/internal/failure"
	"golfr/internal/logging"
	"golfr/internal/preflight"
	"golfr/internal/staging"
)

type convertFlags struct {
	format        string
	resolution    int
	fps           int
	outputDir     string
	overwrite     bool
	workers       int
	onMalformed   string
	skipUnchanged bool
	crf           int
	preset        string
	noProgress    bool
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var flags convertFlags

	cmd := &cobra.Command{
		Use:   "convert <recording|directory>",
		Short: "Convert a recording, or every recording in a directory, into a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := flags.apply(cmd, base)
			if err != nil {
				return err
			}
			logger, err := ctx.loggerFor(cfg)
			if err != nil {
				return err
			}

			if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
				var details []string
				for _, r := range failed {
					details = append(details, fmt.Sprintf("%s: %s", r.Name, r.Detail))
				}
				return failure.Errorf(failure.ErrConfiguration, "", 0, "preflight failed (run 'golfr doctor'): %s", strings.Join(details, "; "))
			}

			if cfg.Output.Dir != "" {
				// Leftovers from runs killed before they could clean up.
				staging.CleanStale(cmd.Context(), cfg.Output.Dir, defaultStaleAge, logging.WithContext(cmd.Context(), logger))
			}

			opts := []convert.Option{convert.WithLogger(logger)}
			store, err := ctx.openHistory(cfg)
			switch {
			case err != nil && cfg.Batch.SkipUnchanged:
				return err
			case err != nil:
				logging.WarnWithContext(logging.WithContext(cmd.Context(), logger), "history unavailable", "history_open_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "this run is not recorded in the conversion history"),
				)
			case store != nil:
				defer store.Close()
				opts = append(opts, convert.WithLedger(store))
			}

			var progress *progressReporter
			if !flags.noProgress && !ctx.JSONMode() {
				progress = newProgressReporter(cmd.ErrOrStderr(), logger)
				opts = append(opts, convert.WithProgress(progress.Update))
			}

			converter, err := convert.New(cfg, opts...)
			if err != nil {
				return err
			}

			input, err := filepath.Abs(args[0])
			if err != nil {
				return failure.Wrap(failure.ErrIO, args[0], 0, "resolve path", err)
			}
			if progress != nil {
				progress.Start(discoverInputs(converter, input))
			}
			report, err := converter.Run(cmd.Context(), input)
			if progress != nil {
				progress.Finish()
			}
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				if jsonErr := writeJSON(cmd, newReportView(report)); jsonErr != nil {
					return jsonErr
				}
			} else {
				printReport(cmd, report)
			}
			return report.Err()
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.format, "format", "f", "", "Output format: "+strings.Join(config.Formats, ", ")+" (gif buffers all frames in memory)")
	f.IntVarP(&flags.resolution, "resolution", "r", 0, "Pixels per grid cell along each axis")
	f.IntVar(&flags.fps, "fps", 0, "Output frame rate")
	f.StringVarP(&flags.outputDir, "output-dir", "o", "", "Destination directory (default: next to each recording)")
	f.BoolVar(&flags.overwrite, "overwrite", false, "Replace existing outputs")
	f.IntVarP(&flags.workers, "workers", "j", 0, "Recordings converted in parallel in directory mode")
	f.StringVar(&flags.onMalformed, "on-malformed", "", "Malformed frame policy: fail or skip")
	f.BoolVar(&flags.skipUnchanged, "skip-unchanged", false, "Skip recordings whose last conversion used the same settings")
	f.IntVar(&flags.crf, "crf", 0, "Encoder quality (lower is better)")
	f.StringVar(&flags.preset, "preset", "", "Encoder speed preset")
	f.BoolVar(&flags.noProgress, "no-progress", false, "Disable progress output")
	return cmd
}

// apply copies base and overrides it with every flag the user set.
func (f convertFlags) apply(cmd *cobra.Command, base *config.Config) (*config.Config, error) {
	cfg := *base
	cfg.Render.Extensions = append([]string(nil), base.Render.Extensions...)
	changed := cmd.Flags().Changed

	if changed("format") {
		cfg.Render.Format = strings.ToLower(strings.TrimSpace(f.format))
	}
	if changed("resolution") {
		cfg.Render.Resolution = f.resolution
	}
	if changed("fps") {
		cfg.Render.FPS = f.fps
	}
	if changed("output-dir") {
		dir, err := config.ExpandPath(strings.TrimSpace(f.outputDir))
		if err != nil {
			return nil, failure.Wrap(failure.ErrConfiguration, "", 0, "--output-dir", err)
		}
		cfg.Output.Dir = dir
	}
	if changed("overwrite") {
		cfg.Output.Overwrite = f.overwrite
	}
	if changed("workers") {
		cfg.Batch.Workers = f.workers
	}
	if changed("on-malformed") {
		cfg.Render.OnMalformed = strings.ToLower(strings.TrimSpace(f.onMalformed))
	}
	if changed("skip-unchanged") {
		cfg.Batch.SkipUnchanged = f.skipUnchanged
	}
	if changed("crf") {
		cfg.Encoder.CRF = f.crf
	}
	if changed("preset") {
		cfg.Encoder.Preset = strings.ToLower(strings.TrimSpace(f.preset))
	}

	if err := cfg.Validate(); err != nil {
		return nil, failure.Wrap(failure.ErrConfiguration, "", 0, "", err)
	}
	return &cfg, nil
}

func discoverInputs(c *convert.Converter, input string) []string {
	info, err := os.Stat(input)
	if err != nil || !info.IsDir() {
		return []string{input}
	}
	paths, err := c.Discover(input)
	if err != nil {
		return nil
	}
	return paths
}

type resultView struct {
	Input     string `json:"input"`
	Output    string `json:"output,omitempty"`
	Status    string `json:"status"`
	GridSize  int    `json:"grid_size,omitempty"`
	Frames    int    `json:"frames"`
	Skipped   int    `json:"skipped_frames,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

type reportView struct {
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Unchanged int          `json:"unchanged"`
	Frames    int          `json:"frames"`
	ElapsedMS int64        `json:"elapsed_ms"`
	Results   []resultView `json:"results"`
}

func newReportView(report *convert.Report) reportView {
	view := reportView{
		Succeeded: report.Succeeded(),
		Failed:    report.Failed(),
		Unchanged: report.Skipped(),
		Frames:    report.Frames(),
		ElapsedMS: report.Elapsed.Milliseconds(),
	}
	for _, res := range report.Results {
		rv := resultView{
			Input:     res.Input,
			Status:    string(res.Status()),
			GridSize:  res.Size,
			Frames:    res.Frames,
			Skipped:   res.Skipped,
			ElapsedMS: res.Elapsed.Milliseconds(),
		}
		if res.Err != nil {
			rv.ErrorKind = failure.KindOf(res.Err)
			rv.Error = res.Err.Error()
		} else {
			rv.Output = res.Output
		}
		view.Results = append(view.Results, rv)
	}
	return view
}

func printReport(cmd *cobra.Command, report *convert.Report) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(report.Results))
	for _, res := range report.Results {
		detail := res.Output
		if res.Err != nil {
			detail = res.Err.Error()
			var fe *failure.Error
			if errors.As(res.Err, &fe) && fe.Err != nil {
				detail = fe.Err.Error()
				if fe.Line > 0 {
					detail = fmt.Sprintf("line %d: %s", fe.Line, detail)
				}
			}
		}
		frames := humanize.Comma(int64(res.Frames))
		if res.Skipped > 0 {
			frames = fmt.Sprintf("%s (+%d skipped)", frames, res.Skipped)
		}
		rows = append(rows, []string{
			filepath.Base(res.Input),
			titleLabel(string(res.Status())),
			frames,
			res.Elapsed.Round(time.Millisecond).String(),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Recording", "Status", "Frames", "Elapsed", "Output / Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "%d converted, %d unchanged, %d failed, %s frames in %s\n",
		report.Succeeded(), report.Skipped(), report.Failed(),
		humanize.Comma(int64(report.Frames())), report.Elapsed.Round(time.Millisecond))
}
