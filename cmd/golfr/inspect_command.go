package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"golfr/internal/failure"
	"golfr/internal/recording"
)

type issueView struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type summaryView struct {
	Path        string      `json:"path"`
	GridSize    int         `json:"grid_size"`
	Frames      int         `json:"frames"`
	EmptyFrames int         `json:"empty_frames"`
	MinActive   int         `json:"min_active"`
	MaxActive   int         `json:"max_active"`
	MeanActive  float64     `json:"mean_active"`
	Malformed   []issueView `json:"malformed,omitempty"`
	ErrorKind   string      `json:"error_kind,omitempty"`
	Error       string      `json:"error,omitempty"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "inspect <recording>...",
		Short:       "Summarize recordings without encoding them",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				views []summaryView
				errs  []error
			)
			for _, path := range args {
				summary, err := recording.Inspect(cmd.Context(), path)
				view := summaryView{
					Path:        path,
					GridSize:    summary.Size,
					Frames:      summary.Frames,
					EmptyFrames: summary.EmptyFrames,
					MinActive:   summary.MinActive,
					MaxActive:   summary.MaxActive,
					MeanActive:  summary.MeanActive,
				}
				for _, issue := range summary.Malformed {
					view.Malformed = append(view.Malformed, issueView{Line: issue.Line, Error: issueMessage(issue.Err)})
				}
				if err != nil {
					view.ErrorKind = failure.KindOf(err)
					view.Error = err.Error()
					errs = append(errs, err)
				}
				views = append(views, view)
			}

			if ctx.JSONMode() {
				if err := writeJSON(cmd, views); err != nil {
					return err
				}
				return errors.Join(errs...)
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				if v.Error != "" {
					rows = append(rows, []string{filepath.Base(v.Path), "-", "-", "-", "-", "-", titleLabel(v.ErrorKind)})
					continue
				}
				rows = append(rows, []string{
					filepath.Base(v.Path),
					fmt.Sprintf("%d×%d", v.GridSize, v.GridSize),
					humanize.Comma(int64(v.Frames)),
					humanize.Comma(int64(v.EmptyFrames)),
					fmt.Sprintf("%d / %d", v.MinActive, v.MaxActive),
					strconv.FormatFloat(v.MeanActive, 'f', 1, 64),
					strconv.Itoa(len(v.Malformed)),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Recording", "Grid", "Frames", "Empty", "Active min / max", "Active mean", "Malformed"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			for _, v := range views {
				for _, issue := range v.Malformed {
					fmt.Fprintf(out, "%s:%d: %s\n", v.Path, issue.Line, issue.Error)
				}
				if v.Error != "" {
					fmt.Fprintf(out, "%s: %s\n", v.Path, v.Error)
				}
			}
			return errors.Join(errs...)
		},
	}
}

// issueMessage drops the location prefix the reader adds, since callers print
// the line number themselves.
func issueMessage(err error) string {
	var fe *failure.Error
	if errors.As(err, &fe) && fe.Err != nil {
		if fe.Op != "" {
			return fe.Op + ": " + fe.Err.Error()
		}
		return fe.Err.Error()
	}
	return err.Error()
}
