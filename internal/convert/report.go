package convert

import (
	"errors"
	"fmt"
	"time"

	"golfr/internal/history"
	"golfr/internal/recording"
)

// Issue is a frame line that was skipped under PolicySkip.
type Issue = recording.Issue

// Result is the outcome of converting one recording.
type Result struct {
	Input  string
	Output string
	// Size is the grid size from the header, zero if it was never read.
	Size int
	// Frames counts frames written to the sink.
	Frames int
	// Skipped counts malformed frame lines dropped under PolicySkip.
	Skipped int
	Issues  []Issue
	// Unchanged is set when the conversion was skipped because the ledger
	// showed a current output.
	Unchanged bool
	Err       error
	Elapsed   time.Duration
}

// Status maps the result onto the ledger's status values.
func (r Result) Status() history.Status {
	switch {
	case r.Err != nil:
		return history.StatusFailed
	case r.Unchanged:
		return history.StatusSkipped
	default:
		return history.StatusSucceeded
	}
}

// Report collects the results of a run in discovery order.
type Report struct {
	Results []Result
	Elapsed time.Duration
}

func (r *Report) count(status history.Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status() == status {
			n++
		}
	}
	return n
}

// Succeeded counts recordings converted in this run.
func (r *Report) Succeeded() int { return r.count(history.StatusSucceeded) }

// Failed counts recordings whose conversion failed.
func (r *Report) Failed() int { return r.count(history.StatusFailed) }

// Skipped counts recordings left alone because their output was current.
func (r *Report) Skipped() int { return r.count(history.StatusSkipped) }

// Frames totals the frames written across all recordings.
func (r *Report) Frames() int {
	total := 0
	for _, res := range r.Results {
		total += res.Frames
	}
	return total
}

// Err summarizes failures. It returns nil when nothing failed, a
// *PartialError when only some recordings failed, and the failures joined
// when every recording failed.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	switch {
	case len(errs) == 0:
		return nil
	case len(errs) < len(r.Results):
		return &PartialError{Failed: len(errs), Total: len(r.Results), Errs: errs}
	case len(errs) == 1:
		return errs[0]
	default:
		return fmt.Errorf("all %d recordings failed: %w", len(errs), errors.Join(errs...))
	}
}

// PartialError reports a batch where some recordings converted and others
// did not.
type PartialError struct {
	Failed int
	Total  int
	Errs   []error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%d of %d recordings failed", e.Failed, e.Total)
}

func (e *PartialError) Unwrap() []error {
	return e.Errs
}
