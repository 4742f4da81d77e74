package recording

import (
	"context"
	"math"
)

// Issue is a frame line that failed to parse.
type Issue struct {
	Line int
	Err  error
}

// Summary describes a recording without rendering it.
type Summary struct {
	Path        string
	Size        int
	Frames      int
	EmptyFrames int
	// MinActive and MaxActive count distinct active cells per frame.
	MinActive  int
	MaxActive  int
	MeanActive float64
	Malformed  []Issue
}

// Inspect reads the whole recording at path and collects frame statistics.
// Malformed frame lines are collected rather than returned as an error; the
// header and read errors are returned as usual.
func Inspect(ctx context.Context, path string) (Summary, error) {
	r, err := Open(path)
	if err != nil {
		return Summary{Path: path}, err
	}
	defer r.Close()
	return inspect(ctx, r)
}

func inspect(ctx context.Context, r *Reader) (Summary, error) {
	summary := Summary{Path: r.Path(), MinActive: math.MaxInt}
	size, err := r.Header()
	if err != nil {
		return summary, err
	}
	summary.Size = size

	// stamp[i] == frame number marks cell i as already counted for this frame.
	stamp := make([]int, size*size)
	var total int
	for r.Scan() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		rec, err := r.Record()
		if err != nil {
			summary.Malformed = append(summary.Malformed, Issue{Line: rec.Line, Err: err})
			continue
		}
		summary.Frames++
		active := 0
		for _, idx := range rec.Indices {
			if stamp[idx] != summary.Frames {
				stamp[idx] = summary.Frames
				active++
			}
		}
		if active == 0 {
			summary.EmptyFrames++
		}
		summary.MinActive = min(summary.MinActive, active)
		summary.MaxActive = max(summary.MaxActive, active)
		total += active
	}
	if err := r.Err(); err != nil {
		return summary, err
	}
	if summary.Frames == 0 {
		summary.MinActive = 0
	} else {
		summary.MeanActive = float64(total) / float64(summary.Frames)
	}
	return summary, nil
}
