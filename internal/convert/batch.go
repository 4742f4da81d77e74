package convert

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"golfr/internal/failure"
	"golfr/internal/logging"
)

// ErrNoRecordings is returned by Batch when a directory holds no file with a
// recognized extension.
var ErrNoRecordings = errors.New("no recordings found")

// Batch converts every recording in dir. Individual failures are reported in
// the Report and never stop the remaining files; the returned error is only
// set when dir itself cannot be processed.
func (c *Converter) Batch(ctx context.Context, dir string) (*Report, error) {
	start := time.Now()
	paths, err := c.Discover(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, failure.Wrap(failure.ErrIO, dir, 0, "", ErrNoRecordings)
	}

	workers := min(max(c.cfg.Batch.Workers, 1), len(paths))
	logger := logging.WithContext(ctx, c.logger)
	logger.Info("batch started",
		logging.String("dir", dir),
		logging.Int("recordings", len(paths)),
		logging.Int("workers", workers),
	)

	report := &Report{Results: make([]Result, len(paths))}
	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		if ctxErr := ctx.Err(); ctxErr != nil {
			report.Results[i] = Result{Input: path, Output: c.OutputPath(path), Err: failure.Wrap(failure.ErrIO, path, 0, "canceled", ctxErr)}
			continue
		}
		g.Go(func() error {
			report.Results[i] = c.ConvertFile(ctx, path)
			return nil
		})
	}
	_ = g.Wait()
	report.Elapsed = time.Since(start)

	logger.Info("batch finished",
		logging.String("dir", dir),
		logging.Int("succeeded", report.Succeeded()),
		logging.Int("failed", report.Failed()),
		logging.Int("skipped", report.Skipped()),
		logging.Duration("elapsed", report.Elapsed.Round(time.Millisecond)),
	)
	return report, nil
}

// Run converts path, which may be a single recording or a directory of them.
func (c *Converter) Run(ctx context.Context, path string) (*Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, failure.Wrap(failure.ErrIO, path, 0, "stat input", err)
	}
	if info.IsDir() {
		return c.Batch(ctx, path)
	}
	start := time.Now()
	res := c.ConvertFile(ctx, path)
	return &Report{Results: []Result{res}, Elapsed: time.Since(start)}, nil
}
