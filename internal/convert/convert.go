package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"golfr/internal/config"
	"golfr/internal/failure"
	"golfr/internal/fileutil"
	"golfr/internal/history"
	"golfr/internal/logging"
	"golfr/internal/raster"
	"golfr/internal/recording"
	"golfr/internal/sink"
)

// Policy decides what happens to a frame line that fails to parse.
type Policy string

const (
	// PolicyFail aborts the file at the first malformed line.
	PolicyFail Policy = "fail"
	// PolicySkip drops the frame, records an Issue and continues.
	PolicySkip Policy = "skip"
)

// Progress receives the state of a conversion after every frame. bytesRead
// and bytesTotal refer to the file on disk, compressed or not. Batch workers
// call it concurrently.
type Progress func(path string, bytesRead, bytesTotal int64, frames int)

// Ledger is the part of the history store the converter writes to.
type Ledger interface {
	Record(ctx context.Context, entry history.Entry) (int64, error)
	LastSuccess(ctx context.Context, input string) (*history.Entry, error)
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLedger records every outcome in ledger and enables skip-unchanged.
func WithLedger(ledger Ledger) Option {
	return func(c *Converter) {
		c.ledger = ledger
	}
}

// WithProgress installs a per-frame progress callback.
func WithProgress(progress Progress) Option {
	return func(c *Converter) {
		c.progress = progress
	}
}

// WithSinkOpener replaces sink.Open.
func WithSinkOpener(open sink.Opener) Option {
	return func(c *Converter) {
		if open != nil {
			c.openSink = open
		}
	}
}

// Converter turns recordings into videos according to a configuration. It is
// safe for concurrent use; each conversion owns its own rasterizer.
type Converter struct {
	cfg      config.Config
	policy   Policy
	ext      string
	settings string

	logger   *slog.Logger
	ledger   Ledger
	progress Progress
	openSink sink.Opener
}

// New validates cfg and builds a Converter. cfg is copied.
func New(cfg *config.Config, opts ...Option) (*Converter, error) {
	if cfg == nil {
		return nil, failure.Errorf(failure.ErrConfiguration, "", 0, "config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, failure.Wrap(failure.ErrConfiguration, "", 0, "", err)
	}
	ext, err := sink.Extension(cfg.Render.Format)
	if err != nil {
		return nil, err
	}

	c := &Converter{
		cfg:      *cfg,
		policy:   Policy(cfg.Render.OnMalformed),
		ext:      ext,
		settings: Fingerprint(cfg),
		logger:   logging.NewNop(),
		openSink: sink.Open,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "convert")
	return c, nil
}

// Fingerprint summarizes every setting that changes the encoded output.
func Fingerprint(cfg *config.Config) string {
	return fmt.Sprintf("format=%s resolution=%d fps=%d crf=%d preset=%s on_malformed=%s",
		cfg.Render.Format, cfg.Render.Resolution, cfg.Render.FPS,
		cfg.Encoder.CRF, cfg.Encoder.Preset, cfg.Render.OnMalformed)
}

// ConvertFile converts one recording. Failures are returned in Result.Err and
// have already been logged.
func (c *Converter) ConvertFile(ctx context.Context, input string) Result {
	start := time.Now()
	logger := logging.WithContext(ctx, c.logger).With(logging.String(logging.FieldFile, input))
	res := Result{Input: input, Output: c.OutputPath(input)}

	info, err := os.Stat(input)
	switch {
	case err != nil:
		res.Err = failure.Wrap(failure.ErrIO, input, 0, "stat recording", err)
	case info.IsDir():
		res.Err = failure.Errorf(failure.ErrIO, input, 0, "is a directory")
	default:
		if c.unchanged(ctx, input, res.Output, info, logger) {
			res.Unchanged = true
		} else {
			res.Err = c.convert(ctx, input, res.Output, &res, logger)
		}
	}
	res.Elapsed = time.Since(start)

	c.report(ctx, &res, info, logger)
	return res
}

func (c *Converter) convert(ctx context.Context, input, output string, res *Result, logger *slog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return failure.Wrap(failure.ErrIO, input, 0, "create output directory", err)
	}
	// The lock file stays in place after Unlock; removing it would let two
	// workers lock different inodes for the same output. clean removes
	// orphans once nobody holds them.
	lock := flock.New(LockPath(output))
	locked, err := lock.TryLock()
	if err != nil {
		return failure.Wrap(failure.ErrIO, input, 0, "lock output", err)
	}
	if !locked {
		return failure.Errorf(failure.ErrIO, input, 0, "output %s is being written by another conversion", output)
	}
	defer func() { _ = lock.Unlock() }()

	if !c.cfg.Output.Overwrite {
		if _, statErr := os.Lstat(output); statErr == nil {
			return failure.Errorf(failure.ErrIO, input, 0, "output %s already exists (set output.overwrite to replace it)", output)
		}
	}

	reader, err := recording.Open(input)
	if err != nil {
		return err
	}
	defer reader.Close()

	size, err := reader.Header()
	if err != nil {
		return err
	}
	res.Size = size

	rasterizer, err := raster.New(size, c.cfg.Render.Resolution)
	if err != nil {
		return failure.Wrap(failure.ErrConfiguration, input, 1, "allocate frame", err)
	}

	// The first frame is read before any output exists so that a recording
	// without frames leaves nothing behind.
	rec, ok, err := c.nextRecord(reader, res, logger)
	if err != nil {
		return err
	}
	if !ok {
		return failure.Errorf(failure.ErrEmptyRecording, input, 0, "no frame lines after the header")
	}

	tmp := fileutil.TempSibling(output)
	sinkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	side := rasterizer.Side()
	out, err := c.openSink(sinkCtx, sink.Params{
		Path:         tmp,
		Format:       c.cfg.Render.Format,
		Width:        side,
		Height:       side,
		FPS:          c.cfg.Render.FPS,
		FFmpegBinary: c.cfg.FFmpegBinary(),
		CRF:          c.cfg.Encoder.CRF,
		Preset:       c.cfg.Encoder.Preset,
		Logger:       logger,
	})
	if err != nil {
		_ = fileutil.Discard(tmp)
		return failure.At(err, failure.ErrExternalTool, input, 0)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		cancel()
		_ = sink.Abort(out)
		if discardErr := fileutil.Discard(tmp); discardErr != nil {
			logger.Warn("remove partial output failed", logging.String(logging.FieldOutput, tmp), logging.Error(discardErr))
		}
	}()

	logger.Debug("conversion started",
		logging.Int("grid_size", size),
		logging.Int("frame_side", side),
		logging.String(logging.FieldOutput, output),
	)

	for ok {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return failure.Wrap(failure.ErrIO, input, rec.Line, "canceled", ctxErr)
		}
		frame, renderErr := rasterizer.Render(rec.Indices)
		if renderErr != nil {
			return failure.Wrap(failure.ErrMalformedRecord, input, rec.Line, "", renderErr)
		}
		if writeErr := out.WriteFrame(frame); writeErr != nil {
			return failure.At(writeErr, failure.ErrExternalTool, input, rec.Line)
		}
		res.Frames++
		if c.progress != nil {
			read, total := reader.Progress()
			c.progress(input, read, total, res.Frames)
		}

		rec, ok, err = c.nextRecord(reader, res, logger)
		if err != nil {
			return err
		}
	}

	committed = true
	if closeErr := out.Close(); closeErr != nil {
		_ = fileutil.Discard(tmp)
		return failure.At(closeErr, failure.ErrExternalTool, input, 0)
	}
	if commitErr := fileutil.Commit(tmp, output, c.cfg.Output.Overwrite); commitErr != nil {
		_ = fileutil.Discard(tmp)
		return failure.Wrap(failure.ErrIO, input, 0, "move output into place", commitErr)
	}
	return nil
}

// nextRecord returns the next frame that parses. Under PolicySkip malformed
// lines are logged, recorded in res and passed over.
func (c *Converter) nextRecord(reader *recording.Reader, res *Result, logger *slog.Logger) (recording.Record, bool, error) {
	for reader.Scan() {
		rec, err := reader.Record()
		if err == nil {
			return rec, true, nil
		}
		if c.policy != PolicySkip {
			return recording.Record{}, false, err
		}
		res.Skipped++
		res.Issues = append(res.Issues, Issue{Line: rec.Line, Err: err})
		logging.WarnWithContext(logger, "malformed frame skipped", "malformed_record",
			logging.Int(logging.FieldLine, rec.Line),
			logging.Error(err),
			logging.String(logging.FieldImpact, "frame omitted from the output"),
		)
	}
	return recording.Record{}, false, reader.Err()
}

// unchanged reports whether the ledger shows output is already current.
func (c *Converter) unchanged(ctx context.Context, input, output string, info os.FileInfo, logger *slog.Logger) bool {
	if !c.cfg.Batch.SkipUnchanged || c.ledger == nil {
		return false
	}
	if _, err := os.Stat(output); err != nil {
		return false
	}
	last, err := c.ledger.LastSuccess(ctx, input)
	if err != nil {
		logger.Warn("history lookup failed", logging.Error(err))
		return false
	}
	return last.Matches(info.Size(), info.ModTime(), c.settings)
}

// report logs the outcome and records it in the ledger.
func (c *Converter) report(ctx context.Context, res *Result, info os.FileInfo, logger *slog.Logger) {
	status := res.Status()
	switch status {
	case history.StatusSkipped:
		logger.Info("recording unchanged, skipped", logging.String(logging.FieldOutput, res.Output))
	case history.StatusSucceeded:
		attrs := []logging.Attr{
			logging.String(logging.FieldOutput, res.Output),
			logging.Int("frames", res.Frames),
			logging.Int("grid_size", res.Size),
			logging.Duration("elapsed", res.Elapsed.Round(time.Millisecond)),
		}
		if res.Skipped > 0 {
			attrs = append(attrs, logging.Int("skipped_frames", res.Skipped))
		}
		logger.Info("recording converted", logging.Args(attrs...)...)
	default:
		_, line := failure.Location(res.Err)
		attrs := []logging.Attr{
			logging.Error(res.Err),
			logging.String(logging.FieldErrorKind, failure.KindOf(res.Err)),
			logging.String(logging.FieldErrorHint, hint(res.Err)),
		}
		if line > 0 {
			attrs = append(attrs, logging.Int(logging.FieldLine, line))
		}
		logging.ErrorWithContext(logger, "conversion failed", "convert_failed", attrs...)
	}

	if c.ledger == nil {
		return
	}
	entry := history.Entry{
		Input:         res.Input,
		Output:        res.Output,
		Format:        c.cfg.Render.Format,
		Settings:      c.settings,
		Status:        status,
		GridSize:      res.Size,
		Frames:        res.Frames,
		SkippedFrames: res.Skipped,
		Elapsed:       res.Elapsed,
	}
	if runID, ok := logging.RunIDFromContext(ctx); ok {
		entry.RunID = runID
	}
	if info != nil {
		entry.InputSize = info.Size()
		entry.InputModTime = info.ModTime()
	}
	if res.Err != nil {
		entry.Output = ""
		entry.ErrorKind = failure.KindOf(res.Err)
		entry.ErrorMessage = res.Err.Error()
		_, entry.ErrorLine = failure.Location(res.Err)
	}
	// A canceled run still gets its ledger row.
	if _, err := c.ledger.Record(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warn("history record failed", logging.Error(err))
	}
}

func hint(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "conversion was interrupted"
	case errors.Is(err, failure.ErrInvalidHeader):
		return "the first line must be a positive grid size"
	case errors.Is(err, failure.ErrEmptyRecording):
		return "the recording has a header but no frame lines"
	case errors.Is(err, failure.ErrMalformedRecord):
		return `fix the line or set render.on_malformed = "skip"`
	case errors.Is(err, failure.ErrExternalTool):
		return "run 'golfr doctor' to check the encoder"
	case errors.Is(err, failure.ErrConfiguration):
		return "run 'golfr config validate'"
	case err != nil && strings.Contains(err.Error(), "already exists"):
		return "set output.overwrite or pass --overwrite"
	default:
		return "check file permissions and free disk space"
	}
}
