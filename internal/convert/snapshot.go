package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golfr/internal/failure"
	"golfr/internal/fileutil"
	"golfr/internal/logging"
	"golfr/internal/raster"
	"golfr/internal/recording"
	"golfr/internal/sink"
)

// SnapshotPath is the default PNG path for frame n of input.
func (c *Converter) SnapshotPath(input string, n int) string {
	dir := c.cfg.Output.Dir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, fmt.Sprintf("%s_frame_%d.png", c.Stem(input), n))
}

// Snapshot renders the n-th frame of input (1-based, counting only frames
// that parse) into a PNG at output. Malformed lines before it follow the
// configured policy.
func (c *Converter) Snapshot(ctx context.Context, input string, n int, output string) (raster.Frame, error) {
	if n < 1 {
		return raster.Frame{}, failure.Errorf(failure.ErrConfiguration, input, 0, "frame number %d must be >= 1", n)
	}
	logger := logging.WithContext(ctx, c.logger).With(logging.String(logging.FieldFile, input))

	reader, err := recording.Open(input)
	if err != nil {
		return raster.Frame{}, err
	}
	defer reader.Close()

	size, err := reader.Header()
	if err != nil {
		return raster.Frame{}, err
	}
	rasterizer, err := raster.New(size, c.cfg.Render.Resolution)
	if err != nil {
		return raster.Frame{}, failure.Wrap(failure.ErrConfiguration, input, 1, "allocate frame", err)
	}

	var scratch Result
	for count := 0; ; {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return raster.Frame{}, failure.Wrap(failure.ErrIO, input, 0, "canceled", ctxErr)
		}
		rec, ok, err := c.nextRecord(reader, &scratch, logger)
		if err != nil {
			return raster.Frame{}, err
		}
		if !ok {
			if count == 0 {
				return raster.Frame{}, failure.Errorf(failure.ErrEmptyRecording, input, 0, "no frame lines after the header")
			}
			return raster.Frame{}, failure.Errorf(failure.ErrConfiguration, input, 0, "frame %d requested but the recording has %d", n, count)
		}
		count++
		if count < n {
			continue
		}

		frame, err := rasterizer.Render(rec.Indices)
		if err != nil {
			return raster.Frame{}, failure.Wrap(failure.ErrMalformedRecord, input, rec.Line, "", err)
		}
		if err := writeSnapshot(output, frame, c.cfg.Output.Overwrite); err != nil {
			return raster.Frame{}, failure.Wrap(failure.ErrIO, input, rec.Line, "write snapshot", err)
		}
		logger.Info("snapshot written",
			logging.String(logging.FieldOutput, output),
			logging.Int("frame", n),
			logging.Int(logging.FieldLine, rec.Line),
		)
		return frame.Clone(), nil
	}
}

func writeSnapshot(output string, frame raster.Frame, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return err
	}
	tmp := fileutil.TempSibling(output)
	if err := sink.WritePNG(tmp, frame); err != nil {
		_ = fileutil.Discard(tmp)
		return err
	}
	if err := fileutil.Commit(tmp, output, overwrite); err != nil {
		_ = fileutil.Discard(tmp)
		return err
	}
	return nil
}
