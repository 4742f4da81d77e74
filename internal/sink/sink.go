package sink

import (
	"context"
	"fmt"
	"log/slog"

	"golfr/internal/failure"
	"golfr/internal/logging"
	"golfr/internal/raster"
)

// Sink consumes frames in order and finalizes the output on Close.
type Sink interface {
	WriteFrame(frame raster.Frame) error
	Close() error
}

// Aborter is implemented by sinks that can drop buffered output faster than
// Close would finalize it.
type Aborter interface {
	Abort() error
}

// Abort releases s after a failed conversion. The output it leaves behind is
// incomplete and must be discarded by the caller.
func Abort(s Sink) error {
	if a, ok := s.(Aborter); ok {
		return a.Abort()
	}
	return s.Close()
}

// Params describes the stream a sink is opened for.
type Params struct {
	// Path is the destination file, or the destination directory for png.
	Path   string
	Format string
	Width  int
	Height int
	FPS    int

	FFmpegBinary string
	CRF          int
	Preset       string

	Logger *slog.Logger
}

// Opener opens a sink. Converters accept one so tests can substitute an
// in-memory sink.
type Opener func(ctx context.Context, params Params) (Sink, error)

// Extension returns the suffix appended to a recording stem for format. The
// png format produces a directory.
func Extension(format string) (string, error) {
	switch format {
	case "mp4":
		return ".mp4", nil
	case "mkv", "av1":
		return ".mkv", nil
	case "webm":
		return ".webm", nil
	case "gif":
		return ".gif", nil
	case "png":
		return "_frames", nil
	default:
		return "", failure.Errorf(failure.ErrConfiguration, "", 0, "unsupported output format %q", format)
	}
}

// IsDirectory reports whether format writes a directory instead of a file.
func IsDirectory(format string) bool {
	return format == "png"
}

// Open opens the sink for params.Format.
func Open(ctx context.Context, params Params) (Sink, error) {
	if params.Width <= 0 || params.Height <= 0 {
		return nil, failure.Errorf(failure.ErrConfiguration, "", 0, "invalid frame size %dx%d", params.Width, params.Height)
	}
	if params.FPS <= 0 {
		return nil, failure.Errorf(failure.ErrConfiguration, "", 0, "invalid frame rate %d", params.FPS)
	}
	params.Logger = logging.NewComponentLogger(params.Logger, "sink")

	switch params.Format {
	case "mp4", "mkv", "webm":
		return openFFmpeg(ctx, params, params.Format, params.Path)
	case "av1":
		return openAV1(ctx, params)
	case "gif":
		return openGIF(params)
	case "png":
		return openPNG(params)
	default:
		return nil, failure.Errorf(failure.ErrConfiguration, "", 0, "unsupported output format %q", params.Format)
	}
}

func checkFrame(frame raster.Frame, width, height int) error {
	if frame.Width != width || frame.Height != height || len(frame.Pix) != width*height {
		return failure.Errorf(failure.ErrIO, "", 0, "frame is %dx%d (%d bytes), sink expects %dx%d",
			frame.Width, frame.Height, len(frame.Pix), width, height)
	}
	return nil
}

func describe(params Params) string {
	return fmt.Sprintf("%s %dx%d@%dfps", params.Format, params.Width, params.Height, params.FPS)
}
