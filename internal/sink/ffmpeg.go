package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"golfr/internal/failure"
	"golfr/internal/logging"
	"golfr/internal/raster"
)

var commandContext = exec.CommandContext

const stderrTailBytes = 4096

// padEven pads odd dimensions with white so chroma-subsampled encoders accept
// the frame. Even frames pass through unchanged.
const padEven = "pad=ceil(iw/2)*2:ceil(ih/2)*2:0:0:color=white"

type ffmpegSink struct {
	params Params
	path   string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *tailBuffer
	logger *slog.Logger

	frames    int
	closeOnce sync.Once
	closeErr  error
}

// ffmpegArgs builds the argument list for one output profile.
func ffmpegArgs(params Params, profile, output string) ([]string, error) {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "gray",
		"-s", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"-r", strconv.Itoa(params.FPS),
		"-i", "-",
		"-an",
	}
	preset := strings.TrimSpace(params.Preset)
	if preset == "" {
		preset = "medium"
	}
	switch profile {
	case "mp4":
		args = append(args,
			"-vf", padEven,
			"-c:v", "libx264",
			"-preset", preset,
			"-crf", strconv.Itoa(min(params.CRF, 51)),
			"-pix_fmt", "yuv420p",
			"-movflags", "+faststart",
		)
	case "mkv":
		args = append(args, "-c:v", "ffv1", "-level", "3", "-pix_fmt", "gray")
	case "webm":
		args = append(args,
			"-vf", padEven,
			"-c:v", "libvpx-vp9",
			"-crf", strconv.Itoa(params.CRF),
			"-b:v", "0",
			"-pix_fmt", "yuv420p",
		)
	case "ffv1-yuv":
		args = append(args, "-vf", padEven, "-c:v", "ffv1", "-level", "3", "-pix_fmt", "yuv420p")
	default:
		return nil, fmt.Errorf("unknown ffmpeg profile %q", profile)
	}
	return append(args, output), nil
}

func openFFmpeg(ctx context.Context, params Params, profile, output string) (*ffmpegSink, error) {
	binary := strings.TrimSpace(params.FFmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	args, err := ffmpegArgs(params, profile, output)
	if err != nil {
		return nil, failure.Wrap(failure.ErrConfiguration, "", 0, "build ffmpeg arguments", err)
	}

	cmd := commandContext(ctx, binary, args...) //nolint:gosec
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, failure.Wrap(failure.ErrExternalTool, "", 0, "ffmpeg stdin pipe", err)
	}
	stderr := &tailBuffer{limit: stderrTailBytes}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, failure.Wrap(failure.ErrExternalTool, "", 0, "start ffmpeg", err)
	}

	params.Logger.Debug("ffmpeg started",
		logging.String("command", binary+" "+strings.Join(args, " ")),
		logging.String("stream", describe(params)),
	)
	return &ffmpegSink{
		params: params,
		path:   output,
		cmd:    cmd,
		stdin:  stdin,
		stderr: stderr,
		logger: params.Logger,
	}, nil
}

func (s *ffmpegSink) WriteFrame(frame raster.Frame) error {
	if err := checkFrame(frame, s.params.Width, s.params.Height); err != nil {
		return err
	}
	if _, err := s.stdin.Write(frame.Pix); err != nil {
		// A broken pipe means ffmpeg exited; its exit status and stderr
		// explain why better than the write error does.
		if waitErr := s.Close(); waitErr != nil {
			return waitErr
		}
		return failure.Wrap(failure.ErrExternalTool, "", 0, "write frame to ffmpeg", err)
	}
	s.frames++
	return nil
}

func (s *ffmpegSink) Close() error {
	s.closeOnce.Do(func() {
		closeErr := s.stdin.Close()
		waitErr := s.cmd.Wait()
		switch {
		case waitErr != nil:
			s.closeErr = failure.Wrap(failure.ErrExternalTool, "", 0, "ffmpeg",
				fmt.Errorf("%w: %s", waitErr, s.stderr.String()))
		case closeErr != nil && !errors.Is(closeErr, io.ErrClosedPipe):
			s.closeErr = failure.Wrap(failure.ErrExternalTool, "", 0, "close ffmpeg stdin", closeErr)
		default:
			s.logger.Debug("ffmpeg finished", logging.Int("frames", s.frames), logging.String(logging.FieldOutput, s.path))
		}
	})
	return s.closeErr
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := strings.TrimSpace(string(b.buf))
	if s == "" {
		return "no output"
	}
	return s
}
