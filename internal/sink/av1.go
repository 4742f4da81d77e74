package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	draptolib "github.com/five82/drapto"

	"golfr/internal/failure"
	"golfr/internal/fileutil"
	"golfr/internal/logging"
	"golfr/internal/raster"
)

// encodeAV1 encodes input into outputDir and returns the produced file.
var encodeAV1 = func(ctx context.Context, input, outputDir string, rep draptolib.Reporter) (string, error) {
	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return "", err
	}
	if _, err := encoder.EncodeWithReporter(ctx, input, outputDir, rep); err != nil {
		return "", err
	}
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, stem+".mkv"), nil
}

// av1Sink writes a lossless intermediate with ffmpeg and encodes it to AV1
// with drapto on Close.
type av1Sink struct {
	ctx     context.Context
	params  Params
	workDir string
	inner   *ffmpegSink

	closeOnce sync.Once
	closeErr  error
}

func openAV1(ctx context.Context, params Params) (*av1Sink, error) {
	workDir, err := os.MkdirTemp(filepath.Dir(params.Path), fileutil.WorkDirPrefix+"av1-*")
	if err != nil {
		return nil, failure.Wrap(failure.ErrIO, "", 0, "create av1 work directory", err)
	}
	for _, dir := range []string{"source", "encoded"} {
		if err := os.Mkdir(filepath.Join(workDir, dir), 0o755); err != nil {
			_ = os.RemoveAll(workDir)
			return nil, failure.Wrap(failure.ErrIO, "", 0, "create av1 work directory", err)
		}
	}

	intermediate := filepath.Join(workDir, "source", "frames.mkv")
	inner, err := openFFmpeg(ctx, params, "ffv1-yuv", intermediate)
	if err != nil {
		_ = os.RemoveAll(workDir)
		return nil, err
	}
	return &av1Sink{ctx: ctx, params: params, workDir: workDir, inner: inner}, nil
}

func (s *av1Sink) WriteFrame(frame raster.Frame) error {
	return s.inner.WriteFrame(frame)
}

// Abort stops the intermediate encode and removes the work directory without
// running drapto.
func (s *av1Sink) Abort() error {
	s.closeOnce.Do(func() {
		_ = s.inner.Close()
		s.closeErr = os.RemoveAll(s.workDir)
	})
	return s.closeErr
}

func (s *av1Sink) Close() error {
	s.closeOnce.Do(func() {
		defer func() {
			if err := os.RemoveAll(s.workDir); err != nil {
				s.params.Logger.Warn("remove av1 work directory failed",
					logging.String("dir", s.workDir), logging.Error(err))
			}
		}()
		if err := s.inner.Close(); err != nil {
			s.closeErr = err
			return
		}
		if s.inner.frames == 0 {
			s.closeErr = failure.Errorf(failure.ErrExternalTool, "", 0, "av1: no frames written")
			return
		}

		rep := newDraptoReporter(s.params.Logger)
		encoded, err := encodeAV1(s.ctx, s.inner.path, filepath.Join(s.workDir, "encoded"), rep)
		if err != nil {
			s.closeErr = failure.Wrap(failure.ErrExternalTool, "", 0, "drapto encode", err)
			return
		}
		if err := fileutil.MoveFile(encoded, s.params.Path); err != nil {
			s.closeErr = failure.Wrap(failure.ErrIO, "", 0, "move av1 output", fmt.Errorf("%s: %w", encoded, err))
		}
	})
	return s.closeErr
}
