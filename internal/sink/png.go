package sink

import (
	"bufio"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"golfr/internal/failure"
	"golfr/internal/raster"
)

// FrameName returns the file name of the n-th (0-based) frame in a png
// sequence.
func FrameName(n int) string {
	return fmt.Sprintf("frame_%06d.png", n)
}

// pngSink writes each frame as a numbered PNG inside a directory.
type pngSink struct {
	params  Params
	encoder png.Encoder
	frames  int
}

func openPNG(params Params) (*pngSink, error) {
	if err := os.MkdirAll(params.Path, 0o755); err != nil {
		return nil, failure.Wrap(failure.ErrIO, "", 0, "create frame directory", err)
	}
	return &pngSink{params: params, encoder: png.Encoder{CompressionLevel: png.BestSpeed}}, nil
}

func (s *pngSink) WriteFrame(frame raster.Frame) error {
	if err := checkFrame(frame, s.params.Width, s.params.Height); err != nil {
		return err
	}
	path := filepath.Join(s.params.Path, FrameName(s.frames))
	if err := writePNG(&s.encoder, path, frame); err != nil {
		return failure.Wrap(failure.ErrIO, "", 0, "write "+filepath.Base(path), err)
	}
	s.frames++
	return nil
}

func (s *pngSink) Close() error {
	if s.frames == 0 {
		return failure.Errorf(failure.ErrIO, "", 0, "png: no frames written")
	}
	return nil
}

// WritePNG encodes a single frame to path.
func WritePNG(path string, frame raster.Frame) error {
	return writePNG(&png.Encoder{}, path, frame)
}

func writePNG(enc *png.Encoder, path string, frame raster.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	if err := enc.Encode(w, frame.Image()); err != nil {
		_ = file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
