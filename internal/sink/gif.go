package sink

import (
	"bufio"
	"image"
	"image/color"
	"image/gif"
	"math"
	"os"

	"github.com/dustin/go-humanize"

	"golfr/internal/failure"
	"golfr/internal/logging"
	"golfr/internal/raster"
)

// grayPalette holds exactly the two intensities a frame can contain.
var grayPalette = color.Palette{color.Gray{Y: raster.Active}, color.Gray{Y: raster.Inactive}}

// gifWarnBytes is the buffered frame size at which a gifSink warns once.
// image/gif only encodes complete animations, so every frame stays in memory
// until Close; long recordings belong in a video format.
var gifWarnBytes int64 = 512 << 20

// gifSink buffers paletted frames and writes the animation on Close. Memory
// grows with the number of frames.
type gifSink struct {
	params   Params
	out      *gif.GIF
	delay    int
	closed   bool
	buffered int64
	warned   bool
}

// GIFDelay converts a frame rate to the per-frame delay in 100ths of a
// second, never less than one.
func GIFDelay(fps int) int {
	if fps <= 0 {
		return 1
	}
	return max(1, int(math.Round(100/float64(fps))))
}

func openGIF(params Params) (*gifSink, error) {
	return &gifSink{
		params: params,
		out:    &gif.GIF{LoopCount: 0},
		delay:  GIFDelay(params.FPS),
	}, nil
}

func (s *gifSink) WriteFrame(frame raster.Frame) error {
	if err := checkFrame(frame, s.params.Width, s.params.Height); err != nil {
		return err
	}
	img := image.NewPaletted(image.Rect(0, 0, frame.Width, frame.Height), grayPalette)
	for i, v := range frame.Pix {
		if v >= 128 {
			img.Pix[i] = 1
		}
	}
	s.out.Image = append(s.out.Image, img)
	s.out.Delay = append(s.out.Delay, s.delay)
	s.buffered += int64(len(img.Pix))
	if !s.warned && s.buffered >= gifWarnBytes {
		s.warned = true
		logging.WarnWithContext(s.params.Logger, "gif frames buffered in memory", "gif_memory",
			logging.Int("frames", len(s.out.Image)),
			logging.String("buffered", humanize.IBytes(uint64(s.buffered))),
			logging.String(logging.FieldImpact, "memory use grows with every further frame"),
			logging.String(logging.FieldErrorHint, "use mp4, webm or png for long recordings"),
		)
	}
	return nil
}

// Abort drops the buffered frames without writing the file.
func (s *gifSink) Abort() error {
	s.closed = true
	s.out = nil
	return nil
}

func (s *gifSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if len(s.out.Image) == 0 {
		return failure.Errorf(failure.ErrIO, "", 0, "gif: no frames written")
	}

	file, err := os.Create(s.params.Path)
	if err != nil {
		return failure.Wrap(failure.ErrIO, "", 0, "create gif", err)
	}
	w := bufio.NewWriter(file)
	if err := gif.EncodeAll(w, s.out); err != nil {
		_ = file.Close()
		return failure.Wrap(failure.ErrIO, "", 0, "encode gif", err)
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return failure.Wrap(failure.ErrIO, "", 0, "write gif", err)
	}
	if err := file.Close(); err != nil {
		return failure.Wrap(failure.ErrIO, "", 0, "close gif", err)
	}
	s.params.Logger.Debug("gif written",
		logging.Int("frames", len(s.out.Image)),
		logging.Int("delay_cs", s.delay),
		logging.String(logging.FieldOutput, s.params.Path),
	)
	s.out = nil
	return nil
}
