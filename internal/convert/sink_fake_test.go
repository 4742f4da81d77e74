package convert_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"golfr/internal/raster"
	"golfr/internal/sink"
)

// memorySink keeps clones of every frame and writes a small marker file on
// Close so the converter has something to move into place.
type memorySink struct {
	params sink.Params
	frames []raster.Frame
	failAt int
	closed bool
}

func (s *memorySink) WriteFrame(frame raster.Frame) error {
	if s.failAt > 0 && len(s.frames)+1 == s.failAt {
		return errors.New("encoder crashed")
	}
	s.frames = append(s.frames, frame.Clone())
	return nil
}

func (s *memorySink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return os.WriteFile(s.params.Path, []byte(fmt.Sprintf("frames=%d\n", len(s.frames))), 0o644)
}

// memoryOpener records every sink it opens.
type memoryOpener struct {
	mu     sync.Mutex
	failAt int
	sinks  []*memorySink
}

func (o *memoryOpener) Open(_ context.Context, params sink.Params) (sink.Sink, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := &memorySink{params: params, failAt: o.failAt}
	o.sinks = append(o.sinks, s)
	return s, nil
}

func (o *memoryOpener) opened() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sinks)
}

func (o *memoryOpener) last() *memorySink {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sinks) == 0 {
		return nil
	}
	return o.sinks[len(o.sinks)-1]
}
