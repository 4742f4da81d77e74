package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"golfr/internal/logging"
)

// progressReporter turns per-frame converter callbacks into either a terminal
// progress bar over the bytes of every input, or sampled log lines when
// stderr is not a terminal.
type progressReporter struct {
	w        io.Writer
	logger   *slog.Logger
	terminal bool

	mu       sync.Mutex
	bar      *progressbar.ProgressBar
	seen     map[string]int64
	samplers map[string]*logging.ProgressSampler
}

func newProgressReporter(w io.Writer, logger *slog.Logger) *progressReporter {
	return &progressReporter{
		w:        w,
		logger:   logger,
		terminal: logging.IsTerminal(w),
		seen:     make(map[string]int64),
		samplers: make(map[string]*logging.ProgressSampler),
	}
}

// Start sizes the bar for inputs. Without a terminal it does nothing.
func (p *progressReporter) Start(inputs []string) {
	if !p.terminal {
		return
	}
	var total int64
	for _, input := range inputs {
		if info, err := os.Stat(input); err == nil {
			total += info.Size()
		}
	}
	description := "converting"
	if len(inputs) == 1 {
		description = filepath.Base(inputs[0])
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// Update is installed as the converter's progress callback.
func (p *progressReporter) Update(path string, read, total int64, frames int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.terminal {
		if p.bar == nil {
			return
		}
		delta := read - p.seen[path]
		p.seen[path] = read
		if delta > 0 {
			_ = p.bar.Add64(delta)
		}
		return
	}
	if total <= 0 {
		return
	}
	sampler, ok := p.samplers[path]
	if !ok {
		sampler = logging.NewProgressSampler(25)
		p.samplers[path] = sampler
	}
	percent := float64(read) / float64(total) * 100
	if sampler.ShouldLog(path, percent) {
		p.logger.Info("conversion progress",
			logging.String(logging.FieldFile, path),
			logging.Float64("percent", percent),
			logging.Int("frames", frames),
		)
	}
}

// Finish completes and clears the bar.
func (p *progressReporter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
