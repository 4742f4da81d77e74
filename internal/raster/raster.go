package raster

import (
	"fmt"
	"image"
	"math"
)

// Cell intensities. No other values ever appear in a frame.
const (
	Inactive uint8 = 255
	Active   uint8 = 0
)

// Frame is a single-channel raster, row-major, top row first.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

// Image returns the frame as an *image.Gray sharing Pix.
func (f Frame) Image() *image.Gray {
	return &image.Gray{Pix: f.Pix, Stride: f.Width, Rect: image.Rect(0, 0, f.Width, f.Height)}
}

// Clone returns a frame with its own copy of the pixels.
func (f Frame) Clone() Frame {
	f.Pix = append([]uint8(nil), f.Pix...)
	return f
}

// At returns the intensity at column x, row y.
func (f Frame) At(x, y int) uint8 {
	return f.Pix[y*f.Width+x]
}

// Rasterizer turns sets of active cell indices into upsampled frames. It owns
// a base grid and a frame buffer that are reused for every Render call, so a
// Rasterizer must not be shared between goroutines.
type Rasterizer struct {
	size       int
	resolution int
	grid       []uint8
	frame      []uint8
}

// New allocates a rasterizer for a size×size grid magnified by resolution.
func New(size, resolution int) (*Rasterizer, error) {
	side, err := Dimension(size, resolution)
	if err != nil {
		return nil, err
	}
	return &Rasterizer{
		size:       size,
		resolution: resolution,
		grid:       make([]uint8, size*size),
		frame:      make([]uint8, side*side),
	}, nil
}

// Dimension returns the side length in pixels of frames for the given grid
// size and resolution.
func Dimension(size, resolution int) (int, error) {
	if size <= 0 {
		return 0, fmt.Errorf("grid size %d must be positive", size)
	}
	if resolution <= 0 {
		return 0, fmt.Errorf("resolution %d must be positive", resolution)
	}
	if size > math.MaxInt32/resolution {
		return 0, fmt.Errorf("frame side %d×%d overflows", size, resolution)
	}
	side := size * resolution
	if side > math.MaxInt32/side {
		return 0, fmt.Errorf("frame of %d×%d pixels is too large", side, side)
	}
	return side, nil
}

// Size returns the grid side length in cells.
func (r *Rasterizer) Size() int { return r.size }

// Resolution returns the per-cell magnification.
func (r *Rasterizer) Resolution() int { return r.resolution }

// Side returns the frame side length in pixels.
func (r *Rasterizer) Side() int { return r.size * r.resolution }

// Render rasterizes one set of active indices. The returned frame aliases the
// rasterizer's buffer and stays valid until the next call to Render.
func (r *Rasterizer) Render(active []int) (Frame, error) {
	if err := Fill(r.grid, r.size, active); err != nil {
		return Frame{}, err
	}
	Upsample(r.frame, r.grid, r.size, r.resolution)
	side := r.Side()
	return Frame{Width: side, Height: side, Pix: r.frame}, nil
}

// Rasterize is the allocating form of Render.
func Rasterize(size, resolution int, active []int) (Frame, error) {
	r, err := New(size, resolution)
	if err != nil {
		return Frame{}, err
	}
	return r.Render(active)
}

// Fill resets grid to Inactive and marks every index in active as Active.
// grid must hold size*size cells.
func Fill(grid []uint8, size int, active []int) error {
	limit := size * size
	if len(grid) != limit {
		return fmt.Errorf("grid holds %d cells, want %d", len(grid), limit)
	}
	for i := range grid {
		grid[i] = Inactive
	}
	for _, idx := range active {
		if idx < 0 || idx >= limit {
			return fmt.Errorf("index %d outside [0, %d)", idx, limit)
		}
		grid[idx] = Active
	}
	return nil
}

// Upsample expands a size×size grid into dst by replicating every cell into a
// resolution×resolution block. dst must hold (size*resolution)² pixels.
func Upsample(dst, grid []uint8, size, resolution int) {
	side := size * resolution
	for row := 0; row < size; row++ {
		src := grid[row*size : (row+1)*size]
		first := dst[row*resolution*side : (row*resolution+1)*side]
		if resolution == 1 {
			copy(first, src)
			continue
		}
		for col, v := range src {
			block := first[col*resolution : (col+1)*resolution]
			for i := range block {
				block[i] = v
			}
		}
		for rep := 1; rep < resolution; rep++ {
			start := (row*resolution + rep) * side
			copy(dst[start:start+side], first)
		}
	}
}
