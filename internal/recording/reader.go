package recording

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"golfr/internal/failure"
)

const (
	initialLineBuffer = 64 * 1024
	maxLineBytes      = 64 * 1024 * 1024
)

// Record is one parsed frame line.
type Record struct {
	// Line is the 1-based line number in the recording; the header is line 1.
	Line    int
	Indices []int
}

// Reader streams a recording one line at a time. Header must be called
// before Scan. A Reader is not safe for concurrent use.
type Reader struct {
	path    string
	closers []io.Closer
	counter *countingReader
	total   int64
	scanner *bufio.Scanner

	line    int
	size    int
	text    string
	indices []int
	err     error
}

// Open opens the recording at path. Files ending in ".gz" are decompressed
// on the fly.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, failure.Wrap(failure.ErrIO, path, 0, "open recording", err)
	}
	var total int64
	if info, statErr := file.Stat(); statErr == nil {
		total = info.Size()
	}

	counter := &countingReader{r: file}
	var src io.Reader = counter
	closers := []io.Closer{file}
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(counter)
		if err != nil {
			_ = file.Close()
			return nil, failure.Wrap(failure.ErrIO, path, 0, "open gzip stream", err)
		}
		src = gz
		closers = append([]io.Closer{gz}, closers...)
	}

	r := NewReader(src, path)
	r.closers = closers
	r.counter = counter
	r.total = total
	return r, nil
}

// NewReader wraps an already open stream. name is used in error messages.
func NewReader(src io.Reader, name string) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), maxLineBytes)
	return &Reader{path: name, scanner: scanner}
}

// Path returns the name the reader reports in errors.
func (r *Reader) Path() string {
	return r.path
}

// Header reads and parses the first line. Calling it again returns the cached
// size.
func (r *Reader) Header() (int, error) {
	if r.size > 0 {
		return r.size, nil
	}
	if r.line > 0 {
		return 0, failure.Wrap(failure.ErrInvalidHeader, r.path, 1, "", errors.New("header already consumed"))
	}
	if !r.advance() {
		if r.err != nil {
			return 0, r.err
		}
		return 0, failure.Wrap(failure.ErrInvalidHeader, r.path, 1, "", errors.New("recording is empty"))
	}
	size, err := ParseHeader(r.text)
	if err != nil {
		return 0, failure.At(err, failure.ErrInvalidHeader, r.path, r.line)
	}
	r.size = size
	return size, nil
}

// GridSize returns the size parsed by Header, or zero before Header succeeds.
func (r *Reader) GridSize() int {
	return r.size
}

// Scan advances to the next frame line. It returns false at end of input or
// on a read error; Err distinguishes the two.
func (r *Reader) Scan() bool {
	if r.size == 0 {
		if r.err == nil {
			r.err = failure.Wrap(failure.ErrInvalidHeader, r.path, 1, "", errors.New("header not read"))
		}
		return false
	}
	return r.advance()
}

// Text returns the raw text of the current line.
func (r *Reader) Text() string {
	return r.text
}

// LineNumber returns the 1-based number of the current line.
func (r *Reader) LineNumber() int {
	return r.line
}

// Record parses the current line. The returned Indices alias a buffer that is
// reused by the next call.
func (r *Reader) Record() (Record, error) {
	indices, err := AppendRecord(r.indices[:0], r.text, r.size)
	r.indices = indices
	if err != nil {
		return Record{Line: r.line}, failure.At(err, failure.ErrMalformedRecord, r.path, r.line)
	}
	return Record{Line: r.line, Indices: indices}, nil
}

// Err returns the first read error encountered, if any.
func (r *Reader) Err() error {
	return r.err
}

// Progress reports the bytes consumed from the underlying file and its total
// size. For compressed files both values refer to the compressed stream.
func (r *Reader) Progress() (read, total int64) {
	if r.counter == nil {
		return 0, 0
	}
	return r.counter.n.Load(), r.total
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

func (r *Reader) advance() bool {
	if r.err != nil {
		return false
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				r.err = failure.Wrap(failure.ErrMalformedRecord, r.path, r.line+1, "",
					fmt.Errorf("line exceeds %d bytes", maxLineBytes))
			} else {
				r.err = failure.Wrap(failure.ErrIO, r.path, r.line+1, "read recording", err)
			}
		}
		r.text = ""
		return false
	}
	r.line++
	r.text = r.scanner.Text()
	return true
}

type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}
