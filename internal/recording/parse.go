package recording

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golfr/internal/failure"
)

// MaxSize bounds the grid side length so size*size always fits an int on
// 32-bit platforms.
const MaxSize = 46340

var errEmptyToken = errors.New("empty index")

// ParseHeader parses the first line of a recording into the grid side length.
// Errors are tagged failure.ErrInvalidHeader.
func ParseHeader(line string) (int, error) {
	size, err := parseHeader(line)
	if err != nil {
		return 0, failure.Wrap(failure.ErrInvalidHeader, "", 0, "", err)
	}
	return size, nil
}

func parseHeader(line string) (int, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
	if trimmed == "" {
		return 0, errors.New("missing grid size")
	}
	size, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("grid size %q is not an integer", trimmed)
	}
	if size <= 0 {
		return 0, fmt.Errorf("grid size %d must be positive", size)
	}
	if size > MaxSize {
		return 0, fmt.Errorf("grid size %d exceeds %d", size, MaxSize)
	}
	return size, nil
}

// ParseRecord parses one frame line into the flattened indices of its active
// cells. An empty line is a frame with no active cells.
func ParseRecord(line string, size int) ([]int, error) {
	return AppendRecord(nil, line, size)
}

// AppendRecord is ParseRecord appending into dst, so a caller can reuse one
// index slice across lines. dst is returned truncated to its original length
// on error. Errors are tagged failure.ErrMalformedRecord.
func AppendRecord(dst []int, line string, size int) ([]int, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return dst, nil
	}
	base := len(dst)
	limit := size * size
	column := 1
	rest := line
	for {
		token, tail, more := strings.Cut(rest, ",")
		index, err := parseIndex(token, limit)
		if err != nil {
			return dst[:base], failure.Wrap(failure.ErrMalformedRecord, "", 0, fmt.Sprintf("token %d", column), err)
		}
		dst = append(dst, index)
		if !more {
			return dst, nil
		}
		rest = tail
		column++
	}
}

func parseIndex(token string, limit int) (int, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, errEmptyToken
	}
	value, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", token)
	}
	if value < 0 || value >= limit {
		return 0, fmt.Errorf("index %d outside [0, %d)", value, limit)
	}
	return value, nil
}
