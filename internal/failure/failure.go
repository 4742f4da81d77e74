package failure

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidHeader   = errors.New("invalid header")
	ErrEmptyRecording  = errors.New("empty recording")
	ErrMalformedRecord = errors.New("malformed record")
	ErrIO              = errors.New("io failure")
	ErrExternalTool    = errors.New("external tool error")
	ErrConfiguration   = errors.New("configuration error")
)

// Error carries a failure kind together with the file and line it relates to.
// Line is 1-based; zero means the failure is not tied to a line.
type Error struct {
	Kind error
	Path string
	Line int
	Op   string
	Err  error
}

// Wrap tags err with one of the exported kinds and the location it occurred at.
// A nil kind is treated as ErrIO.
func Wrap(kind error, path string, line int, op string, err error) error {
	if kind == nil {
		kind = ErrIO
	}
	return &Error{Kind: kind, Path: path, Line: line, Op: strings.TrimSpace(op), Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Path != "" {
		b.WriteString(": ")
		b.WriteString(e.Path)
		if e.Line > 0 {
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(e.Line))
		}
	}
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns a stable snake_case label for the failure kind in err.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidHeader):
		return "invalid_header"
	case errors.Is(err, ErrEmptyRecording):
		return "empty_recording"
	case errors.Is(err, ErrMalformedRecord):
		return "malformed_record"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrIO):
		return "io"
	default:
		return "unknown"
	}
}

// Location extracts the file and line recorded by Wrap, if any.
func Location(err error) (string, int) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Path, fe.Line
	}
	return "", 0
}

// Errorf is a shorthand for Wrap with a formatted cause.
func Errorf(kind error, path string, line int, format string, args ...any) error {
	return Wrap(kind, path, line, "", fmt.Errorf(format, args...))
}

// At returns err with its location set to path and line. Errors that were not
// produced by Wrap are tagged with fallback.
func At(err error, fallback error, path string, line int) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		located := *fe
		located.Path = path
		if line > 0 {
			located.Line = line
		}
		return &located
	}
	return Wrap(fallback, path, line, "", err)
}
