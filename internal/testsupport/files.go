package testsupport

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// RecordingText renders a recording body: the size line followed by one
// comma-joined line per frame.
func RecordingText(size int, frames [][]int) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(size))
	b.WriteByte('\n')
	for _, frame := range frames {
		for i, idx := range frame {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(idx))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteText writes content to dir/name, creating dir as needed, and returns
// the full path.
func WriteText(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteRecording writes a recording built by RecordingText.
func WriteRecording(t testing.TB, dir, name string, size int, frames [][]int) string {
	t.Helper()
	return WriteText(t, dir, name, RecordingText(size, frames))
}

// WriteGzip writes content gzip-compressed to dir/name.
func WriteGzip(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip %s: %v", path, err)
	}
	return path
}
