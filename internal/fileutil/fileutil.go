package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
)

const (
	// PartialMarker sits between the stem and extension of TempSibling names.
	PartialMarker = ".partial"
	// WorkDirPrefix starts the name of scratch directories created next to an
	// output.
	WorkDirPrefix = ".golfr-"
)

// IsPartial reports whether name was produced by TempSibling.
func IsPartial(name string) bool {
	return strings.HasPrefix(name, ".") && strings.Contains(name, PartialMarker)
}

// TempSibling returns an unused-looking path next to target that keeps the
// target's extension, so encoders that infer the container from the suffix
// still work.
func TempSibling(target string) string {
	dir, base := filepath.Split(target)
	ext := extension(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s%s%s", stem, uuid.NewString()[:8], PartialMarker, ext))
}

// extension returns the final suffix of name, or "" for dot-files without one.
func extension(name string) string {
	ext := filepath.Ext(name)
	if ext == name {
		return ""
	}
	return ext
}

// CopyFile streams src to dst using io.Copy with default permissions (0o644).
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// MoveFile renames src to dst, falling back to copy and remove when the two
// paths sit on different filesystems.
func MoveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := CopyFile(src, dst); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

// Commit moves a finished temporary output into place. Directories (PNG
// sequences) replace an existing target directory only when overwrite is set.
func Commit(tmp, target string, overwrite bool) error {
	info, err := os.Stat(tmp)
	if err != nil {
		return fmt.Errorf("stat temporary output: %w", err)
	}
	if _, err := os.Lstat(target); err == nil {
		if !overwrite {
			return fmt.Errorf("%s: %w", target, os.ErrExist)
		}
		if info.IsDir() {
			if err := os.RemoveAll(target); err != nil {
				return fmt.Errorf("remove previous output: %w", err)
			}
		}
	}
	if info.IsDir() {
		return os.Rename(tmp, target)
	}
	return MoveFile(tmp, target)
}

// Discard removes a temporary output, file or directory. Missing paths are
// not an error.
func Discard(path string) error {
	if path == "" {
		return nil
	}
	if err := os.RemoveAll(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
