package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"golfr/internal/fileutil"
	"golfr/internal/logging"
)

// Kind classifies a leftover artifact.
type Kind string

const (
	KindPartial Kind = "partial"
	KindWorkDir Kind = "work_dir"
	KindLock    Kind = "lock"
)

// Leftover is one scratch artifact found in an output directory.
type Leftover struct {
	Name    string
	Path    string
	Kind    Kind
	ModTime time.Time
	Size    int64
}

// CleanStaleResult contains the outcome of a stale artifact cleanup.
type CleanStaleResult struct {
	Removed []Leftover
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// Classify reports whether name, found directly in an output directory, is a
// golfr scratch artifact.
func Classify(name string, isDir bool) (Kind, bool) {
	switch {
	case isDir && strings.HasPrefix(name, fileutil.WorkDirPrefix):
		return KindWorkDir, true
	case !isDir && strings.HasSuffix(name, ".lock") && len(name) > len(".lock"):
		return KindLock, true
	case fileutil.IsPartial(name):
		return KindPartial, true
	default:
		return "", false
	}
}

// List returns the scratch artifacts directly inside dir, oldest first. A
// missing dir yields no entries.
func List(dir string) ([]Leftover, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var leftovers []Leftover
	for _, entry := range entries {
		kind, ok := Classify(entry.Name(), entry.IsDir())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		size := info.Size()
		if entry.IsDir() {
			size, _ = dirSize(path)
		}
		leftovers = append(leftovers, Leftover{
			Name:    entry.Name(),
			Path:    path,
			Kind:    kind,
			ModTime: info.ModTime(),
			Size:    size,
		})
	}
	sort.Slice(leftovers, func(i, j int) bool {
		return leftovers[i].ModTime.Before(leftovers[j].ModTime)
	})
	return leftovers, nil
}

// CleanStale removes scratch artifacts in dir older than maxAge. Lock files
// are only removed when no running conversion holds them.
func CleanStale(ctx context.Context, dir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}
	if logger == nil {
		logger = logging.NewNop()
	}

	leftovers, err := List(dir)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, l := range leftovers {
		if ctx.Err() != nil {
			break
		}
		if !l.ModTime.Before(cutoff) {
			continue
		}
		removed, err := remove(l)
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: l.Path, Error: err})
			logging.WarnWithContext(logger, "failed to remove stale output artifact", "staging_cleanup_failed",
				logging.String("path", l.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check output directory permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		if !removed {
			continue
		}
		result.Removed = append(result.Removed, l)
		logger.Info("removed stale output artifact",
			logging.String("path", l.Path),
			logging.String("kind", string(l.Kind)),
			logging.Duration("age", time.Since(l.ModTime).Round(time.Second)),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		)
	}
	return result
}

// remove deletes l. A lock held by a running conversion is left alone and
// reported as not removed.
func remove(l Leftover) (bool, error) {
	if l.Kind != KindLock {
		return true, fileutil.Discard(l.Path)
	}
	lock := flock.New(l.Path)
	locked, err := lock.TryLock()
	if err != nil {
		return false, err
	}
	if !locked {
		return false, nil
	}
	defer lock.Unlock()
	return true, os.Remove(l.Path)
}

// dirSize calculates the total size of a directory recursively.
func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
