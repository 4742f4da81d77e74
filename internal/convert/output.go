package convert

import (
	"os"
	"path/filepath"
	"strings"

	"golfr/internal/failure"
)

// OutputPath returns where input's video is written: the configured output
// directory, or the input's own directory, joined with the recording stem and
// the format's extension.
func (c *Converter) OutputPath(input string) string {
	dir := c.cfg.Output.Dir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, c.Stem(input)+c.ext)
}

// LockPath returns the hidden lock file guarding output.
func LockPath(output string) string {
	dir, base := filepath.Split(output)
	return filepath.Join(dir, "."+base+".lock")
}

// Stem strips a recognized recording extension from input's base name, or
// the last extension when none matches.
func (c *Converter) Stem(input string) string {
	base := filepath.Base(input)
	if ext, ok := c.cfg.HasExtension(base); ok {
		return base[:len(base)-len(ext)]
	}
	if ext := filepath.Ext(base); ext != "" && ext != base {
		return strings.TrimSuffix(base, ext)
	}
	return base
}

// Discover lists the recordings directly inside dir, sorted by name.
// Subdirectories are not descended into.
func (c *Converter) Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, failure.Wrap(failure.ErrIO, dir, 0, "list directory", err)
	}
	var paths []string
	for _, entry := range entries {
		if _, ok := c.cfg.HasExtension(entry.Name()); !ok {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if entry.Type()&os.ModeSymlink != 0 {
			info, statErr := os.Stat(path)
			if statErr != nil || !info.Mode().IsRegular() {
				continue
			}
		} else if !entry.Type().IsRegular() {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}
