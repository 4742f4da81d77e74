// Package logs reads golfr.log for the CLI.
//
// Last-N reads scan backwards from the end of the file in fixed-size blocks,
// so memory stays bounded regardless of log size. Follow mode polls for
// appended lines until the caller's context ends and copes with the file
// being truncated underneath it.
package logs
