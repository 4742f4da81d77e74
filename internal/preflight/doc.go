// Package preflight provides readiness checks for the binaries and
// filesystem paths golfr depends on.
//
// The CLI "golfr doctor" command prints every result. "golfr convert" runs
// the same checks first and refuses to start when one fails, so a batch does
// not discover a missing ffmpeg on its first file.
//
// Checks are gated by configuration: ffmpeg is only required for formats that
// shell out to it, and directories are only checked when configured.
package preflight
