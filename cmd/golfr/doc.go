// Package main hosts the golfr CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into conversions,
// recording inspection, single-frame snapshots, history maintenance and
// configuration scaffolding. It centralizes configuration resolution and
// logger setup so subcommands can focus on output.
//
// Keep this package lean: add new functionality to the internal packages
// first, then surface it through dedicated commands or flags here.
package main
