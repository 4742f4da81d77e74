// Package config loads, normalizes, and validates golfr configuration data.
//
// It supplies repository defaults (resolution 10, 30 fps, mp4 output), expands
// user paths including tilde shortcuts, reads TOML files, and honours the
// GOLFR_FFMPEG environment fallback. The Config type is passed explicitly into
// the conversion entry points so the core never reads process-wide state.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical format names, and clear validation errors.
package config
