// Package sink writes rasterized frames into video containers and image
// files.
//
// A Sink accepts frames strictly in order and finalizes its output on Close.
// The ffmpeg-backed formats (mp4, mkv, webm) pipe raw gray frames into an
// ffmpeg child process; av1 first writes a lossless FFV1 intermediate and
// then hands it to the drapto encoder library. gif and png are produced in
// process with the image encoders from the standard library.
//
// Sinks never retain the frame passed to WriteFrame beyond the call unless
// they copy it, so callers may reuse the frame buffer.
package sink
