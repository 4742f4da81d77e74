// Package convert drives recordings through the parse, rasterize and encode
// pipeline.
//
// ConvertFile handles one recording as a small state machine: open the
// reader, parse the header, read the first frame, open the sink, then write
// every frame strictly in line order. Output is written to a temporary
// sibling and renamed into place only after the sink closes cleanly, so a
// failed conversion never leaves a truncated video behind. Invalid headers and
// recordings without frames are detected before any output is created.
//
// Batch converts every recording in a directory and keeps going after
// failures; Run picks single-file or batch mode from the path. Results are
// always reported in discovery order, even with several workers.
package convert
