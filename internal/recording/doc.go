// Package recording reads golfr recordings.
//
// A recording is line oriented: the first line holds the grid side length and
// every following line lists the flattened, row-major indices of the cells
// that are active in one frame, separated by commas. An empty line is a frame
// with no active cells. Files ending in ".gz" are decompressed transparently.
//
// Reader streams a file line by line so arbitrarily long recordings never sit
// in memory; ParseHeader and ParseRecord are exposed for callers that already
// hold a line.
package recording
