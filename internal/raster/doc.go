// Package raster converts active-cell sets into upsampled grayscale frames.
//
// Rendering is two steps: the size×size base grid is filled with Inactive and
// every active index is set to Active, then each cell is replicated into a
// resolution×resolution block (nearest neighbour, never interpolated). Output
// depends only on size, resolution and the index set.
package raster
