// Package grid partitions a located table image into cell sub-images.
//
// A [Spec] holds two ordered sequences of fractional boundaries, one for rows and one
// for columns. Each boundary is multiplied by the image height (rows) or width
// (columns) and truncated to an integer pixel offset. Cell (i, j) spans
// [rows[i], rows[i+1]) vertically and [cols[j], cols[j+1]) horizontally, so the cells
// of a spec that starts at 0 and ends at 1 tile the image with no gap or overlap.
//
// Near-duplicate boundaries can truncate to the same pixel. Such a cell has a
// zero-area rectangle and an empty image; segmentation still succeeds.
package grid
