// Package track defines the normalized per-track row that flows through the
// scan pipeline, the file groups built from those rows, and the normalizer
// that turns raw mkvmerge track entries into rows.
//
// Rows are plain values. Every pipeline stage returns new slices instead of
// mutating its input, so a row can be shared between a bucket and the
// non-HEVC view without aliasing surprises.
package track
