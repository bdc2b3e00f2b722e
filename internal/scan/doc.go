// Package scan runs the classification pipeline over a set of root
// directories.
//
// A run discovers files, diverts files tagged "final", probes the rest on a
// bounded worker pool, normalizes their tracks, separates probe failures and
// broken files, pairs loose subtitles with videos, and classifies the four
// candidate pools. Every discovered file ends up in exactly one terminal
// bucket; the non-HEVC list is an additional view over the candidate pools.
package scan
