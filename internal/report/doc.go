// Package report persists classified row groups as CSV files and renders the
// run summary.
//
// File names carry the run timestamp and never overwrite an existing report:
// a collision adds a numeric suffix. When a batch size is configured a bucket
// is split into numbered parts on file-group boundaries. Dry-run writers only
// compute and log the paths they would produce.
package report
