// Package preflight provides readiness checks for the binaries, directories,
// and filesystem features trackscan depends on.
//
// These checks run in two contexts:
//   - The scan and hevc commands call RunAll before discovery so a doomed run
//     fails before any file is probed.
//   - The CLI "trackscan status" command displays every check alongside the
//     dependency table.
package preflight
