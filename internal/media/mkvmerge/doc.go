// Package mkvmerge wraps `mkvmerge -J` identification.
//
// Client runs the external tool through an injectable Executor under a
// per-call timeout and returns a Result that exposes the JSON payload through
// gjson, so callers can resolve the several key spellings mkvmerge versions
// have used without maintaining parallel struct definitions.
package mkvmerge
