// Package probecache persists successful mkvmerge identification payloads in
// SQLite so repeated scans of an unchanged library skip the external tool.
//
// Entries are keyed by path and validated against the file's size and
// modification time; a stale entry is treated as a miss and overwritten on
// the next store.
package probecache
