// Package discover walks scan roots and sorts every regular file into
// container, other-video, subtitle, or skipped lists by extension.
//
// Discovery is read-only. The report output directory is pruned from the walk
// unless it is itself the root being walked, and every returned list is sorted
// so later stages see a deterministic order.
package discover
