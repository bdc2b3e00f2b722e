package classify

import (
	"trackscan/internal/rules"
	"trackscan/internal/track"
)

// Resolver returns the language rules for a file path. *rules.Set satisfies it.
type Resolver interface {
	For(path string) rules.Rules
}

// Issue names an issue bucket.
type Issue string

const (
	IssueNoSubtitles  Issue = "0_subs"
	IssueMultiSubs    Issue = "multi_subs"
	IssueMultiVideos  Issue = "multi_vids"
	IssueMultiAudio   Issue = "multi_aud"
	IssueLangMismatch Issue = "lang_mismatch"
	IssueMultiple     Issue = "multi_issue"
	IssueUnclassified Issue = "other_issue"
)

// Issues lists every issue bucket in report order.
var Issues = []Issue{
	IssueNoSubtitles,
	IssueMultiSubs,
	IssueMultiVideos,
	IssueMultiAudio,
	IssueLangMismatch,
	IssueMultiple,
	IssueUnclassified,
}

// Counts are the per-type track counts of one file group.
type Counts struct {
	Video     int
	Audio     int
	Subtitles int
}

// CountTracks counts the tracks of each type in a group.
func CountTracks(g track.Group) Counts {
	return Counts{
		Video:     g.Count(track.TypeVideo),
		Audio:     g.Count(track.TypeAudio),
		Subtitles: g.Count(track.TypeSubtitles),
	}
}

// HasIssues reports whether a group needs attention under r: more than one
// video or audio track, no subtitles, or any track whose language fails its
// allow-list.
func HasIssues(g track.Group, r rules.Rules) bool {
	c := CountTracks(g)
	if c.Video > 1 || c.Audio > 1 || c.Subtitles == 0 {
		return true
	}
	for _, row := range g.Rows {
		if !r.Allows(row) {
			return true
		}
	}
	return false
}

// Split groups rows by file and partitions the groups into OK and issues.
// Group order follows first appearance in rows.
func Split(rows []track.Row, resolver Resolver) (ok, issues []track.Group) {
	for _, g := range track.GroupRows(rows) {
		if HasIssues(g, resolver.For(g.SourcePath())) {
			issues = append(issues, g)
		} else {
			ok = append(ok, g)
		}
	}
	return ok, issues
}

// HasNameMismatch reports whether any row's name differs from its suggested
// name.
func HasNameMismatch(g track.Group) bool {
	for _, row := range g.Rows {
		if row.NameMismatch() {
			return true
		}
	}
	return false
}

// SplitNameMismatch partitions OK groups into clean and name-mismatch groups.
func SplitNameMismatch(groups []track.Group) (clean, mismatch []track.Group) {
	for _, g := range groups {
		if HasNameMismatch(g) {
			mismatch = append(mismatch, g)
		} else {
			clean = append(clean, g)
		}
	}
	return clean, mismatch
}

// Causes returns the independent issue causes of a group, in Issues order.
// Video-track language failures make a group an issue group but are not a
// cause of their own.
func Causes(g track.Group, r rules.Rules) []Issue {
	c := CountTracks(g)
	var causes []Issue
	if c.Subtitles == 0 {
		causes = append(causes, IssueNoSubtitles)
	}
	if c.Subtitles > 1 {
		causes = append(causes, IssueMultiSubs)
	}
	if c.Video > 1 {
		causes = append(causes, IssueMultiVideos)
	}
	if c.Audio > 1 {
		causes = append(causes, IssueMultiAudio)
	}
	for _, row := range g.Rows {
		if (row.Type == track.TypeAudio || row.Type == track.TypeSubtitles) && !r.Allows(row) {
			causes = append(causes, IssueLangMismatch)
			break
		}
	}
	return causes
}

// Bucket picks the single issue bucket for a group: its only cause, multi_issue
// for two or more causes, other_issue for none.
func Bucket(g track.Group, r rules.Rules) Issue {
	causes := Causes(g, r)
	switch len(causes) {
	case 0:
		return IssueUnclassified
	case 1:
		return causes[0]
	default:
		return IssueMultiple
	}
}

// BucketIssues routes every issue group to exactly one bucket. Group order
// within a bucket follows the input order.
func BucketIssues(groups []track.Group, resolver Resolver) map[Issue][]track.Group {
	out := make(map[Issue][]track.Group)
	for _, g := range groups {
		issue := Bucket(g, resolver.For(g.SourcePath()))
		out[issue] = append(out[issue], g)
	}
	return out
}

// Outcome is the full classification of one candidate pool.
type Outcome struct {
	OK           []track.Group
	NameMismatch []track.Group
	Issues       map[Issue][]track.Group
}

// Classify runs Split, SplitNameMismatch, and BucketIssues over a pool.
func Classify(rows []track.Row, resolver Resolver) Outcome {
	ok, issues := Split(rows, resolver)
	clean, mismatch := SplitNameMismatch(ok)
	return Outcome{
		OK:           clean,
		NameMismatch: mismatch,
		Issues:       BucketIssues(issues, resolver),
	}
}

// Groups returns the number of groups across every bucket of the outcome.
func (o Outcome) Groups() int {
	n := len(o.OK) + len(o.NameMismatch)
	for _, groups := range o.Issues {
		n += len(groups)
	}
	return n
}
