package scan

import (
	"path/filepath"
	"time"

	"trackscan/internal/classify"
	"trackscan/internal/config"
	"trackscan/internal/discover"
	"trackscan/internal/report"
	"trackscan/internal/submatch"
	"trackscan/internal/track"
)

// Bucket names that do not belong to a candidate pool.
const (
	BucketGood      = "good_mkv"
	BucketBrokenMKV = "broken_mkv"
	BucketBrokenVid = "broken_vid"
	BucketFailures  = "failures"
	BucketSkipped   = "skipped"
	BucketUnmatched = "unmatched_subs"
	BucketNonHEVC   = "non_hevc"
)

// Pool identifies one of the four candidate pools.
type Pool struct {
	// External marks pools whose videos received loose subtitles.
	External bool
	// Container marks pools of container-extension videos.
	Container bool
}

var pools = []Pool{
	{External: false, Container: true},
	{External: false, Container: false},
	{External: true, Container: true},
	{External: true, Container: false},
}

// BucketName builds the pool-qualified bucket name, e.g. "ok_mkv" or
// "ext_sub_multi_aud_vid".
func (p Pool) BucketName(bucket string) string {
	name := bucket
	if p.External {
		name = "ext_sub_" + name
	}
	if p.Container {
		return name + "_mkv"
	}
	return name + "_vid"
}

func (p Pool) String() string {
	name := "vid"
	if p.Container {
		name = "mkv"
	}
	if p.External {
		return "ext_sub_" + name
	}
	return name
}

// PoolOutcome is the classification of one candidate pool.
type PoolOutcome struct {
	Pool    Pool
	Outcome classify.Outcome
}

// GoodFile is a file already tagged final.
type GoodFile struct {
	Filename string
	Tags     string
	Path     string
}

// Field implements report.Record.
func (g GoodFile) Field(key string) string {
	switch key {
	case "filename":
		return g.Filename
	case "tags":
		return g.Tags
	case "path":
		return g.Path
	default:
		return ""
	}
}

// Failure is a file whose probe produced no usable payload.
type Failure struct {
	Filename string
	Path     string
	Reason   string
	Kind     string
}

// Field implements report.Record.
func (f Failure) Field(key string) string {
	switch key {
	case "filename":
		return f.Filename
	case "path":
		return f.Path
	case "failure_reason":
		return f.Reason
	case "failure_kind":
		return f.Kind
	default:
		return ""
	}
}

// Unmatched is a subtitle file no video claimed.
type Unmatched struct {
	Path string
}

// Field implements report.Record.
func (u Unmatched) Field(key string) string {
	switch key {
	case "filename":
		return filepath.Base(u.Path)
	case "path":
		return u.Path
	default:
		return ""
	}
}

// Result holds every bucket produced by a run.
type Result struct {
	RunID     string
	Started   time.Time
	Elapsed   time.Duration
	Roots     []string
	Inventory discover.Inventory

	Good      []GoodFile
	Failures  []Failure
	Skipped   []discover.Skipped
	BrokenMKV []track.Group
	BrokenVid []track.Group
	Unmatched []Unmatched
	Pools     []PoolOutcome
	Pairs     []submatch.Pair
	NonHEVC   []track.Row
}

// Bucket is one named, report-ready slice of a result.
type Bucket struct {
	Name     string
	Category string
	Columns  []report.Column
	Groups   [][]report.Record
	// Terminal buckets partition the discovered files; non-terminal buckets
	// are additional views.
	Terminal bool
}

// Files returns the number of file groups in the bucket.
func (b Bucket) Files() int { return len(b.Groups) }

// Rows returns the number of records in the bucket.
func (b Bucket) Rows() int {
	n := 0
	for _, g := range b.Groups {
		n += len(g)
	}
	return n
}

// Buckets lists every bucket in report order, empty ones included.
func (r *Result) Buckets() []Bucket {
	out := []Bucket{
		{Name: BucketGood, Category: config.CategoryGood, Columns: report.GoodColumns, Groups: report.Each(r.Good), Terminal: true},
		{Name: BucketBrokenMKV, Category: config.CategoryBroken, Columns: report.TrackColumns, Groups: report.TrackGroups(r.BrokenMKV), Terminal: true},
		{Name: BucketBrokenVid, Category: config.CategoryBroken, Columns: report.TrackColumns, Groups: report.TrackGroups(r.BrokenVid), Terminal: true},
		{Name: BucketFailures, Category: config.CategoryFailures, Columns: report.FailureColumns, Groups: report.Each(r.Failures), Terminal: true},
		{Name: BucketSkipped, Category: config.CategorySkipped, Columns: report.SkippedColumns, Groups: report.Each(r.Skipped), Terminal: true},
		{Name: BucketUnmatched, Category: config.CategoryUnmatched, Columns: report.UnmatchedColumns, Groups: report.Each(r.Unmatched), Terminal: true},
	}
	for _, p := range r.Pools {
		okCategory, mismatchCategory, issueCategory := config.CategoryOK, config.CategoryNameMismatch, config.CategoryIssues
		if p.Pool.External {
			okCategory, mismatchCategory, issueCategory = config.CategoryExternalSubs, config.CategoryExternalSubs, config.CategoryExternalSubs
		}
		out = append(out,
			Bucket{Name: p.Pool.BucketName("ok"), Category: okCategory, Columns: report.TrackColumns, Groups: report.TrackGroups(p.Outcome.OK), Terminal: true},
			Bucket{Name: p.Pool.BucketName("name_mismatch"), Category: mismatchCategory, Columns: report.TrackColumns, Groups: report.TrackGroups(p.Outcome.NameMismatch), Terminal: true},
		)
		for _, issue := range classify.Issues {
			out = append(out, Bucket{
				Name:     p.Pool.BucketName(string(issue)),
				Category: issueCategory,
				Columns:  report.TrackColumns,
				Groups:   report.TrackGroups(p.Outcome.Issues[issue]),
				Terminal: true,
			})
		}
	}
	nonHEVC := make([][]report.Record, 0, len(r.NonHEVC))
	for _, row := range r.NonHEVC {
		nonHEVC = append(nonHEVC, []report.Record{row})
	}
	out = append(out, Bucket{Name: BucketNonHEVC, Category: config.CategoryNonHEVC, Columns: report.NonHEVCColumns, Groups: nonHEVC})
	return out
}

// Placement maps every discovered path to the terminal bucket holding it.
// Subtitle files merged into a video group map to that video's bucket.
func (r *Result) Placement() map[string]string {
	out := make(map[string]string, r.Inventory.Total())
	for _, b := range r.Buckets() {
		if !b.Terminal {
			continue
		}
		for _, g := range b.Groups {
			for _, rec := range g {
				if path := recordSource(rec); path != "" {
					out[path] = b.Name
				}
			}
		}
	}
	return out
}

func recordSource(rec report.Record) string {
	if path := rec.Field("input_path"); path != "" {
		return path
	}
	return rec.Field("path")
}

// Totals summarizes the file and row counts of every non-empty bucket.
func (r *Result) Totals() []report.Total {
	var out []report.Total
	for _, b := range r.Buckets() {
		if b.Files() == 0 {
			continue
		}
		out = append(out, report.Total{Bucket: b.Name, Files: b.Files(), Rows: b.Rows(), View: !b.Terminal})
	}
	return out
}
