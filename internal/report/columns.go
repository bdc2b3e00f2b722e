package report

import "trackscan/internal/track"

// Column maps a record field onto a CSV header.
type Column struct {
	Key    string
	Header string
}

// Record is anything that can supply a value per column key.
type Record interface {
	Field(key string) string
}

// Fields is a map-backed record.
type Fields map[string]string

// Field returns the value stored under key.
func (f Fields) Field(key string) string { return f[key] }

func columns(keys ...string) []Column {
	out := make([]Column, len(keys))
	for i, key := range keys {
		out[i] = Column{Key: key, Header: key}
	}
	return out
}

var (
	TrackColumns = columns(
		"tags", "output_filename", "type", "id", "name", "edited_name", "lang",
		"codec", "default", "forced", "encoding", "input_path", "output_path",
	)
	NonHEVCColumns   = columns("output_filename", "codec", "tags", "input_path", "output_path")
	GoodColumns      = columns("filename", "tags", "path")
	FailureColumns   = columns("filename", "path", "failure_reason")
	SkippedColumns   = columns("filename", "path", "skipped_reason")
	UnmatchedColumns = columns("filename", "path")
)

// TrackGroups converts file groups into record groups.
func TrackGroups(groups []track.Group) [][]Record {
	out := make([][]Record, 0, len(groups))
	for _, g := range groups {
		records := make([]Record, len(g.Rows))
		for i, row := range g.Rows {
			records[i] = row
		}
		out = append(out, records)
	}
	return out
}

// Each wraps every item as its own single-record group.
func Each[T Record](items []T) [][]Record {
	out := make([][]Record, 0, len(items))
	for _, item := range items {
		out = append(out, []Record{item})
	}
	return out
}
