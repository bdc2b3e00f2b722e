package track

// Group is the set of rows that share a grouping key, usually every track of
// one output file.
type Group struct {
	Key  string
	Rows []Row
}

// GroupRows groups rows by GroupKey, preserving first-appearance order of both
// groups and rows.
func GroupRows(rows []Row) []Group {
	index := make(map[string]int, len(rows))
	groups := make([]Group, 0)
	for _, row := range rows {
		key := row.GroupKey()
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, Group{Key: key})
		}
		groups[pos].Rows = append(groups[pos].Rows, row)
	}
	return groups
}

// Count returns the number of rows of the given type.
func (g Group) Count(t Type) int {
	n := 0
	for _, row := range g.Rows {
		if row.Type == t {
			n++
		}
	}
	return n
}

// SourcePath returns the path used to resolve per-section rules: the first
// video row's source, else the first row's.
func (g Group) SourcePath() string {
	for _, row := range g.Rows {
		if row.Type == TypeVideo && row.Path != "" {
			return row.Path
		}
	}
	if len(g.Rows) == 0 {
		return ""
	}
	if g.Rows[0].InputPath != "" {
		return g.Rows[0].InputPath
	}
	return g.Rows[0].Path
}

// NextID returns one more than the largest numeric row ID, or 0 when no row
// has a numeric ID.
func NextID(rows []Row) int {
	next := 0
	for _, row := range rows {
		if id, ok := row.NumericID(); ok && id+1 > next {
			next = id + 1
		}
	}
	return next
}

// Probe is the outcome of probing one file: either rows or a failure reason.
type Probe struct {
	Path    string
	Rows    []Row
	Failure string
}

// Failed reports whether the probe produced no usable payload.
func (p Probe) Failed() bool {
	return p.Failure != ""
}

// Broken reports whether a probed video lacks a video or an audio track.
func (p Probe) Broken() bool {
	var video, audio bool
	for _, row := range p.Rows {
		switch row.Type {
		case TypeVideo:
			video = true
		case TypeAudio:
			audio = true
		}
	}
	return !video || !audio
}
