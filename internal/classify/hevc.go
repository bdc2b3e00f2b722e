package classify

import (
	"sort"
	"strings"

	"trackscan/internal/track"
)

// NonHEVC returns one summary row per source file whose video tracks never
// mention HEVC in their codec. The row's codec lists the distinct codecs,
// sorted and comma separated. Output is sorted by output path, then source.
// Sources are kept apart even when they share an output path, so Movie.mp4
// still shows up next to an HEVC Movie.mkv.
func NonHEVC(rows []track.Row) []track.Row {
	type entry struct {
		row    track.Row
		codecs map[string]struct{}
	}
	byFile := make(map[string]*entry)
	for _, row := range rows {
		if row.Type != track.TypeVideo {
			continue
		}
		key := row.InputPath
		if key == "" {
			key = row.Path
		}
		if key == "" {
			key = row.OutputPath
		}
		e, ok := byFile[key]
		if !ok {
			e = &entry{row: row, codecs: make(map[string]struct{})}
			byFile[key] = e
		}
		if codec := strings.TrimSpace(row.Codec); codec != "" {
			e.codecs[codec] = struct{}{}
		}
	}

	keys := make([]string, 0, len(byFile))
	for key := range byFile {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := byFile[keys[i]].row.OutputPath, byFile[keys[j]].row.OutputPath
		if a != b {
			return a < b
		}
		return keys[i] < keys[j]
	})

	out := make([]track.Row, 0)
	for _, key := range keys {
		e := byFile[key]
		codecs := make([]string, 0, len(e.codecs))
		hevc := false
		for codec := range e.codecs {
			if strings.Contains(strings.ToLower(codec), "hevc") {
				hevc = true
			}
			codecs = append(codecs, codec)
		}
		if hevc {
			continue
		}
		sort.Strings(codecs)
		summary := track.NewRow(e.row.Path, e.row.Tags)
		summary.Type = track.TypeVideo
		summary.ID = e.row.ID
		summary.Name = e.row.Name
		summary.EditedName = e.row.EditedName
		summary.Lang = e.row.Lang
		summary.Codec = strings.Join(codecs, ", ")
		summary.OutputPath = e.row.OutputPath
		summary.OutputFilename = e.row.OutputFilename
		out = append(out, summary)
	}
	return out
}
