// Package submatch pairs loose subtitle files with the videos they belong to.
package submatch

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"trackscan/internal/language"
	"trackscan/internal/textutil"
	"trackscan/internal/track"
)

const defaultSubtitleEncoding = "UTF-8"

// Pair records one video/subtitle match.
type Pair struct {
	Video    string
	Subtitle string
}

// Result holds the merged rows per destination pool and the leftovers.
type Result struct {
	// Container holds rows for videos whose extension is a container type.
	Container []track.Row
	// Other holds rows for every other video.
	Other []track.Row
	// Unmatched lists subtitle paths that matched no video, sorted.
	Unmatched []string
	Pairs     []Pair

	matched map[string]struct{}
}

// Matched reports whether the video at path received at least one subtitle.
func (r Result) Matched(path string) bool {
	_, ok := r.matched[path]
	return ok
}

// MatchedCount returns the number of videos that received subtitles.
func (r Result) MatchedCount() int {
	return len(r.matched)
}

// Matches reports whether a video and subtitle belong together: both
// normalized stems are non-empty and one contains the other.
func Matches(video, subtitle string) bool {
	v := textutil.NormalizeStem(video)
	s := textutil.NormalizeStem(subtitle)
	if v == "" || s == "" {
		return false
	}
	return strings.Contains(v, s) || strings.Contains(s, v)
}

// Match pairs subtitles with videos. Videos and subtitles are processed in
// path order so synthesized ids and row order do not depend on input order.
func Match(videos, subtitles []track.Probe, containerExts []string) Result {
	containers := make(map[string]struct{}, len(containerExts))
	for _, ext := range containerExts {
		containers[strings.ToLower(ext)] = struct{}{}
	}

	videos = sortedProbes(videos)
	subtitles = sortedProbes(subtitles)

	result := Result{matched: make(map[string]struct{})}
	used := make(map[string]struct{}, len(subtitles))

	for _, video := range videos {
		var synthesized []track.Row
		for _, sub := range subtitles {
			if !Matches(video.Path, sub.Path) {
				continue
			}
			used[sub.Path] = struct{}{}
			result.Pairs = append(result.Pairs, Pair{Video: video.Path, Subtitle: sub.Path})

			next := track.NextID(append(append([]track.Row(nil), video.Rows...), synthesized...))
			for _, row := range subtitleRows(sub) {
				synthesized = append(synthesized, retarget(row, video, next))
				next++
			}
		}
		if len(synthesized) == 0 {
			continue
		}
		result.matched[video.Path] = struct{}{}

		merged := make([]track.Row, 0, len(video.Rows)+len(synthesized))
		merged = append(merged, video.Rows...)
		merged = append(merged, synthesized...)
		if _, ok := containers[strings.ToLower(filepath.Ext(video.Path))]; ok {
			result.Container = append(result.Container, merged...)
		} else {
			result.Other = append(result.Other, merged...)
		}
	}

	for _, sub := range subtitles {
		if _, ok := used[sub.Path]; !ok {
			result.Unmatched = append(result.Unmatched, sub.Path)
		}
	}
	return result
}

// subtitleRows returns the subtitle tracks of a probed subtitle file, or one
// default row when the file reported none.
func subtitleRows(sub track.Probe) []track.Row {
	var rows []track.Row
	for _, row := range sub.Rows {
		if row.Type == track.TypeSubtitles {
			rows = append(rows, row)
		}
	}
	if len(rows) > 0 {
		return rows
	}
	row := track.NewRow(sub.Path, "")
	row.Type = track.TypeSubtitles
	row.Lang = language.Undetermined
	row.Default = track.FlagYes
	row.Forced = track.FlagNo
	row.Encoding = defaultSubtitleEncoding
	row.EditedName = track.EditedName(track.TypeSubtitles, textutil.Stem(sub.Path), row.Lang, row.Codec)
	return []track.Row{row}
}

// retarget points a subtitle row at the video's output file.
func retarget(row track.Row, video track.Probe, id int) track.Row {
	output := textutil.WithExtension(video.Path, track.OutputExt)
	row.ID = strconv.Itoa(id)
	row.InputPath = row.Path
	row.OutputPath = output
	row.OutputFilename = filepath.Base(output)
	row.Tags = videoTags(video)
	return row
}

func videoTags(video track.Probe) string {
	for _, row := range video.Rows {
		if row.Tags != "" {
			return row.Tags
		}
	}
	return ""
}

func sortedProbes(probes []track.Probe) []track.Probe {
	out := append([]track.Probe(nil), probes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
