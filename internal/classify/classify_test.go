package classify

import (
	"reflect"
	"testing"

	"trackscan/internal/rules"
	"trackscan/internal/track"
)

type fixedRules rules.Rules

func (f fixedRules) For(string) rules.Rules { return rules.Rules(f) }

var engOnly = fixedRules{Section: "default", Video: []string{"eng"}, Audio: []string{"eng"}, Subtitles: []string{"eng"}}

// fileRows builds a file's rows from (type, lang) pairs; names match their
// suggested names unless overridden by the caller.
func fileRows(path string, tracks ...[2]string) []track.Row {
	rows := make([]track.Row, 0, len(tracks))
	for i, spec := range tracks {
		row := track.NewRow(path, "")
		row.Type = track.Type(spec[0])
		row.ID = string(rune('0' + i))
		row.Lang = spec[1]
		row.Codec = "codec"
		row.EditedName = track.EditedName(row.Type, "stem", row.Lang, row.Codec)
		row.Name = row.EditedName
		rows = append(rows, row)
	}
	return rows
}

var (
	vEng = [2]string{"video", "eng"}
	aEng = [2]string{"audio", "eng"}
	aJpn = [2]string{"audio", "jpn"}
	sEng = [2]string{"subtitles", "eng"}
	sSpa = [2]string{"subtitles", "spa"}
	vJpn = [2]string{"video", "jpn"}
)

func TestSplitSeparatesOKAndIssues(t *testing.T) {
	var rows []track.Row
	rows = append(rows, fileRows("/m/good.mkv", vEng, aEng, sEng)...)
	rows = append(rows, fileRows("/m/nosubs.mkv", vEng, aEng)...)
	rows = append(rows, fileRows("/m/other.mkv", vEng, aEng, sEng)...)

	ok, issues := Split(rows, engOnly)
	if len(ok) != 2 || ok[0].Key != "good.mkv" || ok[1].Key != "other.mkv" {
		t.Fatalf("unexpected ok groups: %+v", ok)
	}
	if len(issues) != 1 || issues[0].Key != "nosubs.mkv" {
		t.Fatalf("unexpected issue groups: %+v", issues)
	}
}

func TestEmptyAllowListAdmitsAll(t *testing.T) {
	open := fixedRules{Section: "default"}
	ok, issues := Split(fileRows("/m/x.mkv", vJpn, aJpn, sSpa), open)
	if len(ok) != 1 || len(issues) != 0 {
		t.Fatalf("empty allow-lists should admit every language")
	}
}

func TestBucket(t *testing.T) {
	tests := []struct {
		name   string
		tracks [][2]string
		want   Issue
	}{
		{"no subtitles", [][2]string{vEng, aEng}, IssueNoSubtitles},
		{"too many subtitles", [][2]string{vEng, aEng, sEng, sEng}, IssueMultiSubs},
		{"too many videos", [][2]string{vEng, vEng, aEng, sEng}, IssueMultiVideos},
		{"too many audios", [][2]string{vEng, aEng, aEng, sEng}, IssueMultiAudio},
		{"language mismatch", [][2]string{vEng, aEng, sSpa}, IssueLangMismatch},
		{"jpn audio without subtitles", [][2]string{vEng, aJpn}, IssueMultiple},
		{"two videos two audios", [][2]string{vEng, vEng, aEng, aEng, sEng}, IssueMultiple},
		{"only video language fails", [][2]string{vJpn, aEng, sEng}, IssueUnclassified},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			groups := track.GroupRows(fileRows("/m/f.mkv", tc.tracks...))
			if got := Bucket(groups[0], rules.Rules(engOnly)); got != tc.want {
				t.Fatalf("Bucket = %s, want %s (causes %v)", got, tc.want, Causes(groups[0], rules.Rules(engOnly)))
			}
		})
	}
}

func TestClassifyRoutesEveryGroupOnce(t *testing.T) {
	var rows []track.Row
	rows = append(rows, fileRows("/m/a.mkv", vEng, aEng, sEng)...)
	mismatch := fileRows("/m/b.mkv", vEng, aEng, sEng)
	mismatch[1].Name = "Commentary"
	rows = append(rows, mismatch...)
	rows = append(rows, fileRows("/m/c.mkv", vEng, vEng, aEng, sEng)...)
	rows = append(rows, fileRows("/m/d.mkv", vEng, aJpn)...)
	rows = append(rows, fileRows("/m/e.mkv", vJpn, aEng, sEng)...)

	out := Classify(rows, engOnly)
	if out.Groups() != 5 {
		t.Fatalf("expected 5 groups, got %d", out.Groups())
	}
	if len(out.OK) != 1 || out.OK[0].Key != "a.mkv" {
		t.Fatalf("ok = %+v", out.OK)
	}
	if len(out.NameMismatch) != 1 || out.NameMismatch[0].Key != "b.mkv" {
		t.Fatalf("name mismatch = %+v", out.NameMismatch)
	}
	expect := map[Issue]string{
		IssueMultiVideos:  "c.mkv",
		IssueMultiple:     "d.mkv",
		IssueUnclassified: "e.mkv",
	}
	for issue, key := range expect {
		groups := out.Issues[issue]
		if len(groups) != 1 || groups[0].Key != key {
			t.Fatalf("%s = %+v, want %s", issue, groups, key)
		}
	}

	seen := 0
	for _, groups := range out.Issues {
		for _, g := range groups {
			seen += len(g.Rows)
		}
	}
	for _, g := range append(out.OK, out.NameMismatch...) {
		seen += len(g.Rows)
	}
	if seen != len(rows) {
		t.Fatalf("partition lost rows: %d of %d", seen, len(rows))
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	var rows []track.Row
	rows = append(rows, fileRows("/m/a.mkv", vEng, aEng, sEng)...)
	rows = append(rows, fileRows("/m/b.mkv", vEng, aJpn, sSpa)...)
	rows = append(rows, fileRows("/m/c.mkv", vEng, aEng)...)

	first := Classify(rows, engOnly)
	second := Classify(rows, engOnly)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("classification changed between runs")
	}
}

func TestClassifyUsesPerSectionRules(t *testing.T) {
	set, err := rules.Parse([]byte(`
default:
  lang_vid: [eng]
  lang_aud: [eng]
  lang_sub: [eng]
anime:
  lang_vid: [eng]
  lang_aud: [jpn]
  lang_sub: [eng]
`), "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rows := fileRows("/media/series/anime/show/ep1.mkv", vEng, aJpn, sEng)
	rows = append(rows, fileRows("/media/series/drama/show/ep1x.mkv", vEng, aJpn, sEng)...)

	out := Classify(rows, set)
	if len(out.OK) != 1 || out.OK[0].Key != "ep1.mkv" {
		t.Fatalf("anime file should pass with jpn audio: %+v", out.OK)
	}
	if got := out.Issues[IssueLangMismatch]; len(got) != 1 || got[0].Key != "ep1x.mkv" {
		t.Fatalf("default-section file should be a language mismatch: %+v", got)
	}
}
