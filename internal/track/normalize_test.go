package track

import (
	"testing"

	"github.com/tidwall/gjson"
)

var embeddedExts = []string{".mkv", ".mp4"}

func tracksOf(t *testing.T, payload string) []gjson.Result {
	t.Helper()
	if !gjson.Valid(payload) {
		t.Fatalf("invalid test payload: %s", payload)
	}
	return gjson.Get(payload, "tracks").Array()
}

func TestNormalizerRowsFromContainer(t *testing.T) {
	payload := `{"tracks":[
		{"id":0,"type":"video","codec":"HEVC/H.265/MPEG-H","properties":{"track_name":"Movie","language":"und","default_track":true,"forced_track":false}},
		{"id":1,"type":"audio","codec":"AC-3","properties":{"language":"eng","flag-default":1}},
		{"id":2,"type":"subtitles","codec":"SubRip/SRT","properties":{"language":"eng","encoding":"UTF-8","forced_track":true}},
		{"id":3,"type":"buttons","codec":"x"}
	]}`
	rows := NewNormalizer(embeddedExts).Rows("/media/Movies/Movie (2020).mkv", "final", tracksOf(t, payload))
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	video := rows[0]
	if video.Type != TypeVideo || video.ID != "0" || video.Name != "Movie" {
		t.Fatalf("unexpected video row: %+v", video)
	}
	if video.EditedName != "Movie (2020)" {
		t.Fatalf("expected stem as edited name, got %q", video.EditedName)
	}
	if video.Default != FlagYes || video.Forced != FlagNo {
		t.Fatalf("unexpected video flags: default=%q forced=%q", video.Default, video.Forced)
	}
	if video.OutputFilename != "Movie (2020).mkv" || video.Tags != "final" {
		t.Fatalf("unexpected bookkeeping: %+v", video)
	}

	audio := rows[1]
	if audio.Default != FlagYes || audio.Forced != "" {
		t.Fatalf("unexpected audio flags: default=%q forced=%q", audio.Default, audio.Forced)
	}
	if audio.EditedName != "ENG (AC-3)" {
		t.Fatalf("unexpected audio edited name: %q", audio.EditedName)
	}

	sub := rows[2]
	if sub.Encoding != "UTF-8" || sub.Forced != FlagYes {
		t.Fatalf("unexpected subtitle row: %+v", sub)
	}
}

func TestNormalizerBareSubtitleForcesFlags(t *testing.T) {
	payload := `{"tracks":[{"type":"subtitles","codec":"SubRip/SRT","properties":{"number":1,"default_track":false,"forced_track":true}}]}`
	rows := NewNormalizer(embeddedExts).Rows("/media/Clip.en.srt", "", tracksOf(t, payload))
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.Default != FlagYes || row.Forced != FlagNo || row.Encoding != "UTF-8" {
		t.Fatalf("expected forced bare subtitle flags, got %+v", row)
	}
	if row.ID != "1" {
		t.Fatalf("expected id from properties.number, got %q", row.ID)
	}
	if row.Lang != "und" || row.EditedName != "UND (SubRip/SRT)" {
		t.Fatalf("unexpected language handling: lang=%q edited=%q", row.Lang, row.EditedName)
	}
	if row.OutputPath != "/media/Clip.en.mkv" {
		t.Fatalf("unexpected output path: %q", row.OutputPath)
	}
}

func TestNormalizerFallbacks(t *testing.T) {
	payload := `{"tracks":[{"id":4,"type":"audio","name":"Commentary","properties":{"language_ietf":"en-US","codec_id":"A_OPUS"}}]}`
	rows := NewNormalizer(embeddedExts).Rows("/media/Clip.mkv", "", tracksOf(t, payload))
	row := rows[0]
	if row.Name != "Commentary" || row.Lang != "en-US" || row.Codec != "A_OPUS" {
		t.Fatalf("unexpected fallbacks: %+v", row)
	}
	if row.EditedName != "EN-US (A_OPUS)" {
		t.Fatalf("unexpected edited name: %q", row.EditedName)
	}
}

func TestFirstNonNullPriority(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"properties first", `{"default_track":false,"properties":{"default_track":true}}`, FlagYes},
		{"top level when properties missing", `{"default_track":false,"properties":{}}`, FlagNo},
		{"null skipped", `{"properties":{"default_track":null,"flag-default":0}}`, FlagNo},
		{"later spelling", `{"flag_default":"yes"}`, FlagYes},
		{"absent", `{"properties":{}}`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FlagString(FirstNonNull(gjson.Parse(tc.payload), DefaultFlagKeys))
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFlagString(t *testing.T) {
	tests := map[string]string{
		`true`:    FlagYes,
		`false`:   FlagNo,
		`1`:       FlagYes,
		`0`:       FlagNo,
		`"TRUE"`:  FlagYes,
		`"no"`:    FlagNo,
		`"maybe"`: "",
		`null`:    "",
	}
	for raw, want := range tests {
		if got := FlagString(gjson.Parse(raw)); got != want {
			t.Errorf("FlagString(%s) = %q, want %q", raw, got, want)
		}
	}
}
