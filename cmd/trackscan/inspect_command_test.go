package main

import (
	"testing"

	"trackscan/internal/rules"
	"trackscan/internal/testsupport"
	"trackscan/internal/track"
)

func TestInspectPrintsTracksAndVerdict(t *testing.T) {
	payload := testsupport.Payload(t,
		testsupport.Video("HEVC/H.265/MPEG-H"),
		testsupport.Audio("eng"),
		testsupport.Audio("fre"),
		testsupport.Subtitle("eng"),
	)
	env := setupCLITestEnv(t, payload)
	files := testsupport.Touch(t, env.mediaRoot, "movies/film.mkv")

	out, _, err := runCLI(t, []string{"inspect", files[0]}, env.configPath)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	requireContains(t, out, "Matroska")
	requireContains(t, out, "HEVC/H.265/MPEG-H")
	requireContains(t, out, "French")
	requireContains(t, out, "Verdict: multi_issue (multi_aud, lang_mismatch)")
}

func TestVerdict(t *testing.T) {
	set, err := rules.Load("")
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	r := set.Default()
	row := func(typ track.Type, lang, name, edited string) track.Row {
		return track.Row{Type: typ, Lang: lang, Name: name, EditedName: edited}
	}

	tests := []struct {
		name  string
		rows  []track.Row
		video bool
		want  string
	}{
		{
			name: "clean",
			rows: []track.Row{
				row(track.TypeVideo, "und", "film", "film"),
				row(track.TypeAudio, "eng", "ENG (AAC)", "ENG (AAC)"),
				row(track.TypeSubtitles, "eng", "ENG (SRT)", "ENG (SRT)"),
			},
			want: "ok",
		},
		{
			name: "renamed",
			rows: []track.Row{
				row(track.TypeVideo, "und", "", "film"),
				row(track.TypeAudio, "eng", "ENG (AAC)", "ENG (AAC)"),
				row(track.TypeSubtitles, "eng", "ENG (SRT)", "ENG (SRT)"),
			},
			want: "name_mismatch",
		},
		{
			name: "no subtitles",
			rows: []track.Row{
				row(track.TypeVideo, "und", "film", "film"),
				row(track.TypeAudio, "eng", "ENG (AAC)", "ENG (AAC)"),
			},
			want: "0_subs",
		},
		{
			name: "no audio",
			rows: []track.Row{
				row(track.TypeVideo, "und", "film", "film"),
				row(track.TypeSubtitles, "eng", "ENG (SRT)", "ENG (SRT)"),
			},
			want: "broken_mkv",
		},
		{
			name:  "no audio outside a container",
			rows:  []track.Row{row(track.TypeVideo, "und", "film", "film")},
			video: true,
			want:  "broken_vid",
		},
		{
			name: "no tracks",
			want: "broken_mkv",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := verdict(track.Probe{Path: "/m/film.mkv", Rows: tt.rows}, r, !tt.video); got != tt.want {
				t.Fatalf("verdict = %q, want %q", got, tt.want)
			}
		})
	}
}
