package track

import (
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"

	"trackscan/internal/language"
	"trackscan/internal/textutil"
)

// Key spellings for the default and forced flags, highest priority first.
// Each key is looked up under "properties" before the track object itself.
var (
	DefaultFlagKeys = []string{"default_track", "flag-default", "flag_default"}
	ForcedFlagKeys  = []string{"forced_track", "flag-forced", "flag_forced"}
)

const bareSubtitleEncoding = "UTF-8"

// Normalizer converts raw probe track entries into rows.
type Normalizer struct {
	embedded map[string]struct{}
}

// NewNormalizer builds a normalizer. Subtitle tracks found in files whose
// extension is not in embeddedSubtitleExts are treated as bare subtitle files.
func NewNormalizer(embeddedSubtitleExts []string) *Normalizer {
	set := make(map[string]struct{}, len(embeddedSubtitleExts))
	for _, ext := range embeddedSubtitleExts {
		set[strings.ToLower(ext)] = struct{}{}
	}
	return &Normalizer{embedded: set}
}

// Rows normalizes every track entry of path. Entries with an unknown type are
// skipped.
func (n *Normalizer) Rows(path, tags string, tracks []gjson.Result) []Row {
	_, embedded := n.embedded[strings.ToLower(filepath.Ext(path))]
	stem := textutil.Stem(path)
	rows := make([]Row, 0, len(tracks))
	for _, raw := range tracks {
		typ := ParseType(raw.Get("type").String())
		if typ == TypeNone {
			continue
		}
		props := raw.Get("properties")

		row := NewRow(path, tags)
		row.Type = typ
		row.ID = firstString(raw.Get("id"), props.Get("number"))
		row.Name = strings.TrimSpace(firstString(props.Get("track_name"), raw.Get("name")))
		row.Lang = language.Code(firstString(props.Get("language"), props.Get("language_ietf")))
		row.Codec = strings.TrimSpace(firstString(raw.Get("codec"), props.Get("codec_id")))
		row.Default = FlagString(FirstNonNull(raw, DefaultFlagKeys))
		row.Forced = FlagString(FirstNonNull(raw, ForcedFlagKeys))

		if typ == TypeSubtitles {
			if embedded {
				row.Encoding = strings.TrimSpace(props.Get("encoding").String())
			} else {
				row.Default = FlagYes
				row.Forced = FlagNo
				row.Encoding = bareSubtitleEncoding
			}
		}
		row.EditedName = EditedName(typ, stem, row.Lang, row.Codec)
		rows = append(rows, row)
	}
	return rows
}

// FirstNonNull returns the first key present with a non-null value, checking
// track.properties before the track object for each key in order.
func FirstNonNull(track gjson.Result, keys []string) gjson.Result {
	props := track.Get("properties")
	for _, key := range keys {
		for _, scope := range []gjson.Result{props, track} {
			if !scope.IsObject() {
				continue
			}
			if v := scope.Get(key); v.Exists() && v.Type != gjson.Null {
				return v
			}
		}
	}
	return gjson.Result{}
}

// FlagString renders a boolean-ish probe value as "yes", "no", or "".
func FlagString(v gjson.Result) string {
	switch v.Type {
	case gjson.True:
		return FlagYes
	case gjson.False:
		return FlagNo
	case gjson.Number:
		if v.Num != 0 {
			return FlagYes
		}
		return FlagNo
	case gjson.String:
		switch strings.ToLower(strings.TrimSpace(v.Str)) {
		case "yes", "y", "true", "1", "on":
			return FlagYes
		case "no", "n", "false", "0", "off":
			return FlagNo
		}
	}
	return ""
}

// EditedName is the display name a track should carry: the file stem for
// video, "LANG (codec)" for audio and subtitles.
func EditedName(typ Type, stem, lang, codec string) string {
	if typ == TypeVideo {
		return stem
	}
	label := cases.Upper(xlanguage.Und).String(language.Code(lang))
	if codec = strings.TrimSpace(codec); codec != "" {
		return label + " (" + codec + ")"
	}
	return label
}

func firstString(values ...gjson.Result) string {
	for _, v := range values {
		if v.Exists() && v.Type != gjson.Null {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}
