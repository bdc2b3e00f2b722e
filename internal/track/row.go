package track

import (
	"path/filepath"
	"strconv"
	"strings"

	"trackscan/internal/textutil"
)

// Type identifies the kind of media track.
type Type string

const (
	TypeVideo     Type = "video"
	TypeAudio     Type = "audio"
	TypeSubtitles Type = "subtitles"
	// TypeNone marks placeholder rows that only carry path bookkeeping.
	TypeNone Type = ""
)

// ParseType maps the track type spellings emitted by probe tools onto Type.
func ParseType(value string) Type {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "video":
		return TypeVideo
	case "audio":
		return TypeAudio
	case "subtitles", "subtitle", "subs", "sub":
		return TypeSubtitles
	default:
		return TypeNone
	}
}

const (
	FlagYes = "yes"
	FlagNo  = "no"
)

// OutputExt is the extension every output path carries.
const OutputExt = ".mkv"

// Row is one track of one source file, annotated with the paths the rest of
// the toolchain needs.
type Row struct {
	Type           Type
	ID             string
	Name           string
	EditedName     string
	Lang           string
	Codec          string
	Default        string
	Forced         string
	Encoding       string
	Tags           string
	Path           string
	InputPath      string
	OutputPath     string
	Filename       string
	OutputFilename string
}

// NewRow returns a row with path bookkeeping filled in for the given source.
func NewRow(path, tags string) Row {
	output := textutil.WithExtension(path, OutputExt)
	return Row{
		Tags:           tags,
		Path:           path,
		InputPath:      path,
		OutputPath:     output,
		Filename:       filepath.Base(path),
		OutputFilename: filepath.Base(output),
	}
}

// Placeholder returns the single bookkeeping row used for files with no tracks.
func Placeholder(path, tags string) Row {
	return NewRow(path, tags)
}

// GroupKey returns the key rows are grouped by.
func (r Row) GroupKey() string {
	for _, candidate := range []string{r.OutputFilename, r.Filename, r.OutputPath, r.Path} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// NumericID parses the row ID, reporting false for non-numeric values.
func (r Row) NumericID() (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(r.ID))
	if err != nil {
		return 0, false
	}
	return id, true
}

// NameMismatch reports whether the current and suggested names differ.
func (r Row) NameMismatch() bool {
	return strings.TrimSpace(r.Name) != strings.TrimSpace(r.EditedName)
}

// Field returns the value of a report column.
func (r Row) Field(key string) string {
	switch key {
	case "type":
		return string(r.Type)
	case "id":
		return r.ID
	case "name":
		return r.Name
	case "edited_name":
		return r.EditedName
	case "lang":
		return r.Lang
	case "codec":
		return r.Codec
	case "default":
		return r.Default
	case "forced":
		return r.Forced
	case "encoding":
		return r.Encoding
	case "tags":
		return r.Tags
	case "path":
		return r.Path
	case "input_path":
		return r.InputPath
	case "output_path":
		return r.OutputPath
	case "filename":
		return r.Filename
	case "output_filename":
		return r.OutputFilename
	default:
		return ""
	}
}
