package mkvmerge

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	errEmptyOutput = errors.New("empty output")
	errInvalidJSON = errors.New("invalid JSON output")
)

// Result is a parsed identification payload.
type Result struct {
	raw []byte
	doc gjson.Result
}

// Parse validates an identification payload. A payload whose "errors" array
// is non-empty is rejected with the tool's own messages.
func Parse(data []byte) (Result, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Result{}, errEmptyOutput
	}
	if !gjson.ValidBytes(trimmed) {
		return Result{}, fmt.Errorf("%w: %s", errInvalidJSON, snippet(trimmed))
	}
	doc := gjson.ParseBytes(trimmed)
	if !doc.IsObject() {
		return Result{}, fmt.Errorf("%w: %s", errInvalidJSON, snippet(trimmed))
	}
	if msgs := messages(doc.Get("errors")); len(msgs) > 0 {
		return Result{}, errors.New(strings.Join(msgs, "; "))
	}
	return Result{raw: append([]byte(nil), trimmed...), doc: doc}, nil
}

// Tracks returns the raw track entries.
func (r Result) Tracks() []gjson.Result {
	return r.doc.Get("tracks").Array()
}

// ContainerType returns the container format name reported by mkvmerge.
func (r Result) ContainerType() string {
	return r.doc.Get("container.type").String()
}

// Recognized reports whether mkvmerge understood the container.
func (r Result) Recognized() bool {
	v := r.doc.Get("container.recognized")
	return !v.Exists() || v.Bool()
}

// Warnings returns non-fatal messages from the payload.
func (r Result) Warnings() []string {
	return messages(r.doc.Get("warnings"))
}

// TrackCount returns the number of tracks with the given type name.
func (r Result) TrackCount(kind string) int {
	count := 0
	for _, t := range r.Tracks() {
		if strings.EqualFold(t.Get("type").String(), kind) {
			count++
		}
	}
	return count
}

// RawJSON returns the raw identification payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

func messages(v gjson.Result) []string {
	var out []string
	for _, item := range v.Array() {
		if msg := strings.TrimSpace(item.String()); msg != "" {
			out = append(out, msg)
		}
	}
	return out
}

func snippet(data []byte) string {
	const limit = 200
	text := strings.TrimSpace(string(data))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
