package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"trackscan/internal/media/mkvmerge"
)

// Track describes one track of a synthetic mkvmerge payload.
type Track struct {
	Type     string
	Codec    string
	Language string
	Name     string
	Default  *bool
	Forced   *bool
}

// Flag returns a pointer for Track flag fields.
func Flag(v bool) *bool { return &v }

// Video, Audio, and Subtitle build common track shapes.
func Video(codec string) Track { return Track{Type: "video", Codec: codec, Language: "und"} }

func Audio(lang string) Track { return Track{Type: "audio", Codec: "AAC", Language: lang} }

func Subtitle(lang string) Track { return Track{Type: "subtitles", Codec: "SubRip/SRT", Language: lang} }

// Payload renders tracks as an `mkvmerge -J` document.
func Payload(t testing.TB, tracks ...Track) []byte {
	t.Helper()

	entries := make([]map[string]any, 0, len(tracks))
	for i, tr := range tracks {
		props := map[string]any{"number": i + 1}
		if tr.Language != "" {
			props["language"] = tr.Language
		}
		if tr.Name != "" {
			props["track_name"] = tr.Name
		}
		if tr.Default != nil {
			props["default_track"] = *tr.Default
		}
		if tr.Forced != nil {
			props["forced_track"] = *tr.Forced
		}
		entries = append(entries, map[string]any{
			"id":         i,
			"type":       tr.Type,
			"codec":      tr.Codec,
			"properties": props,
		})
	}
	doc := map[string]any{
		"container": map[string]any{"recognized": true, "supported": true, "type": "Matroska"},
		"errors":    []string{},
		"warnings":  []string{},
		"tracks":    entries,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

// FakeProber serves canned payloads keyed by path. Paths without a payload or
// error fail with a generic tool error.
type FakeProber struct {
	mu       sync.Mutex
	payloads map[string][]byte
	errs     map[string]error
	calls    []string
}

// NewFakeProber returns an empty fake prober.
func NewFakeProber() *FakeProber {
	return &FakeProber{payloads: make(map[string][]byte), errs: make(map[string]error)}
}

// Set registers the payload returned for path.
func (f *FakeProber) Set(path string, payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[path] = payload
}

// Fail registers the error returned for path.
func (f *FakeProber) Fail(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[path] = err
}

// Calls returns the probed paths in call order.
func (f *FakeProber) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Identify implements the scanner's prober contract.
func (f *FakeProber) Identify(ctx context.Context, path string) (mkvmerge.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	payload, ok := f.payloads[path]
	err := f.errs[path]
	f.mu.Unlock()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return mkvmerge.Result{}, ctxErr
	}
	if err != nil {
		return mkvmerge.Result{}, err
	}
	if !ok {
		return mkvmerge.Result{}, errors.New("no payload registered for " + path)
	}
	return mkvmerge.Parse(payload)
}
