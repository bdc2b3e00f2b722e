package tagger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"trackscan/internal/testsupport"
)

type memoryStore struct {
	values map[string]string
	fail   map[string]bool
	clears int
}

func (m *memoryStore) Clear(path, key string) error {
	m.clears++
	delete(m.values, path+"|"+key)
	return nil
}

func (m *memoryStore) Write(path, key, value string) error {
	if m.fail[path] {
		return errors.New("operation not supported")
	}
	m.values[path+"|"+key] = value
	return nil
}

func writeCSV(t *testing.T, path string, lines ...string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
}

func TestRunTagsListedFiles(t *testing.T) {
	media := t.TempDir()
	files := testsupport.Touch(t, media, "a.mkv", "b.mkv", "c.mp4")
	csvDir := t.TempDir()
	writeCSV(t, filepath.Join(csvDir, "ok_mkv.csv"),
		"tags,output_filename,input_path,output_path",
		","+"a.mkv,"+files[0]+","+files[0],
		","+"a.mkv,"+files[0]+","+files[0],
		","+"b.mkv,"+files[1]+",",
	)
	writeCSV(t, filepath.Join(csvDir, "failures.csv"),
		"filename,path,failure_reason",
		"c.mp4,"+files[2]+",boom",
		"gone.mkv,"+filepath.Join(media, "gone.mkv")+",boom",
	)
	writeCSV(t, filepath.Join(csvDir, "notes.txt"), "path", files[0])

	store := &memoryStore{values: map[string]string{}, fail: map[string]bool{files[2]: true}}
	stats, err := Run(Options{
		Dir:       csvDir,
		Attribute: "user.xdg.tags",
		Tags:      []string{"final", " "},
		Store:     store,
		Now:       func() time.Time { return time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := Stats{CSVs: 2, Tagged: 2, Skipped: 1, Missing: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
	if got := store.values[files[0]+"|user.xdg.tags"]; got != "2024_01_02-03_04,final" {
		t.Fatalf("a.mkv tag = %q", got)
	}
	if got := store.values[files[1]+"|user.xdg.tags"]; got != "2024_01_02-03_04,final" {
		t.Fatalf("b.mkv should fall back to input_path, got %q", got)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	media := t.TempDir()
	files := testsupport.Touch(t, media, "a.mkv")
	csvDir := t.TempDir()
	writeCSV(t, filepath.Join(csvDir, "good.csv"), "filename,tags,path", "a.mkv,,"+files[0])

	store := &memoryStore{values: map[string]string{}}
	stats, err := Run(Options{Dir: csvDir, Attribute: "user.xdg.tags", DryRun: true, Store: store})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Skipped != 1 || stats.Tagged != 0 || store.clears != 0 {
		t.Fatalf("dry run changed tags: %+v clears=%d", stats, store.clears)
	}
}

func TestRunErrors(t *testing.T) {
	if _, err := Run(Options{Dir: filepath.Join(t.TempDir(), "missing"), Attribute: "user.xdg.tags"}); err == nil {
		t.Fatal("expected error for missing directory")
	}
	if _, err := Run(Options{Dir: t.TempDir()}); err == nil {
		t.Fatal("expected error for empty attribute")
	}
}

func TestTargetsFromHandlesEmptyCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	targets, err := targetsFrom(path)
	if err != nil || len(targets) != 0 {
		t.Fatalf("targets = %v, err = %v", targets, err)
	}
}
