package main

import (
	"os"
	"path/filepath"
	"testing"

	"trackscan/internal/fstags"
	"trackscan/internal/testsupport"
)

func TestTagDryRunCountsTargets(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	files := testsupport.Touch(t, env.mediaRoot, "a.mkv")

	csvDir := filepath.Join(env.baseDir, "csv")
	if err := os.MkdirAll(csvDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "output_path,input_path\n" +
		files[0] + "," + files[0] + "\n" +
		filepath.Join(env.mediaRoot, "gone.mkv") + ",\n"
	if err := os.WriteFile(filepath.Join(csvDir, "ok_mkv.csv"), []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	out, _, err := runCLI(t, []string{"tag", "--csv-dir", csvDir, "--tag", "reviewed", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("tag: %v", err)
	}
	requireContains(t, out, "CSV files")
	requireContains(t, out, "Skipped")

	if _, tags := fstags.Read(files[0]); len(tags) != 0 {
		t.Fatalf("dry run wrote tags: %v", tags)
	}
}

func TestTagRequiresDirectory(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	if _, _, err := runCLI(t, []string{"tag"}, env.configPath); err == nil {
		t.Fatal("expected error without --csv-dir")
	}
}
