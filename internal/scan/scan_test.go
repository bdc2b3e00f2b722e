package scan

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"trackscan/internal/config"
	"trackscan/internal/fstags"
	"trackscan/internal/logging"
	"trackscan/internal/probecache"
	"trackscan/internal/rules"
	"trackscan/internal/testsupport"
)

const engRules = `
default:
  lang_vid: [und, eng]
  lang_aud: [eng]
  lang_sub: [eng]
`

type fixture struct {
	cfg    *config.Config
	root   string
	prober *testsupport.FakeProber
	tags   map[string]string
}

func (f *fixture) readTags(path string) (string, []string) {
	raw := f.tags[path]
	return raw, fstags.Parse(raw)
}

func (f *fixture) path(name string) string {
	return filepath.Join(f.root, filepath.FromSlash(name))
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	f := &fixture{
		cfg:    cfg,
		root:   testsupport.MediaRoot(cfg),
		prober: testsupport.NewFakeProber(),
		tags:   make(map[string]string),
	}

	testsupport.Touch(t, f.root,
		"Show/Show.S01E01.mkv", "good.mkv", "broken.mkv", "noaudio.mp4", "fail.mkv",
		"notes.txt", "Movie.mp4", "Movie.eng.srt", "orphan.srt", "jpn.mkv",
	)
	f.prober.Set(f.path("Show/Show.S01E01.mkv"), testsupport.Payload(t,
		named(testsupport.Video("HEVC/H.265/MPEG-H"), "Show.S01E01"),
		named(testsupport.Audio("eng"), "ENG (AAC)"),
		named(testsupport.Subtitle("eng"), "ENG (SubRip/SRT)"),
	))
	f.prober.Set(f.path("broken.mkv"), testsupport.Payload(t, testsupport.Video("hevc")))
	f.prober.Set(f.path("noaudio.mp4"), testsupport.Payload(t, testsupport.Video("h264")))
	f.prober.Fail(f.path("fail.mkv"), errors.New("mkvmerge: file is truncated"))
	f.prober.Set(f.path("Movie.mp4"), testsupport.Payload(t,
		named(testsupport.Video("h264"), "Movie"),
		named(testsupport.Audio("eng"), "ENG (AAC)"),
	))
	f.prober.Set(f.path("Movie.eng.srt"), testsupport.Payload(t, testsupport.Subtitle("eng")))
	f.prober.Set(f.path("orphan.srt"), testsupport.Payload(t, testsupport.Subtitle("eng")))
	f.prober.Set(f.path("jpn.mkv"), testsupport.Payload(t,
		named(testsupport.Video("h264"), "jpn"),
		named(testsupport.Audio("jpn"), "JPN (AAC)"),
	))
	f.tags[f.path("good.mkv")] = "final, archived"
	return f
}

func named(tr testsupport.Track, name string) testsupport.Track {
	tr.Name = name
	return tr
}

func (f *fixture) scanner(t *testing.T, opts ...Option) *Scanner {
	t.Helper()
	set, err := rules.Parse([]byte(engRules), "test")
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	opts = append([]Option{WithTagReader(f.readTags), WithLogger(logging.NewNop())}, opts...)
	s, err := New(f.cfg, set, f.prober, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func bucket(t *testing.T, result *Result, name string) Bucket {
	t.Helper()
	for _, b := range result.Buckets() {
		if b.Name == name {
			return b
		}
	}
	t.Fatalf("bucket %s not found", name)
	return Bucket{}
}

func TestRunRoutesEveryFileToOneBucket(t *testing.T) {
	f := newFixture(t)
	result, err := f.scanner(t).Run(context.Background(), ModeFull)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := map[string]string{
		"Show/Show.S01E01.mkv": "ok_mkv",
		"good.mkv":             BucketGood,
		"broken.mkv":           BucketBrokenMKV,
		"noaudio.mp4":          BucketBrokenVid,
		"fail.mkv":             BucketFailures,
		"notes.txt":            BucketSkipped,
		"Movie.mp4":            "ext_sub_name_mismatch_vid",
		"Movie.eng.srt":        "ext_sub_name_mismatch_vid",
		"orphan.srt":           BucketUnmatched,
		"jpn.mkv":              "multi_issue_mkv",
	}
	placement := result.Placement()
	if len(placement) != len(want) || result.Inventory.Total() != len(want) {
		t.Fatalf("placement covers %d files, inventory %d, want %d: %v", len(placement), result.Inventory.Total(), len(want), placement)
	}
	for name, bucketName := range want {
		if got := placement[f.path(name)]; got != bucketName {
			t.Errorf("%s placed in %q, want %q", name, got, bucketName)
		}
	}

	// Each file group appears in exactly one terminal bucket.
	seen := make(map[string]string)
	for _, b := range result.Buckets() {
		if !b.Terminal {
			continue
		}
		for _, g := range b.Groups {
			key := g[0].Field("output_path")
			if key == "" {
				key = g[0].Field("path")
			}
			if prev, ok := seen[key]; ok {
				t.Fatalf("group %s appears in %s and %s", key, prev, b.Name)
			}
			seen[key] = b.Name
		}
	}

	if got := result.Failures[0]; got.Reason != "mkvmerge: file is truncated" || got.Kind != "probe_error" {
		t.Fatalf("failure = %+v", got)
	}
	if len(result.Pairs) != 1 || result.Pairs[0].Video != f.path("Movie.mp4") {
		t.Fatalf("pairs = %+v", result.Pairs)
	}
	if got := bucket(t, result, "ext_sub_name_mismatch_vid").Rows(); got != 3 {
		t.Fatalf("merged movie group should hold 3 rows, got %d", got)
	}
}

func TestRunBrokenAndGoodFilesStayOutOfOtherViews(t *testing.T) {
	f := newFixture(t)
	result, err := f.scanner(t).Run(context.Background(), ModeFull)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var nonHEVC []string
	for _, row := range result.NonHEVC {
		nonHEVC = append(nonHEVC, row.Path)
	}
	want := []string{f.path("Movie.mp4"), f.path("jpn.mkv")}
	if !reflect.DeepEqual(nonHEVC, want) {
		t.Fatalf("non-HEVC = %v, want %v", nonHEVC, want)
	}

	for _, call := range f.prober.Calls() {
		if call == f.path("good.mkv") {
			t.Fatal("final file should never be probed")
		}
	}
	if len(result.Good) != 1 || result.Good[0].Tags != "final, archived" {
		t.Fatalf("good = %+v", result.Good)
	}
	if len(result.BrokenMKV) != 1 || len(result.BrokenVid) != 1 {
		t.Fatalf("broken = %d mkv, %d vid", len(result.BrokenMKV), len(result.BrokenVid))
	}
}

func TestRunGoodCounterpartTag(t *testing.T) {
	f := newFixture(t)
	f.tags[f.path("Movie.mkv")] = "final"

	result, err := f.scanner(t).Run(context.Background(), ModeFull)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Good) != 2 {
		t.Fatalf("expected movie to be good through its .mkv counterpart: %+v", result.Good)
	}
	if got := result.Placement()[f.path("Movie.eng.srt")]; got != BucketUnmatched {
		t.Fatalf("subtitle of a final video should be unmatched, got %q", got)
	}
}

func TestRunBrokenPlaceholderRow(t *testing.T) {
	f := newFixture(t)
	f.prober.Set(f.path("broken.mkv"), testsupport.Payload(t))

	result, err := f.scanner(t).Run(context.Background(), ModeFull)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rows := result.BrokenMKV[0].Rows
	if len(rows) != 1 || rows[0].Type != "" || rows[0].OutputFilename != "broken.mkv" {
		t.Fatalf("expected a single placeholder row, got %+v", rows)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	f := newFixture(t)
	s := f.scanner(t)
	first, err := s.Run(context.Background(), ModeFull)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := s.Run(context.Background(), ModeFull)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(first.Buckets(), second.Buckets()) {
		t.Fatal("repeated runs produced different buckets")
	}
	if first.RunID == second.RunID {
		t.Fatal("each run should get its own id")
	}
}

func TestRunHEVCModeSkipsSubtitles(t *testing.T) {
	f := newFixture(t)
	result, err := f.scanner(t).Run(context.Background(), ModeHEVC)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, call := range f.prober.Calls() {
		if filepath.Ext(call) == ".srt" {
			t.Fatalf("subtitle %s probed in hevc mode", call)
		}
	}
	if len(result.Pools) != 0 {
		t.Fatal("hevc mode should not classify")
	}
	if len(result.NonHEVC) != 2 {
		t.Fatalf("non-HEVC = %+v", result.NonHEVC)
	}
	for _, total := range result.Totals() {
		if total.View != (total.Bucket == BucketNonHEVC) {
			t.Fatalf("unexpected view flag on %+v", total)
		}
	}
}

func TestRunCanceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.scanner(t).Run(ctx, ModeFull); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunServesCachedPayloads(t *testing.T) {
	f := newFixture(t, testsupport.WithProbeCache())
	cache, err := probecache.Open(context.Background(), f.cfg.ProbeCachePath(), logging.NewNop())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })

	first, err := f.scanner(t, WithCache(cache)).Run(context.Background(), ModeFull)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	f.prober = testsupport.NewFakeProber()
	second, err := f.scanner(t, WithCache(cache)).Run(context.Background(), ModeFull)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(first.Placement(), second.Placement()) {
		t.Fatalf("cached run differs:\nfirst  %v\nsecond %v", first.Placement(), second.Placement())
	}
	calls := f.prober.Calls()
	if len(calls) != 1 || calls[0] != f.path("fail.mkv") {
		t.Fatalf("only the failed file should be probed again, got %v", calls)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(nil, nil, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestPoolNames(t *testing.T) {
	want := []string{"mkv", "vid", "ext_sub_mkv", "ext_sub_vid"}
	for i, p := range pools {
		if got := p.String(); got != want[i] {
			t.Errorf("pool %d = %q, want %q", i, got, want[i])
		}
	}
	if got := pools[2].BucketName("multi_aud"); got != "ext_sub_multi_aud_mkv" {
		t.Fatalf("BucketName = %q", got)
	}
}
