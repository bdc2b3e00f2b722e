package scan

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"trackscan/internal/classify"
	"trackscan/internal/config"
	"trackscan/internal/discover"
	"trackscan/internal/fstags"
	"trackscan/internal/logging"
	"trackscan/internal/media/mkvmerge"
	"trackscan/internal/services"
	"trackscan/internal/submatch"
	"trackscan/internal/textutil"
	"trackscan/internal/track"
)

// Prober identifies the tracks of one file. *mkvmerge.Client satisfies it.
type Prober interface {
	Identify(ctx context.Context, path string) (mkvmerge.Result, error)
}

// PayloadCache stores probe payloads between runs. *probecache.Cache
// satisfies it, including a nil *probecache.Cache.
type PayloadCache interface {
	Lookup(ctx context.Context, path string, info fs.FileInfo) ([]byte, bool)
	Store(ctx context.Context, path string, info fs.FileInfo, payload []byte) error
}

// TagReader returns the raw and normalized filesystem tags of a file.
type TagReader func(path string) (string, []string)

// Mode selects how much of the pipeline runs.
type Mode int

const (
	// ModeFull runs every stage.
	ModeFull Mode = iota
	// ModeHEVC skips subtitles and classification and only produces the
	// non-HEVC view.
	ModeHEVC
)

type noCache struct{}

func (noCache) Lookup(context.Context, string, fs.FileInfo) ([]byte, bool) { return nil, false }

func (noCache) Store(context.Context, string, fs.FileInfo, []byte) error { return nil }

// Option configures a Scanner.
type Option func(*Scanner)

// WithCache enables the probe payload cache.
func WithCache(cache PayloadCache) Option {
	return func(s *Scanner) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithTagReader replaces the filesystem tag reader.
func WithTagReader(read TagReader) Option {
	return func(s *Scanner) {
		if read != nil {
			s.readTags = read
		}
	}
}

// WithLogger sets the scanner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for run timing.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		if now != nil {
			s.now = now
		}
	}
}

// Scanner runs the pipeline with one configuration.
type Scanner struct {
	cfg        *config.Config
	rules      classify.Resolver
	prober     Prober
	cache      PayloadCache
	readTags   TagReader
	normalizer *track.Normalizer
	logger     *slog.Logger
	now        func() time.Time
}

// New builds a scanner. The rules must already be loaded so configuration
// errors surface before any file is touched.
func New(cfg *config.Config, resolver classify.Resolver, prober Prober, opts ...Option) (*Scanner, error) {
	if cfg == nil || resolver == nil || prober == nil {
		return nil, errors.New("scanner requires config, rules, and prober")
	}
	s := &Scanner{
		cfg:        cfg,
		rules:      resolver,
		prober:     prober,
		cache:      noCache{},
		readTags:   fstags.Read,
		normalizer: track.NewNormalizer(cfg.Media.EmbeddedSubtitleExts),
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "scan")
	return s, nil
}

type kind int

const (
	kindContainer kind = iota
	kindVideo
	kindSubtitle
)

type job struct {
	path string
	tags string
	kind kind
}

type outcome struct {
	probe track.Probe
	kind  string
}

// Run executes the pipeline over the configured roots.
func (s *Scanner) Run(ctx context.Context, mode Mode) (*Result, error) {
	started := s.now()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(services.WithStage(ctx, "discover"), s.logger)

	inv, err := discover.Walk(discover.Options{
		Roots:         s.cfg.Paths.Roots,
		OutputDir:     s.cfg.Paths.OutputDir,
		ContainerExts: s.cfg.Media.ContainerExts,
		VideoExts:     s.cfg.Media.VideoExts,
		SubtitleExts:  s.cfg.Media.SubtitleExts,
		IgnoreNames:   s.cfg.Media.IgnoreNames,
		IgnoreGlobs:   s.cfg.Media.IgnoreGlobs,
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("discovery complete",
		logging.Int("containers", len(inv.Containers)),
		logging.Int("videos", len(inv.Videos)),
		logging.Int("subtitles", len(inv.Subtitles)),
		logging.Int("skipped", len(inv.Skipped)),
	)

	result := &Result{
		RunID:     runID,
		Started:   started,
		Roots:     append([]string(nil), s.cfg.Paths.Roots...),
		Inventory: inv,
		Skipped:   inv.Skipped,
	}

	jobs := make([]job, 0, inv.Total())
	jobs = append(jobs, s.inspect(inv.Containers, kindContainer, result)...)
	jobs = append(jobs, s.inspect(inv.Videos, kindVideo, result)...)
	if mode == ModeFull {
		for _, path := range inv.Subtitles {
			jobs = append(jobs, job{path: path, kind: kindSubtitle})
		}
	}

	outcomes, err := s.probeAll(ctx, jobs)
	if err != nil {
		return nil, err
	}

	var videos, subtitles []track.Probe
	for i, j := range jobs {
		out := outcomes[i]
		if out.probe.Failed() {
			result.Failures = append(result.Failures, Failure{
				Filename: filepath.Base(j.path),
				Path:     j.path,
				Reason:   out.probe.Failure,
				Kind:     out.kind,
			})
			continue
		}
		if j.kind == kindSubtitle {
			subtitles = append(subtitles, out.probe)
			continue
		}
		if out.probe.Broken() {
			groups := track.GroupRows(brokenRows(out.probe, j.tags))
			if j.kind == kindContainer {
				result.BrokenMKV = append(result.BrokenMKV, groups...)
			} else {
				result.BrokenVid = append(result.BrokenVid, groups...)
			}
			continue
		}
		videos = append(videos, out.probe)
	}

	if mode == ModeFull {
		s.classifyPools(ctx, result, videos, subtitles)
	} else {
		var rows []track.Row
		for _, v := range videos {
			rows = append(rows, v.Rows...)
		}
		result.NonHEVC = classify.NonHEVC(rows)
	}

	result.Elapsed = s.now().Sub(started)
	s.logSummary(ctx, result)
	return result, nil
}

// inspect diverts files tagged final into the good bucket and returns probe
// jobs for the rest.
func (s *Scanner) inspect(paths []string, k kind, result *Result) []job {
	jobs := make([]job, 0, len(paths))
	for _, path := range paths {
		raw, final := s.finalTags(path)
		if final {
			result.Good = append(result.Good, GoodFile{Filename: filepath.Base(path), Tags: raw, Path: path})
			continue
		}
		jobs = append(jobs, job{path: path, tags: raw, kind: k})
	}
	return jobs
}

// finalTags reads the tags of path, falling back to its .mkv counterpart for
// the final marker.
func (s *Scanner) finalTags(path string) (string, bool) {
	raw, tags := s.readTags(path)
	if fstags.Has(tags, fstags.FinalTag) {
		return raw, true
	}
	if counterpart := textutil.WithExtension(path, track.OutputExt); counterpart != path {
		if craw, ctags := s.readTags(counterpart); fstags.Has(ctags, fstags.FinalTag) {
			return craw, true
		}
	}
	return raw, false
}

func (s *Scanner) probeAll(ctx context.Context, jobs []job) ([]outcome, error) {
	logger := logging.WithContext(services.WithStage(ctx, "probe"), s.logger)
	outcomes := make([]outcome, len(jobs))
	p := pool.New().WithMaxGoroutines(s.cfg.ProbeWorkers())
	for i, j := range jobs {
		p.Go(func() {
			outcomes[i] = s.probe(ctx, j, logger)
		})
	}
	p.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (s *Scanner) probe(ctx context.Context, j job, logger *slog.Logger) outcome {
	if err := ctx.Err(); err != nil {
		return failed(j.path, err)
	}
	info, statErr := os.Stat(j.path)
	if statErr != nil {
		info = nil
	}
	if payload, ok := s.cache.Lookup(ctx, j.path, info); ok {
		if res, err := mkvmerge.Parse(payload); err == nil {
			logger.Debug("probe cache hit", logging.String("path", j.path))
			return outcome{probe: s.rows(j, res)}
		}
	}

	res, err := s.prober.Identify(ctx, j.path)
	if err != nil {
		if ctx.Err() == nil {
			logging.WarnWithContext(logger, "probe failed", "probe_failed",
				logging.String("path", j.path),
				logging.String("failure_kind", services.FailureKind(err)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run mkvmerge -J on the file to inspect it"),
			)
		}
		return failed(j.path, err)
	}
	for _, warning := range res.Warnings() {
		logger.Debug("probe warning", logging.String("path", j.path), logging.String("warning", warning))
	}
	if err := s.cache.Store(ctx, j.path, info, res.RawJSON()); err != nil {
		logger.Debug("probe cache store failed", logging.String("path", j.path), logging.Error(err))
	}
	return outcome{probe: s.rows(j, res)}
}

func (s *Scanner) rows(j job, res mkvmerge.Result) track.Probe {
	return track.Probe{Path: j.path, Rows: s.normalizer.Rows(j.path, j.tags, res.Tracks())}
}

func failed(path string, err error) outcome {
	reason := strings.TrimSpace(err.Error())
	if reason == "" {
		reason = "probe failed"
	}
	return outcome{
		probe: track.Probe{Path: path, Failure: reason},
		kind:  services.FailureKind(err),
	}
}

func brokenRows(p track.Probe, tags string) []track.Row {
	if len(p.Rows) > 0 {
		return p.Rows
	}
	return []track.Row{track.Placeholder(p.Path, tags)}
}

// classifyPools matches subtitles and classifies the four candidate pools.
func (s *Scanner) classifyPools(ctx context.Context, result *Result, videos, subtitles []track.Probe) {
	logger := logging.WithContext(services.WithStage(ctx, "classify"), s.logger)

	matched := submatch.Match(videos, subtitles, s.cfg.Media.ContainerExts)
	result.Pairs = matched.Pairs
	for _, path := range matched.Unmatched {
		result.Unmatched = append(result.Unmatched, Unmatched{Path: path})
	}
	logger.Debug("subtitle matching complete",
		logging.Int("pairs", len(matched.Pairs)),
		logging.Int("videos", matched.MatchedCount()),
		logging.Int("unmatched", len(matched.Unmatched)),
	)

	containers := make(map[string]struct{}, len(s.cfg.Media.ContainerExts))
	for _, ext := range s.cfg.Media.ContainerExts {
		containers[strings.ToLower(ext)] = struct{}{}
	}
	var plainContainer, plainOther []track.Row
	for _, v := range videos {
		if matched.Matched(v.Path) {
			continue
		}
		if _, ok := containers[strings.ToLower(filepath.Ext(v.Path))]; ok {
			plainContainer = append(plainContainer, v.Rows...)
		} else {
			plainOther = append(plainOther, v.Rows...)
		}
	}

	candidates := [][]track.Row{plainContainer, plainOther, matched.Container, matched.Other}
	var all []track.Row
	for i, p := range pools {
		outcome := classify.Classify(candidates[i], s.rules)
		logger.Debug("pool classified",
			logging.String("pool", p.String()),
			logging.Int("groups", outcome.Groups()),
			logging.Int("ok", len(outcome.OK)),
		)
		result.Pools = append(result.Pools, PoolOutcome{Pool: p, Outcome: outcome})
		all = append(all, candidates[i]...)
	}
	result.NonHEVC = classify.NonHEVC(all)
}

func (s *Scanner) logSummary(ctx context.Context, result *Result) {
	logger := logging.WithContext(services.WithStage(ctx, "summary"), s.logger)
	logger.Info("scan complete",
		logging.Int("files", result.Inventory.Total()),
		logging.Int("good", len(result.Good)),
		logging.Int("failures", len(result.Failures)),
		logging.Int("skipped", len(result.Skipped)),
		logging.Int("broken", len(result.BrokenMKV)+len(result.BrokenVid)),
		logging.Int("unmatched_subs", len(result.Unmatched)),
		logging.Int("subtitle_pairs", len(result.Pairs)),
		logging.Int("non_hevc", len(result.NonHEVC)),
		logging.Duration("elapsed", result.Elapsed),
	)
}
