package config

const (
	defaultOutputDir      = "~/.local/share/trackscan/reports"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultProbeBinary    = "mkvmerge"
	defaultProbeTimeout   = 120
	defaultTagAttribute   = "user.xdg.tags"
	defaultProbeCacheFile = "probe.db"
)

// Report categories used as keys in [reports.dirs].
const (
	CategoryGood         = "good"
	CategoryOK           = "ok"
	CategoryNameMismatch = "name_mismatch"
	CategoryIssues       = "issues"
	CategoryExternalSubs = "ext_subs"
	CategoryBroken       = "broken"
	CategoryFailures     = "failures"
	CategorySkipped      = "skipped"
	CategoryUnmatched    = "unmatched_subs"
	CategoryNonHEVC      = "non_hevc"
	CategorySummary      = "summary"
)

var (
	defaultContainerExts = []string{".mkv"}
	defaultVideoExts     = []string{".mp4", ".avi", ".mov", ".wmv", ".flv", ".m4v", ".webm", ".ts", ".m2ts", ".3gp"}
	defaultSubtitleExts  = []string{".srt", ".ass", ".ssa", ".sub", ".idx", ".sup", ".vtt"}
	// Files with these extensions carry their own subtitle flags; anything else
	// is treated as a bare subtitle file.
	defaultEmbeddedSubtitleExts = []string{".mkv", ".mp4", ".mov", ".avi", ".wmv", ".flv", ".webm", ".m4v", ".ts", ".m2ts"}
	defaultIgnoreNames          = []string{".directory", ".trackscan.lock"}
)

func defaultReportDirs() map[string]string {
	return map[string]string{
		CategoryGood:         "good",
		CategoryOK:           "ok",
		CategoryNameMismatch: "name_mismatch",
		CategoryIssues:       "issues",
		CategoryExternalSubs: "ext_subs",
		CategoryBroken:       "problems",
		CategoryFailures:     "problems",
		CategorySkipped:      "problems",
		CategoryUnmatched:    "problems",
		CategoryNonHEVC:      "encode",
		CategorySummary:      "",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
		},
		Media: Media{
			ContainerExts:        append([]string(nil), defaultContainerExts...),
			VideoExts:            append([]string(nil), defaultVideoExts...),
			SubtitleExts:         append([]string(nil), defaultSubtitleExts...),
			EmbeddedSubtitleExts: append([]string(nil), defaultEmbeddedSubtitleExts...),
			IgnoreNames:          append([]string(nil), defaultIgnoreNames...),
		},
		Probe: Probe{
			Binary:         defaultProbeBinary,
			TimeoutSeconds: defaultProbeTimeout,
			CacheEnabled:   true,
		},
		Reports: Reports{
			Summary: true,
			NonHEVC: true,
			Dirs:    defaultReportDirs(),
		},
		Tagging: Tagging{
			Attribute: defaultTagAttribute,
			Tags:      []string{"final"},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
