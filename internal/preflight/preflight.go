package preflight

import (
	"trackscan/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check applicable to cfg.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	for _, root := range cfg.Paths.Roots {
		results = append(results, CheckReadableDirectory("Scan root", root))
	}

	// Dry runs write nothing, so the output and cache directories may not exist yet.
	if !cfg.Reports.DryRun {
		results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
		if cfg.ProbeCachePath() != "" {
			results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
		}
	}

	results = append(results, CheckRules(cfg.Classification.Path))
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
