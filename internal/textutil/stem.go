package textutil

import (
	"path/filepath"
	"strings"
)

// Stem returns the base name of path without its final extension.
func Stem(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// NormalizeStem lower-cases the stem of path and keeps only ASCII letters and
// digits, so "Show.S01E01" and "show s01e01" compare equal. Accented and
// non-Latin runes are dropped.
func NormalizeStem(path string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(Stem(path)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WithExtension replaces the extension of path with ext.
func WithExtension(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
