package language

import "strings"

// Undetermined is the ISO 639-2 code used when a track carries no language.
const Undetermined = "und"

type entry struct {
	code3   string
	alt3    string
	code2   string
	display string
}

var known = []entry{
	{"eng", "", "en", "English"},
	{"spa", "", "es", "Spanish"},
	{"fra", "fre", "fr", "French"},
	{"deu", "ger", "de", "German"},
	{"ita", "", "it", "Italian"},
	{"por", "", "pt", "Portuguese"},
	{"jpn", "", "ja", "Japanese"},
	{"kor", "", "ko", "Korean"},
	{"zho", "chi", "zh", "Chinese"},
	{"rus", "", "ru", "Russian"},
	{"ara", "", "ar", "Arabic"},
	{"hin", "", "hi", "Hindi"},
	{"nld", "dut", "nl", "Dutch"},
	{"pol", "", "pl", "Polish"},
	{"swe", "", "sv", "Swedish"},
	{"dan", "", "da", "Danish"},
	{"nor", "", "no", "Norwegian"},
	{"fin", "", "fi", "Finnish"},
	{"und", "", "", "Undetermined"},
	{"zxx", "", "", "No linguistic content"},
}

var byCode = func() map[string]*entry {
	m := make(map[string]*entry, len(known)*3)
	for i := range known {
		e := &known[i]
		m[e.code3] = e
		if e.alt3 != "" {
			m[e.alt3] = e
		}
		if e.code2 != "" {
			m[e.code2] = e
		}
	}
	return m
}()

// Code trims a reported language value and falls back to "und" when empty.
// The original casing is preserved so reports show what the container holds.
func Code(raw string) string {
	value := strings.TrimSpace(strings.ReplaceAll(raw, "\u0000", ""))
	if value == "" {
		return Undetermined
	}
	return value
}

// Allowed reports whether lang passes the allow-list. Each entry is compared
// as a case-insensitive prefix so "en" admits both "en" and "eng". An empty
// list admits every language.
func Allowed(lang string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	value := strings.ToLower(strings.TrimSpace(lang))
	for _, prefix := range allowed {
		if strings.HasPrefix(value, strings.ToLower(strings.TrimSpace(prefix))) {
			return true
		}
	}
	return false
}

// NormalizeList lower-cases and trims allow-list entries, dropping blanks and
// duplicates while keeping order.
func NormalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.ToLower(strings.TrimSpace(value))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

// DisplayName returns a human-readable language name for a recognized code,
// or the upper-cased code otherwise.
func DisplayName(code string) string {
	trimmed := strings.ToLower(strings.TrimSpace(code))
	if trimmed == "" {
		return "Unknown"
	}
	if e, ok := byCode[trimmed]; ok {
		return e.display
	}
	if base, _, found := strings.Cut(trimmed, "-"); found {
		if e, ok := byCode[base]; ok {
			return e.display
		}
	}
	return strings.ToUpper(trimmed)
}
