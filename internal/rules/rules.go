package rules

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"trackscan/internal/language"
	"trackscan/internal/services"
	"trackscan/internal/track"
)

//go:embed default_rules.yaml
var defaultRules []byte

// DefaultSection is the mandatory fallback section.
const DefaultSection = "default"

const (
	keyVideo     = "lang_vid"
	keyAudio     = "lang_aud"
	keySubtitles = "lang_sub"
)

// Path segments that introduce a section name.
var sectionMarkers = []string{"series", "movies"}

// Rules are the language allow-lists for one section.
type Rules struct {
	Section   string
	Video     []string
	Audio     []string
	Subtitles []string
}

// AllowList returns the allow-list for a track type. Placeholder rows have no
// list and therefore always pass.
func (r Rules) AllowList(t track.Type) []string {
	switch t {
	case track.TypeVideo:
		return r.Video
	case track.TypeAudio:
		return r.Audio
	case track.TypeSubtitles:
		return r.Subtitles
	default:
		return nil
	}
}

// Allows reports whether a row's language passes its type's allow-list.
func (r Rules) Allows(row track.Row) bool {
	return language.Allowed(row.Lang, r.AllowList(row.Type))
}

// Set is a validated collection of sections.
type Set struct {
	sections map[string]Rules
	source   string
}

// Load reads the YAML file at path, or the built-in rules when path is empty.
func Load(path string) (*Set, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Parse(defaultRules, "built-in rules")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "rules", "load", path, err)
	}
	return Parse(data, path)
}

// Parse decodes and validates classification YAML. Every failure is tagged
// with services.ErrConfiguration.
func Parse(data []byte, source string) (*Set, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "rules", "parse", source, err)
	}
	set := &Set{sections: make(map[string]Rules, len(raw)), source: source}
	for name, node := range raw {
		section := strings.ToLower(strings.TrimSpace(name))
		if node.Kind != yaml.MappingNode {
			return nil, configError(source, "section %q must be a mapping", name)
		}
		var fields map[string]yaml.Node
		if err := node.Decode(&fields); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "rules", "parse", fmt.Sprintf("%s: section %q", source, name), err)
		}
		rules := Rules{Section: section}
		for key, dst := range map[string]*[]string{keyVideo: &rules.Video, keyAudio: &rules.Audio, keySubtitles: &rules.Subtitles} {
			value, ok := fields[key]
			if !ok {
				return nil, configError(source, "section %q is missing %s", name, key)
			}
			list, err := decodeList(value)
			if err != nil {
				return nil, configError(source, "section %q %s: %v", name, key, err)
			}
			*dst = list
		}
		set.sections[section] = rules
	}
	if _, ok := set.sections[DefaultSection]; !ok {
		return nil, configError(source, "missing mandatory %q section", DefaultSection)
	}
	return set, nil
}

// decodeList accepts a YAML sequence of scalars or a comma-separated scalar.
func decodeList(node yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		var values []string
		if err := node.Decode(&values); err != nil {
			return nil, err
		}
		return language.NormalizeList(values), nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
		return language.NormalizeList(strings.Split(node.Value, ",")), nil
	default:
		return nil, fmt.Errorf("expected a list or a comma-separated string")
	}
}

func configError(source, format string, args ...any) error {
	return services.Wrap(services.ErrConfiguration, "rules", "validate", source+": "+fmt.Sprintf(format, args...), nil)
}

// SectionFor returns the lower-cased path segment that follows a "series" or
// "movies" segment (matched case-insensitively), reporting false when the
// path has none.
func SectionFor(path string) (string, bool) {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	for i := 0; i < len(parts)-1; i++ {
		segment := strings.ToLower(parts[i])
		for _, marker := range sectionMarkers {
			if segment == marker && parts[i+1] != "" {
				return strings.ToLower(parts[i+1]), true
			}
		}
	}
	return "", false
}

// Lookup returns the rules of a named section.
func (s *Set) Lookup(section string) (Rules, bool) {
	r, ok := s.sections[strings.ToLower(strings.TrimSpace(section))]
	return r, ok
}

// Default returns the mandatory default section.
func (s *Set) Default() Rules {
	return s.sections[DefaultSection]
}

// For resolves the rules for a file path, falling back to the default section.
func (s *Set) For(path string) Rules {
	if section, ok := SectionFor(path); ok {
		if r, found := s.Lookup(section); found {
			return r
		}
	}
	return s.Default()
}

// Sections returns the configured section names in sorted order.
func (s *Set) Sections() []string {
	names := make([]string, 0, len(s.sections))
	for name := range s.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source describes where the set was loaded from.
func (s *Set) Source() string {
	return s.source
}
