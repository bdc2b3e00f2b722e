// Package rules loads the per-section language allow-lists used by the
// classifier.
//
// The configuration is a YAML mapping of section names to lang_vid, lang_aud,
// and lang_sub entries, each a list or a comma-separated string. A "default"
// section is mandatory. Resolution is two pure steps: SectionFor derives a
// section name from a path, and Set.For looks it up with a fallback to the
// default section.
package rules
