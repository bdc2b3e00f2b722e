package fstags

import (
	"errors"
	"strings"
)

// FinalTag marks a file as already processed.
const FinalTag = "final"

// ErrUnsupported is returned by Write on platforms or filesystems without
// extended attribute support.
var ErrUnsupported = errors.New("extended attributes not supported")

// Read returns the raw tag string of path (the values of every tag-bearing
// attribute joined with ", ") and the parsed, lower-cased tag list. Missing
// files and filesystems without xattr support yield empty values.
func Read(path string) (string, []string) {
	values := readTagValues(path)
	if len(values) == 0 {
		return "", nil
	}
	raw := strings.Join(values, ", ")
	return raw, Parse(raw)
}

// Parse splits a raw tag string on commas and semicolons, lower-casing and
// dropping empty entries.
func Parse(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if tag := strings.ToLower(strings.TrimSpace(field)); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// Has reports whether tags contains tag (case-insensitive).
func Has(tags []string, tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsTagAttribute reports whether an attribute name contributes to the tag set.
func IsTagAttribute(name string) bool {
	return strings.Contains(strings.ToLower(name), "tag")
}

// Write replaces the value of attribute key on path.
func Write(path, key, value string) error {
	return writeAttribute(path, key, value)
}

// Clear removes attribute key from path. A missing attribute is not an error.
func Clear(path, key string) error {
	return removeAttribute(path, key)
}
