// Package config loads, normalizes, and validates trackscan configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and normalizes extension sets so every
// component compares lower-cased, dot-prefixed extensions. The Config type
// centralizes every knob the scan pipeline and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
