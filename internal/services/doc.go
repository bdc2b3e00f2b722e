// Package services defines shared utilities consumed by the scan pipeline and
// the external tool adapters.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and stage names for logging.
//   - Structured error markers plus the Wrap helper so callers can classify a
//     failure (timeout, external tool, configuration) without parsing strings.
//
// Use these helpers when wiring new pipeline stages so error handling and
// observability stay uniform across commands.
package services
