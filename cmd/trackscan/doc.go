// Package main hosts the trackscan CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once per invocation, loads the
// classification rules, and hands both to the scan, tag, and inspection
// packages under internal/. Commands stay thin: they translate flags into
// config overrides and render results as tables.
package main
