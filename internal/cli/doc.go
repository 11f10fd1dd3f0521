// Package cli defines the Cobra command tree for the updatewatch CLI. Each
// file registers one top-level command with the root command. Commands wire
// config, store, fetcher and coordinator together in app.go and only handle
// flag parsing, output formatting and signals themselves.
package cli
