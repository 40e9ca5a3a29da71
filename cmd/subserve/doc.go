// Package main hosts the subserve CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the HTTP service, scaffolds and validates
// configuration, maintains the response cache, and lists caption languages
// for ad-hoc inspection. It centralizes configuration resolution and logging
// setup so subcommands can focus on user experience instead of wiring.
package main
