// Package logging assembles the structured slog loggers used across
// subserve.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and standardizes the component attribute so every subsystem logs
// with the same shape. The "auto" format picks console output on a terminal
// and JSON otherwise.
//
// Prefer these constructors over hand-rolled slog setup.
package logging
