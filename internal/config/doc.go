// Package config loads, normalizes, and validates subserve configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides with the
// SUBSERVE_ prefix plus an optional .env file. The Config type centralizes
// every knob the server and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
