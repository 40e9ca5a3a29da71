// Package api serves the subtitle extraction HTTP surface.
//
// Routes live under /api/v1. Responses for a given video, language, and
// format are cached in two tiers: a persistent SQLite store consulted first
// and an in-process TTL cache behind it. Handlers map the caption error
// taxonomy to HTTP statuses and never retry; retrying belongs to the
// extraction pipeline.
package api
