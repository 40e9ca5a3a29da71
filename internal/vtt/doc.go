// Package vtt parses WebVTT caption documents into timed text entries.
//
// The parser is a per-line state machine with two equivalent strategies: a
// materialized line slice for typical inputs and a buffered line stream for
// very large ones. Both share the same cue builder so they always produce
// identical output; the size threshold is purely a memory trade-off.
//
// Cue text passes through two cleaning stages: removal of inline angle-bracket
// spans (embedded sub-timestamps, voice tags) followed by a strict HTML
// sanitizing pass. The second stage is a security control that keeps injected
// markup out of downstream consumers and must not be bypassed.
package vtt
