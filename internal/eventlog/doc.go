// Package eventlog implements the durable marketplace fact log.
//
// The log keeps one ordered stream per (season, fact kind):
//   - facts are appended with a store-assigned, strictly increasing position
//   - a unique (season, kind, card, natural key) index rejects duplicates,
//     making ingestion idempotent
//   - per-(season, kind) checkpoints let independent consumers poll and
//     acknowledge batches with at-least-once semantics
//   - Peek reconstructs a card's current listing state straight from the log,
//     bypassing the batch drain path
//
// Backed by SQLite (modernc.org/sqlite). AUTOINCREMENT guarantees positions
// are never reused, even across process restarts.
package eventlog
