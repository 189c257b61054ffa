// Package sink drains marketplace facts into the relational listing store.
//
// Two paths:
//   - ListingStore: point upserts/reads of the current listing snapshot, and
//     COPY-based bulk inserts of historical facts. Each bulk call runs in one
//     transaction and commits all rows or none; replays are absorbed by
//     ON CONFLICT DO NOTHING, so the at-least-once drain stays idempotent.
//   - Drainer: the poll/acknowledge consumer that moves batches from the
//     event log into the ListingStore. The checkpoint is advanced only after
//     the transaction commits; any failure leaves it untouched so the batch
//     is retried wholesale on the next scheduled tick.
package sink
