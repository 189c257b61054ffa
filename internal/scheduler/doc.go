// Package scheduler runs named background jobs with single-flight semantics.
//
// The Manager:
//   - guarantees at most one concurrent execution per (job type, input) key;
//     concurrent callers of the same key share the owner's result
//   - evaluates interval schedules on a timer and launches eligible jobs on
//     independent goroutines
//   - emits start/in_progress/done/error status transitions to a Notifier
//   - captures job failures (including panics) per execution so one job can
//     never take down the scheduler loop or unrelated keys
//
// The in-flight registry is an explicit, injectable component: one mutex-
// guarded map with insert-if-absent semantics, constructed once per process.
package scheduler
