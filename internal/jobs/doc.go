// Package jobs holds the job bodies the scheduler runs: importing listings
// from the marketplace into the event log, draining the log into the
// relational sink, and writing order history to cold storage. Each job is a
// small struct bound to its dependencies through interfaces and exposed as a
// scheduler.JobFunc whose input is the season number.
package jobs
