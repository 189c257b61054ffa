// Package coldstore drains the completed-order log into partitioned columnar
// files for offline analytics.
//
// Files are parquet, laid out hive-style as year=YYYY/month=MM/day=DD/ under
// the configured root, one or more files per partition per drain cycle. File
// names carry a random suffix so concurrent writer instances never collide.
// The drain is a poll/acknowledge consumer of the event log: a crash before
// the acknowledgement re-writes the batch into fresh files, never loses it.
package coldstore
