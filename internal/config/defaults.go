package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAPITimeout         = 30 * time.Second
	DefaultMaxRetries         = 3
	DefaultRetryBackoff       = 1 * time.Second
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultEventLogPath       = "data/eventlog.db"
	DefaultTickInterval       = 30 * time.Second
	DefaultJobTimeout         = 10 * time.Minute
	DefaultImportInterval     = 15 * time.Minute
	DefaultImportConcurrency  = 8
	DefaultDrainInterval      = 1 * time.Minute
	DefaultDrainBatchSize     = 500
	DefaultColdStoreInterval  = 10 * time.Minute
	DefaultColdStoreBatchSize = 5000
	DefaultColdStoreDir       = "data/coldstore"
	DefaultMaxRowsPerFile     = 50000
	DefaultStatusPort         = 8080
)

func (c *TrackerConfig) applyDefaults() {
	// API defaults
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Event log defaults
	if c.EventLog.Path == "" {
		c.EventLog.Path = DefaultEventLogPath
	}

	// Scheduler defaults
	if c.Scheduler.TickInterval == 0 {
		c.Scheduler.TickInterval = DefaultTickInterval
	}
	if c.Scheduler.JobTimeout == 0 {
		c.Scheduler.JobTimeout = DefaultJobTimeout
	}

	// Import defaults
	if c.Import.Interval == 0 {
		c.Import.Interval = DefaultImportInterval
	}
	if c.Import.Concurrency == 0 {
		c.Import.Concurrency = DefaultImportConcurrency
	}

	// Drain defaults
	if c.Drain.Interval == 0 {
		c.Drain.Interval = DefaultDrainInterval
	}
	if c.Drain.BatchSize == 0 {
		c.Drain.BatchSize = DefaultDrainBatchSize
	}

	// Cold storage defaults
	if c.ColdStore.Interval == 0 {
		c.ColdStore.Interval = DefaultColdStoreInterval
	}
	if c.ColdStore.BatchSize == 0 {
		c.ColdStore.BatchSize = DefaultColdStoreBatchSize
	}
	if c.ColdStore.Dir == "" {
		c.ColdStore.Dir = DefaultColdStoreDir
	}
	if c.ColdStore.MaxRowsPerFile == 0 {
		c.ColdStore.MaxRowsPerFile = DefaultMaxRowsPerFile
	}

	// Status defaults
	if c.Status.Port == 0 {
		c.Status.Port = DefaultStatusPort
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
