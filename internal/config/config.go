package config

import "time"

// TrackerConfig is the root configuration for a tracker instance.
type TrackerConfig struct {
	Instance  InstanceConfig  `yaml:"instance"`
	API       APIConfig       `yaml:"api"`
	Database  DatabaseConfig  `yaml:"database"`
	EventLog  EventLogConfig  `yaml:"event_log"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Import    ImportConfig    `yaml:"import"`
	Drain     DrainConfig     `yaml:"drain"`
	ColdStore ColdStoreConfig `yaml:"cold_store"`
	Status    StatusConfig    `yaml:"status"`
}

// InstanceConfig identifies this tracker.
type InstanceConfig struct {
	ID string `yaml:"id"`
	AZ string `yaml:"az"`
}

// APIConfig holds marketplace API settings.
type APIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// DatabaseConfig holds the PostgreSQL connection for the relational sink.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// EventLogConfig holds the append log settings.
type EventLogConfig struct {
	Path string `yaml:"path"`
}

// TrackingConfig names the season and cards this instance follows.
type TrackingConfig struct {
	Season int     `yaml:"season"`
	Cards  []int64 `yaml:"cards"`
}

// SchedulerConfig holds job manager settings.
type SchedulerConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	JobTimeout   time.Duration `yaml:"job_timeout"`
}

// ImportConfig holds marketplace import job settings.
type ImportConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Concurrency int           `yaml:"concurrency"`
}

// DrainConfig holds relational sink drain job settings.
type DrainConfig struct {
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
}

// ColdStoreConfig holds cold storage writer settings.
type ColdStoreConfig struct {
	Interval       time.Duration `yaml:"interval"`
	BatchSize      int           `yaml:"batch_size"`
	Dir            string        `yaml:"dir"`
	MaxRowsPerFile int           `yaml:"max_rows_per_file"`
}

// StatusConfig holds the health and status broadcast server settings.
type StatusConfig struct {
	Port int `yaml:"port"`
}
