package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-tracker
  az: us-east-1a
api:
  base_url: https://sandbox.market.example/api/v1
database:
  postgres:
    host: localhost
    port: 5432
    name: test_db
    user: testuser
    password: testpass
tracking:
  season: 25
  cards: [158023, 231747]
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-tracker" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-tracker")
	}
	if cfg.API.BaseURL != "https://sandbox.market.example/api/v1" {
		t.Errorf("API.BaseURL = %q, want sandbox URL", cfg.API.BaseURL)
	}
	if cfg.Database.Postgres.Host != "localhost" {
		t.Errorf("Database.Postgres.Host = %q, want %q", cfg.Database.Postgres.Host, "localhost")
	}
	if cfg.Tracking.Season != 25 {
		t.Errorf("Tracking.Season = %d, want 25", cfg.Tracking.Season)
	}
	if len(cfg.Tracking.Cards) != 2 || cfg.Tracking.Cards[0] != 158023 {
		t.Errorf("Tracking.Cards = %v, want [158023 231747]", cfg.Tracking.Cards)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
instance:
  id: test-tracker
database:
  postgres:
    host: localhost
    name: test_db
    user: testuser
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Postgres.Password != "secret123" {
		t.Errorf("Database.Postgres.Password = %q, want %q", cfg.Database.Postgres.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-tracker
api:
  base_url: https://sandbox.market.example/api/v1
database:
  postgres:
    host: localhost
    name: test_db
    user: testuser
    password: testpass
tracking:
  season: 25
  cards: [158023]
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.API.Timeout != DefaultAPITimeout {
		t.Errorf("API.Timeout = %v, want default %v", cfg.API.Timeout, DefaultAPITimeout)
	}
	if cfg.Database.Postgres.Port != DefaultDBPort {
		t.Errorf("Database.Postgres.Port = %d, want default %d", cfg.Database.Postgres.Port, DefaultDBPort)
	}
	if cfg.Database.Postgres.MaxConns != DefaultMaxConns {
		t.Errorf("Database.Postgres.MaxConns = %d, want default %d", cfg.Database.Postgres.MaxConns, DefaultMaxConns)
	}
	if cfg.EventLog.Path != DefaultEventLogPath {
		t.Errorf("EventLog.Path = %q, want default %q", cfg.EventLog.Path, DefaultEventLogPath)
	}
	if cfg.Scheduler.TickInterval != DefaultTickInterval {
		t.Errorf("Scheduler.TickInterval = %v, want default %v", cfg.Scheduler.TickInterval, DefaultTickInterval)
	}
	if cfg.Import.Concurrency != DefaultImportConcurrency {
		t.Errorf("Import.Concurrency = %d, want default %d", cfg.Import.Concurrency, DefaultImportConcurrency)
	}
	if cfg.ColdStore.MaxRowsPerFile != DefaultMaxRowsPerFile {
		t.Errorf("ColdStore.MaxRowsPerFile = %d, want default %d", cfg.ColdStore.MaxRowsPerFile, DefaultMaxRowsPerFile)
	}
	if cfg.Status.Port != DefaultStatusPort {
		t.Errorf("Status.Port = %d, want default %d", cfg.Status.Port, DefaultStatusPort)
	}
}

func TestValidate(t *testing.T) {
	valid := func() TrackerConfig {
		return TrackerConfig{
			Instance: InstanceConfig{ID: "test"},
			API:      APIConfig{BaseURL: "https://sandbox.market.example/api/v1"},
			Database: DatabaseConfig{
				Postgres: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 10, MinConns: 2},
			},
			Tracking:  TrackingConfig{Season: 25, Cards: []int64{158023}},
			Import:    ImportConfig{Concurrency: 8},
			Drain:     DrainConfig{BatchSize: 500},
			ColdStore: ColdStoreConfig{BatchSize: 5000, MaxRowsPerFile: 50000},
			Status:    StatusConfig{Port: 8080},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*TrackerConfig)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(c *TrackerConfig) {},
			wantErr: "",
		},
		{
			name:    "missing instance id",
			mutate:  func(c *TrackerConfig) { c.Instance.ID = "" },
			wantErr: "instance.id is required",
		},
		{
			name:    "missing api base url",
			mutate:  func(c *TrackerConfig) { c.API.BaseURL = "" },
			wantErr: "api.base_url is required",
		},
		{
			name:    "missing postgres host",
			mutate:  func(c *TrackerConfig) { c.Database.Postgres.Host = "" },
			wantErr: "database.postgres.host is required",
		},
		{
			name:    "missing postgres password",
			mutate:  func(c *TrackerConfig) { c.Database.Postgres.Password = "" },
			wantErr: "database.postgres.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *TrackerConfig) {
				c.Database.Postgres.MaxConns = 5
				c.Database.Postgres.MinConns = 10
			},
			wantErr: "database.postgres.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "missing season",
			mutate:  func(c *TrackerConfig) { c.Tracking.Season = 0 },
			wantErr: "tracking.season must be >= 1",
		},
		{
			name:    "no tracked cards",
			mutate:  func(c *TrackerConfig) { c.Tracking.Cards = nil },
			wantErr: "tracking.cards must list at least one card",
		},
		{
			name:    "bad status port",
			mutate:  func(c *TrackerConfig) { c.Status.Port = 70000 },
			wantErr: "status.port must be between 1 and 65535, got 70000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
