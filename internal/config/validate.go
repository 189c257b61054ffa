package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *TrackerConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}

	if err := c.Database.Postgres.validate("database.postgres"); err != nil {
		return err
	}

	if c.Tracking.Season < 1 {
		return errors.New("tracking.season must be >= 1")
	}
	if len(c.Tracking.Cards) == 0 {
		return errors.New("tracking.cards must list at least one card")
	}

	if c.Import.Concurrency < 1 {
		return errors.New("import.concurrency must be >= 1")
	}

	if c.Drain.BatchSize < 1 {
		return errors.New("drain.batch_size must be >= 1")
	}

	if c.ColdStore.BatchSize < 1 {
		return errors.New("cold_store.batch_size must be >= 1")
	}
	if c.ColdStore.MaxRowsPerFile < 1 {
		return errors.New("cold_store.max_rows_per_file must be >= 1")
	}

	if c.Status.Port < 1 || c.Status.Port > 65535 {
		return fmt.Errorf("status.port must be between 1 and 65535, got %d", c.Status.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
