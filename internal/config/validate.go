package config

import (
	"errors"
	"fmt"
	"sort"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDispatch(); err != nil {
		return err
	}
	if err := c.validateDigest(); err != nil {
		return err
	}
	if err := c.validateAvailability(); err != nil {
		return err
	}
	if err := c.validateDatasets(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDispatch() error {
	if err := ensurePositiveMap(map[string]int{
		"dispatch.workers":        c.Dispatch.Workers,
		"dispatch.queue_size":     c.Dispatch.QueueSize,
		"catalog.busy_timeout_ms": c.Catalog.BusyTimeoutMS,
	}); err != nil {
		return err
	}
	if c.Dispatch.SubmissionTimeout < 0 {
		return errors.New("dispatch.submission_timeout must be zero or positive (seconds)")
	}
	return nil
}

func (c *Config) validateDigest() error {
	if c.Digest.TimeoutSeconds <= 0 {
		return errors.New("digest.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateAvailability() error {
	if !c.Availability.BreakerEnabled {
		return nil
	}
	if c.Availability.BreakerMaxFailures <= 0 {
		return errors.New("availability.breaker_max_failures must be positive when availability.breaker_enabled is true")
	}
	if c.Availability.BreakerOpenSeconds <= 0 {
		return errors.New("availability.breaker_open_seconds must be positive when availability.breaker_enabled is true")
	}
	return nil
}

func (c *Config) validateDatasets() error {
	if len(c.Datasets) == 0 {
		return errors.New("at least one [[datasets]] entry is required")
	}
	seen := make(map[string]struct{}, len(c.Datasets))
	for i, ds := range c.Datasets {
		if ds.Name == "" {
			return fmt.Errorf("datasets[%d].name must be set", i)
		}
		if _, dup := seen[ds.Name]; dup {
			return fmt.Errorf("datasets[%d].name %q is declared twice", i, ds.Name)
		}
		seen[ds.Name] = struct{}{}
		if ds.StartYear <= 0 {
			return fmt.Errorf("datasets[%d].start_year must be positive", i)
		}
		if ds.EndYear != nil && *ds.EndYear < ds.StartYear {
			return fmt.Errorf("datasets[%d].end_year must not precede start_year", i)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
