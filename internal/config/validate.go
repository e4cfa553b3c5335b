package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/robfig/cron/v3"

	"fetchd/internal/options"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRPC(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRPC() error {
	if c.RPC.Listen == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.RPC.Listen); err != nil {
		return fmt.Errorf("rpc.listen: %w", err)
	}
	return nil
}

func (c *Config) validateDownload() error {
	validator := options.NewValidator()
	if _, err := validator.Validate(options.Task, c.TaskDefaults()); err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if _, err := validator.Validate(options.Global, c.GlobalDefaults()); err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if c.Download.MaxDownloadResult < 0 {
		return errors.New("download.max_download_result must not be negative")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.RetentionDays < 0 {
		return errors.New("history.retention_days must not be negative")
	}
	if c.History.RestoreLimit < 0 {
		return errors.New("history.restore_limit must not be negative")
	}
	if c.History.RedisTTLHours < 0 {
		return errors.New("history.redis_ttl_hours must not be negative")
	}
	if c.History.RedisDB < 0 {
		return errors.New("history.redis_db must not be negative")
	}
	if _, err := cron.ParseStandard(c.History.PruneSchedule); err != nil {
		return fmt.Errorf("history.prune_schedule: %w", err)
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
		return errors.New("logging.retention_days must not be negative")
	}
	return nil
}
