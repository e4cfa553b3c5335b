package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRPC()
	c.normalizeDownload()
	c.normalizeHistory()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = defaultSocketPath
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	if c.Download.Dir, err = expandPath(strings.TrimSpace(c.Download.Dir)); err != nil {
		return fmt.Errorf("download.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRPC() {
	c.RPC.Listen = strings.TrimSpace(c.RPC.Listen)
	c.RPC.Secret = strings.TrimSpace(c.RPC.Secret)
	if c.RPC.Secret == "" {
		if value, ok := os.LookupEnv("FETCHD_RPC_SECRET"); ok {
			c.RPC.Secret = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeDownload() {
	c.Download.FileAllocation = strings.ToLower(strings.TrimSpace(c.Download.FileAllocation))
	c.Download.MaxOverallDownloadLimit = strings.TrimSpace(c.Download.MaxOverallDownloadLimit)
	c.Download.MaxOverallUploadLimit = strings.TrimSpace(c.Download.MaxOverallUploadLimit)
}

func (c *Config) normalizeHistory() {
	c.History.PruneSchedule = strings.TrimSpace(c.History.PruneSchedule)
	if c.History.PruneSchedule == "" {
		c.History.PruneSchedule = defaultHistoryPruneSchedule
	}
	c.History.RedisAddr = strings.TrimSpace(c.History.RedisAddr)
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
