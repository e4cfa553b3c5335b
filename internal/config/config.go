package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"fetchd/internal/options"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains state, log and socket locations.
type Paths struct {
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
	SocketPath string `toml:"socket_path"`
}

// RPC configures the HTTP endpoint. An empty Listen disables it.
type RPC struct {
	Listen    string `toml:"listen"`
	Secret    string `toml:"secret"`
	EnableXML bool   `toml:"enable_xml"`
}

// Download holds option defaults applied to new tasks and to the global
// overlay at startup.
type Download struct {
	Dir                     string `toml:"dir"`
	Split                   int    `toml:"split"`
	MaxConnectionPerServer  int    `toml:"max_connection_per_server"`
	FileAllocation          string `toml:"file_allocation"`
	MaxOverallDownloadLimit string `toml:"max_overall_download_limit"`
	MaxOverallUploadLimit   string `toml:"max_overall_upload_limit"`
	MaxConcurrentDownloads  int    `toml:"max_concurrent_downloads"`
	MaxDownloadResult       int    `toml:"max_download_result"`
}

// History configures the finished-record archive.
type History struct {
	Enabled       bool   `toml:"enabled"`
	RetentionDays int    `toml:"retention_days"`
	PruneSchedule string `toml:"prune_schedule"`
	RestoreLimit  int    `toml:"restore_limit"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisTTLHours int    `toml:"redis_ttl_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for fetchd.
//
// Configuration sections by subsystem:
//   - Paths: state directory, logs and the CLI socket
//   - RPC: HTTP JSON-RPC/XML-RPC endpoint
//   - Download: task and global option defaults
//   - History: SQLite archive, Redis mirror and pruning
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	RPC      RPC      `toml:"rpc"`
	Download Download `toml:"download"`
	History  History  `toml:"history"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("fetchd.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, filepath.Dir(c.Paths.SocketPath), c.Download.Dir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite archive location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "fetchd.lock")
}

// PIDPath returns the file the running daemon records its process id in.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "fetchd.pid")
}

// LogPath returns the daemon log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "fetchd.log")
}

// TaskDefaults returns the download defaults that apply to each new task, as
// raw option strings.
func (c *Config) TaskDefaults() map[string]string {
	raw := map[string]string{}
	if c.Download.Dir != "" {
		raw[options.Dir] = c.Download.Dir
	}
	if c.Download.Split > 0 {
		raw[options.Split] = strconv.Itoa(c.Download.Split)
	}
	if c.Download.MaxConnectionPerServer > 0 {
		raw[options.MaxConnectionPerServer] = strconv.Itoa(c.Download.MaxConnectionPerServer)
	}
	if c.Download.FileAllocation != "" {
		raw[options.FileAllocation] = c.Download.FileAllocation
	}
	return raw
}

// GlobalDefaults returns the global overlay applied at startup, as raw option
// strings.
func (c *Config) GlobalDefaults() map[string]string {
	raw := map[string]string{}
	if c.Download.MaxOverallDownloadLimit != "" {
		raw[options.MaxOverallDownloadLimit] = c.Download.MaxOverallDownloadLimit
	}
	if c.Download.MaxOverallUploadLimit != "" {
		raw[options.MaxOverallUploadLimit] = c.Download.MaxOverallUploadLimit
	}
	if c.Download.MaxConcurrentDownloads > 0 {
		raw[options.MaxConcurrentDownloads] = strconv.Itoa(c.Download.MaxConcurrentDownloads)
	}
	return raw
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
