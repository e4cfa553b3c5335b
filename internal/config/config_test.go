package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"fetchd/internal/config"
	"fetchd/internal/options"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("FETCHD_RPC_SECRET", "from-env")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "fetchd")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Download.Dir != filepath.Join(tempHome, "Downloads") {
		t.Fatalf("unexpected download dir: %q", cfg.Download.Dir)
	}
	if cfg.RPC.Listen != "127.0.0.1:6800" {
		t.Fatalf("unexpected rpc listen: %q", cfg.RPC.Listen)
	}
	if cfg.RPC.Secret != "from-env" {
		t.Fatalf("expected secret from env, got %q", cfg.RPC.Secret)
	}
	if cfg.DatabasePath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Download.Dir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "fetchd.toml")

	type payload struct {
		Paths struct {
			StateDir string `toml:"state_dir"`
		} `toml:"paths"`
		Download struct {
			Dir                     string `toml:"dir"`
			MaxOverallDownloadLimit string `toml:"max_overall_download_limit"`
		} `toml:"download"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.StateDir = filepath.Join(tempDir, "state")
	custom.Download.Dir = filepath.Join(tempDir, "sink")
	custom.Download.MaxOverallDownloadLimit = "100K"
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution %q %v", resolved, exists)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized format, got %q", cfg.Logging.Format)
	}
	global := cfg.GlobalDefaults()
	if global[options.MaxOverallDownloadLimit] != "100K" {
		t.Fatalf("unexpected global defaults %v", global)
	}
	if cfg.TaskDefaults()[options.Dir] != filepath.Join(tempDir, "sink") {
		t.Fatalf("unexpected task defaults %v", cfg.TaskDefaults())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad allocation": "[download]\nfile_allocation = \"sometimes\"\n",
		"bad limit":      "[download]\nmax_overall_upload_limit = \"fast\"\n",
		"bad schedule":   "[history]\nprune_schedule = \"whenever\"\n",
		"bad listen":     "[rpc]\nlisten = \"nowhere\"\n",
		"bad format":     "[logging]\nformat = \"xml\"\n",
		"unknown key":    "[download]\nspeed = 3\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			path := filepath.Join(t.TempDir(), "fetchd.toml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatal("expected Load to fail")
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(content), "[history]") {
		t.Fatal("expected history section in sample")
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}
