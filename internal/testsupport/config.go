package testsupport

import (
	"path/filepath"
	"testing"

	"fetchd/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The HTTP endpoint binds an ephemeral loopback port and Redis is off.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SocketPath = filepath.Join(base, "fetchd.sock")
	cfgVal.Download.Dir = filepath.Join(base, "downloads")
	cfgVal.RPC.Listen = "127.0.0.1:0"
	cfgVal.RPC.Secret = ""
	cfgVal.History.RedisAddr = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithSecret sets the RPC bearer token.
func WithSecret(secret string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.RPC.Secret = secret
	}
}

// WithoutHTTP disables the HTTP endpoint.
func WithoutHTTP() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.RPC.Listen = ""
	}
}

// WithoutHistory disables the finished-record archive.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
