// Package testsupport provides shared builders for package tests: configs
// seeded with per-test temp directories and source-file fixtures.
package testsupport

import (
	"path/filepath"
	"testing"

	"fragmill/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test,
// watcher and history disabled, and the API bound to an ephemeral port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InputDir = filepath.Join(base, "ifc")
	cfg.Paths.OutputDir = filepath.Join(base, "fragments")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Server.Bind = "127.0.0.1:0"
	cfg.Watch.Enabled = false
	cfg.Watch.ConvertOnStart = false
	cfg.History.Enabled = false

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("prepare test directories: %v", err)
	}
	return &cfg
}

// WithWorkers sets the worker pool dimensions on the test config.
func WithWorkers(workers, queueSize int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Converter.Workers = workers
		cfg.Converter.QueueSize = queueSize
	}
}

// WithMaxSourceMB sets the source size guard on the test config.
func WithMaxSourceMB(mb int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Converter.MaxSourceMB = mb
	}
}
