package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fragmill/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

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

	wantInput := filepath.Join(tempHome, ".local", "share", "fragmill", "ifc")
	if cfg.Paths.InputDir != wantInput {
		t.Fatalf("unexpected input dir: got %q want %q", cfg.Paths.InputDir, wantInput)
	}
	if cfg.Server.Bind != "127.0.0.1:8111" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	if cfg.Converter.Command != "node" {
		t.Fatalf("unexpected converter command: %q", cfg.Converter.Command)
	}
	if cfg.Converter.TimeoutSeconds != 300 {
		t.Fatalf("unexpected timeout: %d", cfg.Converter.TimeoutSeconds)
	}
	if !cfg.Watch.Enabled {
		t.Fatal("expected watcher enabled by default")
	}
	if cfg.Watch.SettleSeconds != 2 {
		t.Fatalf("unexpected settle delay: %d", cfg.Watch.SettleSeconds)
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
	if cfg.History.Path != filepath.Join(cfg.Paths.LogDir, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.History.Path)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.InputDir, cfg.Paths.OutputDir, cfg.Paths.LogDir} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
input_dir = "~/models"
output_dir = "~/frags"

[converter]
command = "ifc2frag"
timeout_seconds = 0
workers = -1

[watch]
settle_seconds = 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Paths.InputDir != filepath.Join(tempHome, "models") {
		t.Fatalf("expected tilde expansion, got %q", cfg.Paths.InputDir)
	}
	if cfg.Converter.Command != "ifc2frag" {
		t.Fatalf("unexpected command: %q", cfg.Converter.Command)
	}
	if cfg.Converter.TimeoutSeconds != 300 {
		t.Fatalf("expected zero timeout to fall back to default, got %d", cfg.Converter.TimeoutSeconds)
	}
	if cfg.Converter.Workers != 2 {
		t.Fatalf("expected negative workers to fall back to default, got %d", cfg.Converter.Workers)
	}
	if cfg.Watch.SettleSeconds != 5 {
		t.Fatalf("unexpected settle delay: %d", cfg.Watch.SettleSeconds)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"missing command", func(c *config.Config) { c.Converter.Command = " " }, "converter.command"},
		{"same dirs", func(c *config.Config) { c.Paths.OutputDir = c.Paths.InputDir }, "must differ"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Logging.Format = "console"
			cfg.Logging.Level = "info"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[converter]") {
		t.Fatal("sample config missing converter section")
	}
}
