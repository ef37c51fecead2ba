package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values that would prevent the daemon
// from operating. It reports every problem at once rather than the first.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.InputDir) == "" {
		problems = append(problems, "paths.input_dir is required")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		problems = append(problems, "paths.output_dir is required")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir is required")
	}
	if c.Paths.InputDir != "" && c.Paths.InputDir == c.Paths.OutputDir {
		problems = append(problems, "paths.input_dir and paths.output_dir must differ")
	}
	if strings.TrimSpace(c.Server.Bind) == "" {
		problems = append(problems, "server.bind is required")
	}
	if strings.TrimSpace(c.Converter.Command) == "" {
		problems = append(problems, "converter.command is required")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: unsupported value %q", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level: unsupported value %q", c.Logging.Level))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}
