package config

import (
	"path/filepath"
	"strings"
)

// normalize expands path fields and backfills derived defaults. It runs after
// decode and before Validate so validation always sees final values.
func (c *Config) normalize() error {
	var err error
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return err
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	if script := strings.TrimSpace(c.Converter.Script); script != "" {
		if c.Converter.Script, err = expandPath(script); err != nil {
			return err
		}
	} else {
		c.Converter.Script = ""
	}

	if c.Converter.TimeoutSeconds <= 0 {
		c.Converter.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Converter.Workers <= 0 {
		c.Converter.Workers = defaultWorkers
	}
	if c.Converter.QueueSize <= 0 {
		c.Converter.QueueSize = defaultQueueSize
	}
	if c.Converter.MaxSourceMB <= 0 {
		c.Converter.MaxSourceMB = defaultMaxSourceMB
	}
	if c.Watch.SettleSeconds < 0 {
		c.Watch.SettleSeconds = defaultSettleSeconds
	}

	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.LogDir, "history.db")
	} else if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return err
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return nil
}
