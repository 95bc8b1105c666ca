package config

import (
	"fmt"

	"github.com/leapstack-labs/wbemctl/internal/cli/output"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		return err
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.Security.CoreSecurity(); err != nil {
		return err
	}
	if c.HistoryEnabled && c.HistoryPath == "" {
		return fmt.Errorf("history_path is required when history is enabled")
	}
	return nil
}
