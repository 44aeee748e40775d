package config

import "fmt"

// Validate checks invariants that normalization cannot repair.
func (c *Config) Validate() error {
	switch c.Mode {
	case "copy", "move":
	default:
		return fmt.Errorf("transfer mode: unsupported value %q (expected copy or move)", c.Mode)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log format: unsupported value %q (expected console or json)", c.LogFormat)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.LogDir == "" {
		return fmt.Errorf("log_dir must not be empty")
	}
	return nil
}
