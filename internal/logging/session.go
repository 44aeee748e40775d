package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// sessionTimeFormat names run directories so they sort chronologically.
const sessionTimeFormat = "20060102_150405"

// NewSessionDir creates a per-run directory under the configured log root,
// identified by the run's start timestamp. Reports and the run log live here.
func NewSessionDir(logDir string, start time.Time) (string, error) {
	dir := filepath.Join(logDir, "runs", start.Format(sessionTimeFormat))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session directory: %w", err)
	}
	return dir, nil
}
