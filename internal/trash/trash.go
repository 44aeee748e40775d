// Package trash provides reversible deletion: instead of unlinking, files are
// relocated into a per-run trash directory under the destination root so that
// any resolution can be undone by hand.
package trash

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mediasort/internal/fileutil"
	"mediasort/internal/logging"
)

// Dir is the trash location relative to the destination root.
const Dir = ".mediasort/trash"

// Bin relocates files into one run's trash directory.
type Bin struct {
	root   string
	logger *slog.Logger
}

// New returns a Bin writing under destRoot for the given run.
func New(destRoot, runID string, logger *slog.Logger) *Bin {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Bin{
		root:   filepath.Join(destRoot, Dir, runID),
		logger: logger,
	}
}

// Root returns the run's trash directory.
func (b *Bin) Root() string {
	return b.root
}

// Discard moves path into the trash directory, preserving its basename. When
// the basename is already taken a numeric suffix is allocated. The trashed
// location is returned.
func (b *Bin) Discard(path string) (string, error) {
	if err := os.MkdirAll(b.root, 0o755); err != nil {
		return "", fmt.Errorf("ensure trash dir: %w", err)
	}

	target, err := b.nextTarget(filepath.Base(path))
	if err != nil {
		return "", err
	}

	copied, err := fileutil.RenameOrCopy(path, target)
	if err != nil {
		return "", fmt.Errorf("move to trash: %w", err)
	}
	if copied {
		if rmErr := os.Remove(path); rmErr != nil {
			b.logger.Warn("failed to remove original after trash copy",
				logging.String("path", path),
				logging.Error(rmErr),
			)
		}
	}
	return target, nil
}

func (b *Bin) nextTarget(base string) (string, error) {
	const maxAttempts = 10000
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]
	for attempt := 0; attempt < maxAttempts; attempt++ {
		name := base
		if attempt > 0 {
			name = fmt.Sprintf("%s_%d%s", stem, attempt, ext)
		}
		candidate := filepath.Join(b.root, name)
		if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("stat trash slot: %w", err)
		}
	}
	return "", fmt.Errorf("no free trash slot for %s", base)
}
