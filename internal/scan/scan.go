package scan

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"

	"mediasort/internal/logging"
	"mediasort/internal/media"
)

// Visitor receives enumeration events. File is required; the remaining hooks
// are optional and called for non-fatal degradations.
type Visitor struct {
	// File is invoked once per recognized media file, in traversal order.
	// Returning an error aborts the walk and propagates the error.
	File func(media.File) error
	// DirSkipped is invoked when a directory cannot be descended into
	// (typically permission denied). The walk continues.
	DirSkipped func(path string, err error)
	// FileFailed is invoked when a recognized media file's metadata cannot
	// be read (file vanished or stat failed). The walk continues; the caller
	// is expected to record a failed outcome for the path.
	FileFailed func(path string, err error)
}

// Walker lazily enumerates media files under a source root. It keeps O(1)
// state per pending directory and never materializes the full listing.
type Walker struct {
	logger *slog.Logger
}

// NewWalker constructs a walker. A nil logger disables walk diagnostics.
func NewWalker(logger *slog.Logger) *Walker {
	return &Walker{logger: logging.NewComponentLogger(logger, "scanner")}
}

// Walk traverses root at arbitrary depth, visiting regular files whose
// extension is on the media allow-list. Symlinked directories are not
// followed. Unreadable directories are skipped and reported, never fatal.
// Cancellation is honored between files.
func (w *Walker) Walk(ctx context.Context, root string, v Visitor) error {
	root = filepath.Clean(root)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			// Unreadable directory (or a disappearing entry): warn and move on.
			w.logger.Warn("skipping unreadable path",
				logging.String("path", path),
				logging.Error(walkErr),
			)
			if v.DirSkipped != nil {
				v.DirSkipped(path, walkErr)
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		// WalkDir does not follow symlinks, so a symlinked directory shows up
		// here as a non-regular entry and is dropped, avoiding cycles.
		if !d.Type().IsRegular() {
			return nil
		}
		if !media.IsMedia(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			w.logger.Warn("cannot stat media file",
				logging.String("path", path),
				logging.Error(err),
			)
			if v.FileFailed != nil {
				v.FileFailed(path, err)
			}
			return nil
		}

		abs := path
		if !filepath.IsAbs(abs) {
			if a, err := filepath.Abs(abs); err == nil {
				abs = a
			}
		}
		return v.File(media.NewFile(abs, info))
	})
}
