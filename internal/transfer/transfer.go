// Package transfer places source files at their planned destinations. Free
// placements write through a temporary file in the destination directory and
// rename into the final name, so an interrupted run never leaves a partial
// file under a name the planner would treat as occupied.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"mediasort/internal/logging"
	"mediasort/internal/services"
)

// Mode selects whether the source survives the transfer.
type Mode string

const (
	ModeCopy Mode = "copy"
	ModeMove Mode = "move"
)

// ParseMode validates a mode string from config or flags.
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModeCopy, ModeMove:
		return Mode(value), nil
	default:
		return "", fmt.Errorf("unknown transfer mode %q", value)
	}
}

// Executor carries out placements in a fixed mode.
type Executor struct {
	mode   Mode
	logger *slog.Logger
}

// New returns an Executor for the given mode.
func New(mode Mode, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{mode: mode, logger: logger}
}

// Mode returns the executor's configured mode.
func (e *Executor) Mode() Mode {
	return e.mode
}

// Place transfers src to dst. In move mode it first attempts an atomic rename;
// cross-device moves degrade to copy followed by source removal, where a
// failed removal is logged but does not fail the placement. Exhausted or
// read-only destinations wrap services.ErrFatal so the caller can halt the
// batch instead of failing every remaining file the same way.
func (e *Executor) Place(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return classify("create destination dir", err)
	}

	if e.mode == ModeMove {
		renameErr := os.Rename(src, dst)
		if renameErr == nil {
			return nil
		}
		var linkErr *os.LinkError
		if !errors.As(renameErr, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
			return classify("move file", renameErr)
		}
	}

	if err := e.copyAtomic(src, dst); err != nil {
		return err
	}

	if e.mode == ModeMove {
		if err := os.Remove(src); err != nil {
			e.logger.Warn("failed to remove source after copy; both copies remain",
				logging.String("source", src),
				logging.Error(err),
			)
		}
	}
	return nil
}

func (e *Executor) copyAtomic(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return classify("open source", err)
	}
	defer in.Close()

	srcInfo, err := in.Stat()
	if err != nil {
		return classify("stat source", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return classify("create temp file", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	written, err := io.Copy(tmp, in)
	if err != nil {
		cleanup()
		return classify("copy contents", err)
	}
	if written != srcInfo.Size() {
		cleanup()
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return classify("flush temp file", err)
	}
	if err := os.Chtimes(tmpPath, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		e.logger.Warn("failed to carry over modification time",
			logging.String("destination", dst),
			logging.Error(err),
		)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return classify("finalize destination", err)
	}
	return nil
}

func classify(operation string, err error) error {
	if services.IsFatal(err) {
		return services.Wrap(services.ErrFatal, "transfer", operation, "Destination cannot accept further writes", err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}
