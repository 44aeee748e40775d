package dupes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"mediasort/internal/ledger"
	"mediasort/internal/logging"
	"mediasort/internal/services"
	"mediasort/internal/transfer"
	"mediasort/internal/trash"
)

// Applier carries resolved ledger entries out on the filesystem. Deletions go
// through the trash bin so every decision stays reversible.
type Applier struct {
	store  *ledger.Store
	exec   *transfer.Executor
	bin    *trash.Bin
	logger *slog.Logger
}

// NewApplier returns an Applier writing deletions into bin and replacements
// through exec.
func NewApplier(store *ledger.Store, exec *transfer.Executor, bin *trash.Bin, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Applier{store: store, exec: exec, bin: bin, logger: logger}
}

// Apply executes one entry's terminal resolution and marks it applied.
// Re-applying is safe: work the filesystem already reflects is skipped. A file
// whose size no longer matches what the ledger recorded fails that single
// entry with services.ErrConflict.
func (a *Applier) Apply(ctx context.Context, entry *ledger.DuplicateEntry) error {
	if entry.Applied {
		return nil
	}
	if !entry.Resolution.Terminal() {
		return fmt.Errorf("duplicate %d has no decision yet", entry.ID)
	}

	logger := a.logger.With(
		logging.Int64("duplicate_id", entry.ID),
		logging.String("resolution", string(entry.Resolution)),
	)

	var err error
	switch entry.Resolution {
	case ledger.ResolutionSkip:
		// Nothing to do on disk; the source stays where it is.
	case ledger.ResolutionReplace:
		err = a.replace(ctx, entry, logger)
	case ledger.ResolutionDeleteSource:
		err = a.deleteSource(entry, logger)
	case ledger.ResolutionDeleteMarked:
		// The auto-mark follows the transfer mode: a copy run never
		// mutates the source tree, so the marked source stays put.
		if a.exec.Mode() == transfer.ModeMove {
			err = a.deleteSource(entry, logger)
		} else {
			logger.Info("identical source kept, copy mode leaves sources in place",
				logging.String("source", entry.SourcePath))
		}
	}
	if err != nil {
		return err
	}

	if err := a.store.MarkApplied(ctx, entry.ID); err != nil {
		return err
	}
	entry.Applied = true
	logger.Info("duplicate resolution applied",
		logging.String("source", entry.SourcePath),
		logging.String("destination", entry.DestPath),
	)
	return nil
}

func (a *Applier) replace(ctx context.Context, entry *ledger.DuplicateEntry, logger *slog.Logger) error {
	if err := checkRecordedSize(entry.SourcePath, entry.SourceSize); err != nil {
		return err
	}

	if _, err := os.Stat(entry.DestPath); err == nil {
		trashed, trashErr := a.bin.Discard(entry.DestPath)
		if trashErr != nil {
			return fmt.Errorf("retire replaced file: %w", trashErr)
		}
		logger.Info("replaced file moved to trash", logging.String("trashed", trashed))
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat destination: %w", err)
	}

	return a.exec.Place(ctx, entry.SourcePath, entry.DestPath)
}

func (a *Applier) deleteSource(entry *ledger.DuplicateEntry, logger *slog.Logger) error {
	if _, err := os.Stat(entry.SourcePath); errors.Is(err, os.ErrNotExist) {
		logger.Info("source already gone, nothing to delete",
			logging.String("source", entry.SourcePath))
		return nil
	} else if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	if err := checkRecordedSize(entry.SourcePath, entry.SourceSize); err != nil {
		return err
	}
	trashed, err := a.bin.Discard(entry.SourcePath)
	if err != nil {
		return fmt.Errorf("retire source: %w", err)
	}
	logger.Info("source moved to trash", logging.String("trashed", trashed))
	return nil
}

func checkRecordedSize(path string, recorded int64) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrConflict, "resolve", "verify file",
				fmt.Sprintf("File %s disappeared since the collision was recorded", path), err)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if recorded > 0 && info.Size() != recorded {
		return services.Wrap(services.ErrConflict, "resolve", "verify file",
			fmt.Sprintf("File %s changed since the collision was recorded (%d bytes now, %d recorded)",
				path, info.Size(), recorded), nil)
	}
	return nil
}
