// Package runner orchestrates a full organize run: enumerate the source
// tree, resolve capture dates, plan placements, execute transfers, and
// record collisions in the ledger. A second pass replays resolved ledger
// entries onto the filesystem.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mediasort/internal/capturedate"
	"mediasort/internal/config"
	"mediasort/internal/dupes"
	"mediasort/internal/ledger"
	"mediasort/internal/logging"
	"mediasort/internal/media"
	"mediasort/internal/planner"
	"mediasort/internal/report"
	"mediasort/internal/scan"
	"mediasort/internal/services"
	"mediasort/internal/transfer"
	"mediasort/internal/trash"
)

// Options are the external parameters of one organize run.
type Options struct {
	Source          string
	Dest            string
	Mode            transfer.Mode
	Compare         bool
	ChunkSize       int
	CheckpointEvery int
	// SessionDir, when set, receives the run's reports instead of a fresh
	// directory under the configured log dir.
	SessionDir string
	// Progress, when set, receives a read-only snapshot every
	// CheckpointEvery processed files and once more at the end.
	Progress func(Snapshot)
}

// Snapshot is a point-in-time view of run progress.
type Snapshot struct {
	Discovered int
	Placed     int
	Duplicates int
	Failed     int
}

// Summary reports the final tally of one run.
type Summary struct {
	RunID      string
	SessionDir string
	Discovered int
	Moved      int
	Copied     int
	Duplicates int
	Failed     int
	Elapsed    time.Duration
}

// ApplySummary reports the outcome of an ApplyResolutions pass.
type ApplySummary struct {
	Applied   int
	Conflicts int
	Skipped   int
	Failed    int
}

// Runner wires the pipeline stages against shared config and ledger state.
type Runner struct {
	cfg    *config.Config
	store  *ledger.Store
	logger *slog.Logger
}

// New returns a Runner backed by the given ledger store.
func New(cfg *config.Config, store *ledger.Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{cfg: cfg, store: store, logger: logger}
}

// Run executes one organize pass. Every discovered file ends in exactly one
// recorded outcome; a fatal destination condition halts the remaining batch
// while keeping the outcomes recorded so far. Cancellation stops enumeration
// and refuses transfers that have not started, but an in-flight transfer
// always completes.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()

	source, dest, err := r.validate(opts)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithStage(ctx, "organize")
	logger := logging.WithContext(ctx, r.logger)

	sessionDir := opts.SessionDir
	if sessionDir == "" {
		sessionDir, err = logging.NewSessionDir(r.cfg.LogDir, start)
		if err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}

	release, err := r.lockDestination(dest)
	if err != nil {
		return nil, err
	}
	defer release()

	summary := &Summary{RunID: runID, SessionDir: sessionDir}

	walker := scan.NewWalker(logger)
	resolver := capturedate.NewResolver(logger)
	plan := planner.New(dest, opts.Compare, opts.ChunkSize, logger)
	exec := transfer.New(opts.Mode, logger)

	checkpoint := opts.CheckpointEvery
	if checkpoint <= 0 {
		checkpoint = r.cfg.CheckpointEvery
	}

	logger.Info("organize run started",
		logging.String("source", source),
		logging.String("destination", dest),
		logging.String("mode", string(opts.Mode)),
		logging.Bool("compare", opts.Compare),
	)

	walkErr := walker.Walk(ctx, source, scan.Visitor{
		File: func(file media.File) error {
			fileErr := r.processFile(ctx, file, resolver, plan, exec, runID, summary)
			summary.Discovered++
			if opts.Progress != nil && summary.Discovered%checkpoint == 0 {
				opts.Progress(snapshotOf(summary))
			}
			return fileErr
		},
		FileFailed: func(path string, ferr error) {
			summary.Discovered++
			summary.Failed++
			r.recordOutcome(ctx, &ledger.Outcome{
				RunID:      runID,
				SourcePath: path,
				Status:     ledger.OutcomeFailed,
				Reason:     ferr.Error(),
			}, logger)
		},
	})

	if opts.Progress != nil {
		opts.Progress(snapshotOf(summary))
	}

	if err := r.store.TouchDestination(ctx, dest, r.cfg.HistoryLimit); err != nil {
		logger.Warn("failed to record destination history", logging.Error(err))
	}

	if reportErr := r.writeReports(ctx, runID, sessionDir); reportErr != nil {
		logger.Warn("failed to write session reports", logging.Error(reportErr))
	}

	summary.Elapsed = time.Since(start)
	logger.Info("organize run finished",
		logging.Int("discovered", summary.Discovered),
		logging.Int("moved", summary.Moved),
		logging.Int("copied", summary.Copied),
		logging.Int("duplicates", summary.Duplicates),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.Elapsed),
	)

	if walkErr != nil {
		return summary, walkErr
	}
	return summary, nil
}

// processFile carries one source file through resolve, plan, and execute.
// The returned error is non-nil only for run-halting conditions; per-file
// failures are absorbed into the file's outcome.
func (r *Runner) processFile(
	ctx context.Context,
	file media.File,
	resolver *capturedate.Resolver,
	plan *planner.Planner,
	exec *transfer.Executor,
	runID string,
	summary *Summary,
) error {
	ctx = services.WithFile(ctx, file.Path)
	stamp := resolver.Resolve(file)
	decision := plan.Plan(file, stamp)

	fileLogger := logging.WithContext(ctx, r.logger).With(
		logging.String("stamp_source", string(stamp.Source)),
	)

	if decision.Status == planner.StatusFree {
		placeErr := exec.Place(ctx, file.Path, decision.DestPath)
		if placeErr == nil {
			plan.Claim(decision.DestPath)
			status := ledger.OutcomeCopied
			if exec.Mode() == transfer.ModeMove {
				status = ledger.OutcomeMoved
			}
			if status == ledger.OutcomeMoved {
				summary.Moved++
			} else {
				summary.Copied++
			}
			r.recordOutcome(ctx, &ledger.Outcome{
				RunID:      runID,
				SourcePath: file.Path,
				DestPath:   decision.DestPath,
				Status:     status,
			}, fileLogger)
			fileLogger.Info("file placed", logging.String("destination", decision.DestPath))
			return nil
		}

		summary.Failed++
		r.recordOutcome(ctx, &ledger.Outcome{
			RunID:      runID,
			SourcePath: file.Path,
			DestPath:   decision.DestPath,
			Status:     ledger.OutcomeFailed,
			Reason:     placeErr.Error(),
		}, fileLogger)

		if services.IsFatal(placeErr) {
			fileLogger.Error("destination cannot accept further writes, halting batch",
				logging.Error(placeErr))
			return placeErr
		}
		if errors.Is(placeErr, context.Canceled) || errors.Is(placeErr, context.DeadlineExceeded) {
			return placeErr
		}
		fileLogger.Warn("transfer failed", logging.Error(placeErr))
		return nil
	}

	entry := &ledger.DuplicateEntry{
		RunID:          runID,
		SourcePath:     file.Path,
		DestPath:       decision.DestPath,
		Classification: decision.Classification,
		SourceSize:     file.Size,
		DestSize:       decision.DestSize,
	}
	if err := r.store.InsertDuplicate(ctx, entry); err != nil {
		summary.Failed++
		r.recordOutcome(ctx, &ledger.Outcome{
			RunID:      runID,
			SourcePath: file.Path,
			DestPath:   decision.DestPath,
			Status:     ledger.OutcomeFailed,
			Reason:     fmt.Sprintf("record duplicate: %v", err),
		}, fileLogger)
		return nil
	}

	summary.Duplicates++
	r.recordOutcome(ctx, &ledger.Outcome{
		RunID:      runID,
		SourcePath: file.Path,
		DestPath:   decision.DestPath,
		Status:     ledger.OutcomeSkippedDuplicate,
		Reason:     string(decision.Classification),
	}, fileLogger)
	fileLogger.Info("duplicate recorded",
		logging.String("destination", decision.DestPath),
		logging.String("classification", string(decision.Classification)),
		logging.Int64("duplicate_id", entry.ID),
	)
	return nil
}

// ApplyResolutions replays every resolved, unapplied ledger entry onto the
// filesystem. Entries are applied independently: a conflict or failure on one
// never blocks the rest.
func (r *Runner) ApplyResolutions(ctx context.Context, dest string, mode transfer.Mode) (*ApplySummary, error) {
	dest, err := filepath.Abs(dest)
	if err != nil {
		return nil, fmt.Errorf("resolve destination: %w", err)
	}

	release, err := r.lockDestination(dest)
	if err != nil {
		return nil, err
	}
	defer release()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithStage(ctx, "resolve")
	logger := logging.WithContext(ctx, r.logger)

	pending, err := r.store.PendingDuplicates(ctx)
	if err != nil {
		return nil, err
	}

	bin := trash.New(dest, runID, logger)
	exec := transfer.New(mode, logger)
	applier := dupes.NewApplier(r.store, exec, bin, logger)

	summary := &ApplySummary{}
	for _, entry := range pending {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		applyErr := applier.Apply(ctx, entry)
		switch {
		case applyErr == nil:
			summary.Applied++
		case services.IsConflict(applyErr):
			summary.Conflicts++
			logger.Warn("stale resolution skipped",
				logging.Int64("duplicate_id", entry.ID),
				logging.Error(applyErr),
			)
		default:
			summary.Failed++
			logger.Warn("resolution failed",
				logging.Int64("duplicate_id", entry.ID),
				logging.Error(applyErr),
			)
		}
	}

	logger.Info("resolutions applied",
		logging.Int("applied", summary.Applied),
		logging.Int("conflicts", summary.Conflicts),
		logging.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (r *Runner) validate(opts Options) (string, string, error) {
	source, err := filepath.Abs(opts.Source)
	if err != nil {
		return "", "", services.Wrap(services.ErrValidation, "setup", "resolve source", "Source path is not usable", err)
	}
	info, err := os.Stat(source)
	if err != nil {
		return "", "", services.Wrap(services.ErrValidation, "setup", "check source", "Source directory does not exist", err)
	}
	if !info.IsDir() {
		return "", "", services.Wrap(services.ErrValidation, "setup", "check source", "Source must be a directory", nil)
	}

	dest, err := filepath.Abs(opts.Dest)
	if err != nil {
		return "", "", services.Wrap(services.ErrValidation, "setup", "resolve destination", "Destination path is not usable", err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", "", services.Wrap(services.ErrValidation, "setup", "create destination", "Destination directory cannot be created", err)
	}
	return source, dest, nil
}

// lockDestination takes an exclusive advisory lock under the destination root
// so two runs never interleave transfers against the same tree.
func (r *Runner) lockDestination(dest string) (func(), error) {
	lockDir := filepath.Join(dest, ".mediasort")
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock dir: %w", err)
	}
	lock := flock.New(filepath.Join(lockDir, "run.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire destination lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another run is already organizing this destination")
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release destination lock", logging.Error(err))
		}
	}, nil
}

func (r *Runner) recordOutcome(ctx context.Context, o *ledger.Outcome, logger *slog.Logger) {
	if err := r.store.RecordOutcome(ctx, o); err != nil {
		logger.Error("failed to record outcome",
			logging.String("source", o.SourcePath),
			logging.Error(err),
		)
	}
}

func (r *Runner) writeReports(ctx context.Context, runID, sessionDir string) error {
	outcomes, err := r.store.OutcomesForRun(ctx, runID)
	if err != nil {
		return err
	}
	entries, err := r.store.DuplicatesForRun(ctx, runID)
	if err != nil {
		return err
	}
	return report.WriteAll(sessionDir, outcomes, entries)
}

func snapshotOf(s *Summary) Snapshot {
	return Snapshot{
		Discovered: s.Discovered,
		Placed:     s.Moved + s.Copied,
		Duplicates: s.Duplicates,
		Failed:     s.Failed,
	}
}
