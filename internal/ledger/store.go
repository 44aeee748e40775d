package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"mediasort/internal/config"
)

// ErrNotFound indicates the requested ledger row does not exist.
var ErrNotFound = errors.New("ledger: not found")

// Store manages duplicate and outcome persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "ledger.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the on-disk location of the ledger database.
func (s *Store) Path() string {
	return s.path
}

// RecordOutcome writes the audit record for one discovered file. A file gets
// exactly one outcome per run; re-recording the same (run, source) pair is a
// no-op so that retried batches cannot double-count.
func (s *Store) RecordOutcome(ctx context.Context, o *Outcome) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO outcomes (run_id, source_path, dest_path, status, reason, created_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT (run_id, source_path) DO NOTHING`,
		o.RunID,
		o.SourcePath,
		o.DestPath,
		string(o.Status),
		o.Reason,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected > 0 {
		id, idErr := res.LastInsertId()
		if idErr == nil {
			o.ID = id
		}
		o.CreatedAt = now
	}
	return nil
}

// OutcomesForRun returns every audit record for a run in insertion order.
func (s *Store) OutcomesForRun(ctx context.Context, runID string) ([]*Outcome, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+outcomeColumns+` FROM outcomes WHERE run_id = ? ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []*Outcome
	for rows.Next() {
		o, scanErr := scanOutcome(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan outcome: %w", scanErr)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// InsertDuplicate records a new collision pair. Identical pairs enter the
// ledger pre-marked for deletion; different pairs start unresolved.
func (s *Store) InsertDuplicate(ctx context.Context, entry *DuplicateEntry) error {
	now := time.Now().UTC()
	if entry.Resolution == "" {
		entry.Resolution = ResolutionUnresolved
		if entry.Classification == ClassIdentical {
			entry.Resolution = ResolutionDeleteMarked
		}
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO duplicates (
            run_id, source_path, dest_path, classification, resolution,
            source_size, dest_size, applied, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		entry.RunID,
		entry.SourcePath,
		entry.DestPath,
		string(entry.Classification),
		string(entry.Resolution),
		entry.SourceSize,
		entry.DestSize,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert duplicate: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("duplicate id: %w", err)
	}
	entry.ID = id
	entry.CreatedAt = now
	return nil
}

// DuplicateByID fetches a single collision entry.
func (s *Store) DuplicateByID(ctx context.Context, id int64) (*DuplicateEntry, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+duplicateColumns+` FROM duplicates WHERE id = ?`,
		id,
	)
	entry, err := scanDuplicate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("duplicate %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch duplicate: %w", err)
	}
	return entry, nil
}

// ListDuplicates returns every collision entry, newest run first.
func (s *Store) ListDuplicates(ctx context.Context) ([]*DuplicateEntry, error) {
	return s.queryDuplicates(ctx,
		`SELECT `+duplicateColumns+` FROM duplicates ORDER BY id ASC`)
}

// DuplicatesForRun returns the collision entries recorded during one run.
func (s *Store) DuplicatesForRun(ctx context.Context, runID string) ([]*DuplicateEntry, error) {
	return s.queryDuplicates(ctx,
		`SELECT `+duplicateColumns+` FROM duplicates WHERE run_id = ? ORDER BY id ASC`, runID)
}

// UnresolvedDuplicates returns entries still awaiting a decision.
func (s *Store) UnresolvedDuplicates(ctx context.Context) ([]*DuplicateEntry, error) {
	return s.queryDuplicates(ctx,
		`SELECT `+duplicateColumns+` FROM duplicates WHERE resolution = ? ORDER BY id ASC`,
		string(ResolutionUnresolved))
}

// PendingDuplicates returns entries holding a terminal resolution that has not
// yet been applied to the filesystem.
func (s *Store) PendingDuplicates(ctx context.Context) ([]*DuplicateEntry, error) {
	return s.queryDuplicates(ctx,
		`SELECT `+duplicateColumns+` FROM duplicates
         WHERE applied = 0 AND resolution != ? ORDER BY id ASC`,
		string(ResolutionUnresolved))
}

func (s *Store) queryDuplicates(ctx context.Context, query string, args ...any) ([]*DuplicateEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query duplicates: %w", err)
	}
	defer rows.Close()

	var entries []*DuplicateEntry
	for rows.Next() {
		entry, scanErr := scanDuplicate(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan duplicate: %w", scanErr)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SetResolution moves an entry to a terminal resolution. Entries that were
// already applied are frozen and cannot be re-resolved.
func (s *Store) SetResolution(ctx context.Context, id int64, resolution Resolution) error {
	if !resolution.Terminal() {
		return fmt.Errorf("resolution %q is not a terminal decision", resolution)
	}

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE duplicates SET resolution = ?, resolved_at = ? WHERE id = ? AND applied = 0`,
		string(resolution),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set resolution: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set resolution: %w", err)
	}
	if affected == 0 {
		entry, fetchErr := s.DuplicateByID(ctx, id)
		if fetchErr != nil {
			return fetchErr
		}
		return fmt.Errorf("duplicate %d already applied as %s", entry.ID, entry.Resolution)
	}
	return nil
}

// MarkApplied records that an entry's resolution has been carried out.
func (s *Store) MarkApplied(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE duplicates SET applied = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark applied: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark applied: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("duplicate %d: %w", id, ErrNotFound)
	}
	return nil
}

// TouchDestination records that a destination slot was filled, pruning the
// history to the configured limit.
func (s *Store) TouchDestination(ctx context.Context, path string, limit int) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO dest_history (path, last_used_at) VALUES (?, ?)
         ON CONFLICT (path) DO UPDATE SET last_used_at = excluded.last_used_at`,
		path,
		now,
	)
	if err != nil {
		return fmt.Errorf("touch destination: %w", err)
	}

	if limit > 0 {
		_, err = s.db.ExecContext(
			ctx,
			`DELETE FROM dest_history WHERE path NOT IN (
                SELECT path FROM dest_history ORDER BY last_used_at DESC, path DESC LIMIT ?
            )`,
			limit,
		)
		if err != nil {
			return fmt.Errorf("prune destination history: %w", err)
		}
	}
	return nil
}

// DestinationRecord is one entry in the recent-destination history.
type DestinationRecord struct {
	Path       string
	LastUsedAt time.Time
}

// RecentDestinations returns the most recently filled destination slots,
// newest first.
func (s *Store) RecentDestinations(ctx context.Context, limit int) ([]DestinationRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT path, last_used_at FROM dest_history
         ORDER BY last_used_at DESC, path DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query destination history: %w", err)
	}
	defer rows.Close()

	var records []DestinationRecord
	for rows.Next() {
		var rec DestinationRecord
		var raw string
		if scanErr := rows.Scan(&rec.Path, &raw); scanErr != nil {
			return nil, fmt.Errorf("scan destination: %w", scanErr)
		}
		if t, parseErr := parseTimeString(raw); parseErr == nil {
			rec.LastUsedAt = t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

const duplicateColumns = "id, run_id, source_path, dest_path, classification, resolution, source_size, dest_size, applied, created_at, resolved_at"

func scanDuplicate(scanner interface{ Scan(dest ...any) error }) (*DuplicateEntry, error) {
	var (
		id             int64
		runID          string
		sourcePath     string
		destPath       string
		classification string
		resolution     string
		sourceSize     int64
		destSize       int64
		applied        sql.NullInt64
		createdRaw     sql.NullString
		resolvedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&runID,
		&sourcePath,
		&destPath,
		&classification,
		&resolution,
		&sourceSize,
		&destSize,
		&applied,
		&createdRaw,
		&resolvedRaw,
	); err != nil {
		return nil, err
	}

	entry := &DuplicateEntry{
		ID:             id,
		RunID:          runID,
		SourcePath:     sourcePath,
		DestPath:       destPath,
		Classification: Classification(classification),
		Resolution:     Resolution(resolution),
		SourceSize:     sourceSize,
		DestSize:       destSize,
	}
	if applied.Valid {
		entry.Applied = applied.Int64 != 0
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		entry.CreatedAt = created
	}
	if resolvedRaw.Valid {
		if resolved, err := parseTimeString(resolvedRaw.String); err == nil {
			entry.ResolvedAt = resolved
		}
	}
	return entry, nil
}

const outcomeColumns = "id, run_id, source_path, dest_path, status, reason, created_at"

func scanOutcome(scanner interface{ Scan(dest ...any) error }) (*Outcome, error) {
	var (
		id         int64
		runID      string
		sourcePath string
		destPath   string
		status     string
		reason     string
		createdRaw sql.NullString
	)

	if err := scanner.Scan(&id, &runID, &sourcePath, &destPath, &status, &reason, &createdRaw); err != nil {
		return nil, err
	}

	o := &Outcome{
		ID:         id,
		RunID:      runID,
		SourcePath: sourcePath,
		DestPath:   destPath,
		Status:     OutcomeStatus(status),
		Reason:     reason,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		o.CreatedAt = created
	}
	return o, nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
