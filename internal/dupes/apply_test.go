package dupes_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"mediasort/internal/dupes"
	"mediasort/internal/ledger"
	"mediasort/internal/logging"
	"mediasort/internal/services"
	"mediasort/internal/testsupport"
	"mediasort/internal/transfer"
	"mediasort/internal/trash"
)

type applyFixture struct {
	store   *ledger.Store
	applier *dupes.Applier
	destDir string
	srcDir  string
}

func newApplyFixture(t *testing.T) *applyFixture {
	return newApplyFixtureMode(t, transfer.ModeMove)
}

func newApplyFixtureMode(t *testing.T, mode transfer.Mode) *applyFixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	destDir := t.TempDir()
	bin := trash.New(destDir, "apply-run", logging.NewNop())
	exec := transfer.New(mode, logging.NewNop())
	return &applyFixture{
		store:   store,
		applier: dupes.NewApplier(store, exec, bin, logging.NewNop()),
		destDir: destDir,
		srcDir:  t.TempDir(),
	}
}

func (f *applyFixture) entry(t *testing.T, resolution ledger.Resolution, srcName string, srcContent, dstContent []byte) *ledger.DuplicateEntry {
	t.Helper()
	src := filepath.Join(f.srcDir, srcName)
	dst := filepath.Join(f.destDir, "2023", "05", "10", srcName)
	if srcContent != nil {
		testsupport.WriteFileBytes(t, src, srcContent)
	}
	if dstContent != nil {
		testsupport.WriteFileBytes(t, dst, dstContent)
	}

	class := ledger.ClassDifferent
	if string(srcContent) == string(dstContent) {
		class = ledger.ClassIdentical
	}
	entry := testsupport.InsertDuplicate(t, f.store, &ledger.DuplicateEntry{
		RunID:          "run-1",
		SourcePath:     src,
		DestPath:       dst,
		Classification: class,
		SourceSize:     int64(len(srcContent)),
		DestSize:       int64(len(dstContent)),
	})
	if resolution != "" && entry.Resolution != resolution {
		if err := f.store.SetResolution(context.Background(), entry.ID, resolution); err != nil {
			t.Fatalf("SetResolution: %v", err)
		}
		entry.Resolution = resolution
	}
	return entry
}

func TestApplySkipLeavesFilesAlone(t *testing.T) {
	f := newApplyFixture(t)
	entry := f.entry(t, ledger.ResolutionSkip, "a.jpg", []byte("new"), []byte("old"))

	if err := f.applier.Apply(context.Background(), entry); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, err := os.Stat(entry.SourcePath); err != nil {
		t.Fatalf("skip must leave the source: %v", err)
	}
	got, _ := os.ReadFile(entry.DestPath)
	if string(got) != "old" {
		t.Fatalf("skip must leave the destination, got %q", got)
	}

	applied, err := f.store.DuplicateByID(context.Background(), entry.ID)
	if err != nil {
		t.Fatalf("DuplicateByID: %v", err)
	}
	if !applied.Applied {
		t.Fatal("expected entry marked applied")
	}
}

func TestApplyReplaceTrashesDestination(t *testing.T) {
	f := newApplyFixture(t)
	entry := f.entry(t, ledger.ResolutionReplace, "b.jpg", []byte("new version"), []byte("old one"))

	if err := f.applier.Apply(context.Background(), entry); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	got, err := os.ReadFile(entry.DestPath)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(got) != "new version" {
		t.Fatalf("expected source content at destination, got %q", got)
	}

	trashed := filepath.Join(f.destDir, trash.Dir, "apply-run", "b.jpg")
	old, err := os.ReadFile(trashed)
	if err != nil {
		t.Fatalf("old version missing from trash: %v", err)
	}
	if string(old) != "old one" {
		t.Fatalf("unexpected trashed content %q", old)
	}
}

func TestApplyDeleteSourceTrashesSource(t *testing.T) {
	f := newApplyFixture(t)
	entry := f.entry(t, ledger.ResolutionDeleteSource, "c.jpg", []byte("dupe"), []byte("keeper"))

	if err := f.applier.Apply(context.Background(), entry); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, err := os.Stat(entry.SourcePath); !os.IsNotExist(err) {
		t.Fatalf("expected source gone, got %v", err)
	}
	got, _ := os.ReadFile(entry.DestPath)
	if string(got) != "keeper" {
		t.Fatalf("destination must survive delete-source, got %q", got)
	}
}

func TestApplyDeleteMarkedIsIdempotent(t *testing.T) {
	f := newApplyFixture(t)
	same := []byte("same bytes")
	entry := f.entry(t, "", "d.jpg", same, same)
	if entry.Resolution != ledger.ResolutionDeleteMarked {
		t.Fatalf("identical pair should enter delete-marked, got %s", entry.Resolution)
	}

	if err := f.applier.Apply(context.Background(), entry); err != nil {
		t.Fatalf("first Apply failed: %v", err)
	}

	// A second pass over the same entry finds the source already gone.
	entry.Applied = false
	if err := f.applier.Apply(context.Background(), entry); err != nil {
		t.Fatalf("repeated Apply failed: %v", err)
	}
}

func TestApplyDeleteMarkedCopyModeLeavesSource(t *testing.T) {
	f := newApplyFixtureMode(t, transfer.ModeCopy)
	same := []byte("same bytes")
	entry := f.entry(t, "", "g.jpg", same, same)
	if entry.Resolution != ledger.ResolutionDeleteMarked {
		t.Fatalf("identical pair should enter delete-marked, got %s", entry.Resolution)
	}

	if err := f.applier.Apply(context.Background(), entry); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if _, err := os.Stat(entry.SourcePath); err != nil {
		t.Fatalf("copy mode must leave the source in place: %v", err)
	}
	got, err := os.ReadFile(entry.DestPath)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(got) != "same bytes" {
		t.Fatalf("destination must be unaffected, got %q", got)
	}

	applied, err := f.store.DuplicateByID(context.Background(), entry.ID)
	if err != nil {
		t.Fatalf("DuplicateByID: %v", err)
	}
	if !applied.Applied {
		t.Fatal("expected entry marked applied")
	}
}

func TestApplyDeleteMarkedMoveModeTrashesSource(t *testing.T) {
	f := newApplyFixtureMode(t, transfer.ModeMove)
	same := []byte("same bytes")
	entry := f.entry(t, "", "h.jpg", same, same)

	if err := f.applier.Apply(context.Background(), entry); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, err := os.Stat(entry.SourcePath); !os.IsNotExist(err) {
		t.Fatalf("move mode must trash the marked source, got %v", err)
	}
}

func TestApplyConflictOnChangedSource(t *testing.T) {
	f := newApplyFixture(t)
	entry := f.entry(t, ledger.ResolutionDeleteSource, "e.jpg", []byte("original"), []byte("keeper"))

	testsupport.WriteFileBytes(t, entry.SourcePath, []byte("grew since recording"))

	err := f.applier.Apply(context.Background(), entry)
	if !services.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, statErr := os.Stat(entry.SourcePath); statErr != nil {
		t.Fatalf("conflicting source must not be touched: %v", statErr)
	}
}

func TestApplyRejectsUnresolvedEntry(t *testing.T) {
	f := newApplyFixture(t)
	entry := f.entry(t, "", "f.jpg", []byte("aaa"), []byte("bbbb"))

	if err := f.applier.Apply(context.Background(), entry); err == nil {
		t.Fatal("expected unresolved entry to be rejected")
	}
}
