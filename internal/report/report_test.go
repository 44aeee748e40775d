package report_test

import (
	"os"
	"path/filepath"
	"testing"

	"mediasort/internal/ledger"
	"mediasort/internal/report"
)

func TestWriteAllRendersDuplicateLines(t *testing.T) {
	sessionDir := filepath.Join(t.TempDir(), "runs", "20230510_120000")
	entries := []*ledger.DuplicateEntry{
		{SourcePath: "/src/img_001.jpg", DestPath: "/dest/2023/05/10/img_001.jpg"},
		{SourcePath: "/src/other/img_001.jpg", DestPath: "/dest/2023/05/10/img_001.jpg"},
	}

	if err := report.WriteAll(sessionDir, nil, entries); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(sessionDir, report.DuplicateReportName))
	if err != nil {
		t.Fatalf("read duplicate report: %v", err)
	}
	want := "/src/img_001.jpg  -->  /dest/2023/05/10/img_001.jpg\n" +
		"/src/other/img_001.jpg  -->  /dest/2023/05/10/img_001.jpg\n"
	if string(data) != want {
		t.Fatalf("duplicate report mismatch:\n got %q\nwant %q", data, want)
	}
}

func TestWriteAllSplitsSuccessesAndFailures(t *testing.T) {
	sessionDir := t.TempDir()
	outcomes := []*ledger.Outcome{
		{SourcePath: "/src/a.jpg", DestPath: "/dest/2023/01/01/a.jpg", Status: ledger.OutcomeMoved},
		{SourcePath: "/src/b.jpg", DestPath: "/dest/2023/01/01/b.jpg", Status: ledger.OutcomeCopied},
		{SourcePath: "/src/c.jpg", Status: ledger.OutcomeFailed, Reason: "read error"},
		{SourcePath: "/src/d.jpg", Status: ledger.OutcomeSkippedDuplicate},
	}

	if err := report.WriteAll(sessionDir, outcomes, nil); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	success, err := os.ReadFile(filepath.Join(sessionDir, report.SuccessReportName))
	if err != nil {
		t.Fatalf("read success report: %v", err)
	}
	wantSuccess := "moved: /src/a.jpg -> /dest/2023/01/01/a.jpg\n" +
		"copied: /src/b.jpg -> /dest/2023/01/01/b.jpg\n"
	if string(success) != wantSuccess {
		t.Fatalf("success report mismatch:\n got %q\nwant %q", success, wantSuccess)
	}

	failed, err := os.ReadFile(filepath.Join(sessionDir, report.FailedReportName))
	if err != nil {
		t.Fatalf("read failed report: %v", err)
	}
	if string(failed) != "/src/c.jpg: read error\n" {
		t.Fatalf("failed report mismatch: %q", failed)
	}
}

func TestWriteAllSkipsEmptyReports(t *testing.T) {
	sessionDir := t.TempDir()
	if err := report.WriteAll(sessionDir, nil, nil); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	for _, name := range []string{report.DuplicateReportName, report.SuccessReportName, report.FailedReportName} {
		if _, err := os.Stat(filepath.Join(sessionDir, name)); !os.IsNotExist(err) {
			t.Fatalf("expected %s absent, got %v", name, err)
		}
	}
}
