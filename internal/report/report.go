// Package report writes the per-run text reports into the session log
// directory: one file per audience (duplicate review, successes, failures).
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mediasort/internal/ledger"
)

// File names written into the session directory.
const (
	DuplicateReportName = "duplicate_report.txt"
	SuccessReportName   = "success_report.txt"
	FailedReportName    = "failed_report.txt"
)

// WriteAll renders every report for a finished run. Empty reports are not
// written, so the directory only holds files with something to review.
func WriteAll(sessionDir string, outcomes []*ledger.Outcome, entries []*ledger.DuplicateEntry) error {
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return fmt.Errorf("ensure session dir: %w", err)
	}

	if err := writeDuplicates(filepath.Join(sessionDir, DuplicateReportName), entries); err != nil {
		return err
	}
	if err := writeSuccesses(filepath.Join(sessionDir, SuccessReportName), outcomes); err != nil {
		return err
	}
	return writeFailures(filepath.Join(sessionDir, FailedReportName), outcomes)
}

// writeDuplicates emits one line per collision pair. The line format is the
// contract external review tools parse; keep it stable.
func writeDuplicates(path string, entries []*ledger.DuplicateEntry) error {
	if len(entries) == 0 {
		return nil
	}
	var b strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&b, "%s  -->  %s\n", entry.SourcePath, entry.DestPath)
	}
	return writeReport(path, b.String())
}

func writeSuccesses(path string, outcomes []*ledger.Outcome) error {
	var b strings.Builder
	for _, o := range outcomes {
		switch o.Status {
		case ledger.OutcomeMoved, ledger.OutcomeCopied:
			fmt.Fprintf(&b, "%s: %s -> %s\n", o.Status, o.SourcePath, o.DestPath)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	return writeReport(path, b.String())
}

func writeFailures(path string, outcomes []*ledger.Outcome) error {
	var b strings.Builder
	for _, o := range outcomes {
		if o.Status != ledger.OutcomeFailed {
			continue
		}
		reason := o.Reason
		if reason == "" {
			reason = "unknown failure"
		}
		fmt.Fprintf(&b, "%s: %s\n", o.SourcePath, reason)
	}
	if b.Len() == 0 {
		return nil
	}
	return writeReport(path, b.String())
}

func writeReport(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
