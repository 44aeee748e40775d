package services_test

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
	"testing"

	"mediasort/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("open failed")
	err := services.Wrap(services.ErrTransient, "transfer", "copy file", "failed to copy media", base)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatal("wrapped error should match marker")
	}
	if !errors.Is(err, base) {
		t.Fatal("wrapped error should match cause")
	}
	for _, fragment := range []string{"transfer", "copy file", "failed to copy media"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error message missing %q: %s", fragment, err)
		}
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := services.Wrap(nil, "scan", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatal("nil marker should default to ErrTransient")
	}
}

func TestIsFatal(t *testing.T) {
	if services.IsFatal(nil) {
		t.Error("nil is not fatal")
	}
	if !services.IsFatal(services.Wrap(services.ErrFatal, "transfer", "write", "destination full", nil)) {
		t.Error("ErrFatal wrap should be fatal")
	}
	if !services.IsFatal(fmt.Errorf("write: %w", syscall.ENOSPC)) {
		t.Error("ENOSPC should be fatal")
	}
	if !services.IsFatal(fmt.Errorf("mkdir: %w", syscall.EROFS)) {
		t.Error("EROFS should be fatal")
	}
	if services.IsFatal(fmt.Errorf("open: %w", syscall.EACCES)) {
		t.Error("EACCES is per-file, not fatal")
	}
}

func TestIsConflict(t *testing.T) {
	err := services.Wrap(services.ErrConflict, "resolve", "apply", "source changed since recording", nil)
	if !services.IsConflict(err) {
		t.Error("expected conflict classification")
	}
	if services.IsConflict(errors.New("boring")) {
		t.Error("plain error is not a conflict")
	}
}
