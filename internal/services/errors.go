package services

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

var (
	// ErrValidation marks caller mistakes such as a missing source root.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks per-file failures the run recovers from.
	ErrTransient = errors.New("transient failure")
	// ErrFatal marks run-fatal conditions: further transfers cannot succeed,
	// the remaining batch must halt while preserving outcomes recorded so far.
	ErrFatal = errors.New("fatal run condition")
	// ErrConflict marks a duplicate resolution whose recorded filesystem state
	// no longer matches reality. It fails that single resolution only.
	ErrConflict = errors.New("ledger conflict")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err should halt the remaining batch. A destination
// that is out of space or mounted read-only can never accept another transfer.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrFatal) {
		return true
	}
	return errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EROFS)
}

// IsConflict reports whether err represents a stale duplicate resolution.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
