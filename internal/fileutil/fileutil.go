// Package fileutil holds small filesystem helpers shared by the transfer and
// trash packages.
package fileutil

import (
	"errors"
	"io"
	"os"
	"syscall"
)

// CopyFile streams src to dst with default permissions (0o644). A partial
// destination is removed on failure.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

// RenameOrCopy moves src to dst, degrading to a copy when the two paths live
// on different filesystems. It reports whether the copy fallback ran, in
// which case src still exists and the caller decides its fate.
func RenameOrCopy(src, dst string) (copied bool, err error) {
	renameErr := os.Rename(src, dst)
	if renameErr == nil {
		return false, nil
	}
	var linkErr *os.LinkError
	if !errors.As(renameErr, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return false, renameErr
	}
	if err := CopyFile(src, dst); err != nil {
		return false, err
	}
	return true, nil
}
