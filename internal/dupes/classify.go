package dupes

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"mediasort/internal/ledger"
)

// DefaultChunkSize is the comparison read size when the config does not
// override it.
const DefaultChunkSize = 64 * 1024

// Classify decides whether src and dst hold identical bytes. The size gate
// runs first so differently sized files never touch their contents; equal
// sizes stream both files in fixed chunks until the first difference. An
// error means the comparison was inconclusive, which callers must treat as a
// plain name collision rather than guessing.
func Classify(src, dst string, chunkSize int) (ledger.Classification, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("stat source: %w", err)
	}
	dstInfo, err := os.Stat(dst)
	if err != nil {
		return "", fmt.Errorf("stat destination: %w", err)
	}
	if srcInfo.Size() != dstInfo.Size() {
		return ledger.ClassDifferent, nil
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.Open(dst)
	if err != nil {
		return "", fmt.Errorf("open destination: %w", err)
	}
	defer dstFile.Close()

	srcBuf := make([]byte, chunkSize)
	dstBuf := make([]byte, chunkSize)
	for {
		n, readErr := io.ReadFull(srcFile, srcBuf)
		if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
			return "", fmt.Errorf("read source: %w", readErr)
		}
		m, dstErr := io.ReadFull(dstFile, dstBuf)
		if dstErr != nil && dstErr != io.EOF && dstErr != io.ErrUnexpectedEOF {
			return "", fmt.Errorf("read destination: %w", dstErr)
		}
		if n != m || !bytes.Equal(srcBuf[:n], dstBuf[:m]) {
			return ledger.ClassDifferent, nil
		}
		if readErr != nil {
			return ledger.ClassIdentical, nil
		}
	}
}
