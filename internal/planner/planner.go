// Package planner maps a media file and its capture stamp to a destination
// slot and reports whether that slot is free. Collisions are classified by
// byte equality before any filesystem mutation happens, so the decision a
// caller acts on is already final.
package planner

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"mediasort/internal/capturedate"
	"mediasort/internal/dupes"
	"mediasort/internal/ledger"
	"mediasort/internal/logging"
	"mediasort/internal/media"
)

// Status is the planner's verdict for one destination slot.
type Status string

const (
	// StatusFree means nothing occupies the slot and the file may be placed.
	StatusFree Status = "free"
	// StatusNameCollision means the slot is occupied by different bytes, or
	// the comparison was inconclusive and equality could not be proven.
	StatusNameCollision Status = "name-collision"
	// StatusContentIdentical means the slot holds byte-identical content.
	StatusContentIdentical Status = "content-identical"
)

// Decision is the placement verdict for one source file.
type Decision struct {
	DestPath       string
	Status         Status
	Classification ledger.Classification
	DestSize       int64
}

// Planner computes destination slots under a fixed root. Slots claimed during
// the run count as occupied even before the transfer lands, so two sources
// can never both see the same slot free.
type Planner struct {
	destRoot  string
	compare   bool
	chunkSize int
	logger    *slog.Logger

	mu      sync.Mutex
	claimed map[string]struct{}
}

// New returns a Planner for destRoot. When compare is false every occupied
// slot reports a name collision without reading file contents.
func New(destRoot string, compare bool, chunkSize int, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Planner{
		destRoot:  destRoot,
		compare:   compare,
		chunkSize: chunkSize,
		logger:    logger,
		claimed:   make(map[string]struct{}),
	}
}

// DestFor returns the slot a file with the given stamp maps to: the capture
// date expanded to YYYY/MM/DD under the destination root, keeping the
// original filename verbatim.
func (p *Planner) DestFor(file media.File, stamp capturedate.Stamp) string {
	year, month, day := stamp.Date()
	return filepath.Join(
		p.destRoot,
		fmt.Sprintf("%04d", year),
		fmt.Sprintf("%02d", month),
		fmt.Sprintf("%02d", day),
		filepath.Base(file.Path),
	)
}

// Plan decides whether file may be placed at its slot. Plan itself mutates
// nothing; the same source and stamp always yield the same decision until
// Claim records a placement.
func (p *Planner) Plan(file media.File, stamp capturedate.Stamp) Decision {
	dest := p.DestFor(file, stamp)
	decision := Decision{DestPath: dest, Status: StatusFree}

	p.mu.Lock()
	_, claimedInRun := p.claimed[dest]
	p.mu.Unlock()

	info, err := os.Stat(dest)
	switch {
	case err == nil:
		decision.DestSize = info.Size()
		decision.Status, decision.Classification = p.classify(file.Path, dest)
	case errors.Is(err, os.ErrNotExist):
		if claimedInRun {
			// The occupying transfer may still be in flight.
			decision.Status = StatusNameCollision
			decision.Classification = ledger.ClassDifferent
		}
	default:
		p.logger.Warn("destination slot unreadable, treating as occupied",
			logging.String("destination", dest),
			logging.Error(err),
		)
		decision.Status = StatusNameCollision
		decision.Classification = ledger.ClassDifferent
	}
	return decision
}

// Claim marks a slot as filled for the rest of the run.
func (p *Planner) Claim(dest string) {
	p.mu.Lock()
	p.claimed[dest] = struct{}{}
	p.mu.Unlock()
}

func (p *Planner) classify(src, dest string) (Status, ledger.Classification) {
	if !p.compare {
		return StatusNameCollision, ledger.ClassDifferent
	}
	class, err := dupes.Classify(src, dest, p.chunkSize)
	if err != nil {
		p.logger.Warn("collision comparison inconclusive, keeping both files",
			logging.String("source", src),
			logging.String("destination", dest),
			logging.Error(err),
		)
		return StatusNameCollision, ledger.ClassDifferent
	}
	if class == ledger.ClassIdentical {
		return StatusContentIdentical, class
	}
	return StatusNameCollision, class
}
