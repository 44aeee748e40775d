package capturedate

import (
	"log/slog"
	"os"
	"time"

	"mediasort/internal/logging"
	"mediasort/internal/media"
)

// Source identifies which link of the fallback chain produced a stamp.
type Source string

const (
	SourceEXIFOriginal  Source = "exif-original"
	SourceEXIFDigitized Source = "exif-digitized"
	SourceEXIFDateTime  Source = "exif-datetime"
	SourceVideoCreation Source = "video-creation-time"
	SourceMTime         Source = "filesystem-mtime"
)

// Stamp is a resolved capture timestamp plus its originating source tag.
type Stamp struct {
	Time   time.Time
	Source Source
}

// Date returns the calendar triple the placement planner consumes.
func (s Stamp) Date() (year int, month time.Month, day int) {
	return s.Time.Date()
}

// Resolver determines a file's capture date from embedded metadata with a
// format-specific fallback chain. Resolution never fails: the filesystem
// modified time captured at discovery is the universal last resort, and every
// metadata degradation is logged as a warning, not surfaced as an error.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver constructs a resolver. A nil logger disables diagnostics.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logging.NewComponentLogger(logger, "capturedate")}
}

// Resolve returns the capture stamp for file.
//
// Images: EXIF DateTimeOriginal, then DateTimeDigitized, then DateTime; the
// first syntactically valid, non-placeholder value wins.
// Videos: the ISO BMFF movie-header creation time.
// Everything else, and every degradation above, falls back to mtime.
func (r *Resolver) Resolve(file media.File) Stamp {
	switch file.Kind {
	case media.KindImage:
		if stamp, ok := r.imageStamp(file.Path); ok {
			return stamp
		}
	case media.KindVideo:
		if media.IsISOBMFF(file.Ext) {
			if stamp, ok := r.videoStamp(file.Path); ok {
				return stamp
			}
		}
	}
	return Stamp{Time: file.ModTime, Source: SourceMTime}
}

func (r *Resolver) imageStamp(path string) (Stamp, bool) {
	f, err := os.Open(path)
	if err != nil {
		r.logger.Warn("cannot open image for metadata",
			logging.String("path", path), logging.Error(err))
		return Stamp{}, false
	}
	defer f.Close()

	stamp, err := exifStamp(f)
	if err != nil {
		r.logger.Warn("no usable EXIF date",
			logging.String("path", path), logging.Error(err))
		return Stamp{}, false
	}
	return stamp, true
}

func (r *Resolver) videoStamp(path string) (Stamp, bool) {
	f, err := os.Open(path)
	if err != nil {
		r.logger.Warn("cannot open video for metadata",
			logging.String("path", path), logging.Error(err))
		return Stamp{}, false
	}
	defer f.Close()

	stamp, err := mvhdStamp(f)
	if err != nil {
		r.logger.Warn("no usable container creation time",
			logging.String("path", path), logging.Error(err))
		return Stamp{}, false
	}
	return stamp, true
}

// plausible rejects placeholder dates some cameras write (epoch zeros,
// pre-photography years).
func plausible(t time.Time) bool {
	return !t.IsZero() && t.Year() >= 1900
}
