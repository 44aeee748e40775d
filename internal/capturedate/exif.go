package capturedate

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// exifLayouts are the accepted EXIF date-time string layouts, primary first.
var exifLayouts = []string{
	"2006:01:02 15:04:05",
	"2006:01:02",
}

// datePriority is the image fallback chain, most reliable tag first.
var datePriority = []struct {
	field  exif.FieldName
	source Source
}{
	{exif.DateTimeOriginal, SourceEXIFOriginal},
	{exif.DateTimeDigitized, SourceEXIFDigitized},
	{exif.DateTime, SourceEXIFDateTime},
}

var errNoEXIFDate = errors.New("no valid EXIF date tag")

// exifStamp decodes EXIF metadata from r and returns the first valid date
// along the priority chain. A tag that is present but unparsable or a
// placeholder falls through to the next tag.
func exifStamp(r io.Reader) (Stamp, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return Stamp{}, fmt.Errorf("decode exif: %w", err)
	}
	for _, cand := range datePriority {
		tag, err := x.Get(cand.field)
		if err != nil {
			continue
		}
		value, err := tag.StringVal()
		if err != nil {
			continue
		}
		t, err := parseEXIFDateTime(value)
		if err != nil || !plausible(t) {
			continue
		}
		return Stamp{Time: t, Source: cand.source}, nil
	}
	return Stamp{}, errNoEXIFDate
}

func parseEXIFDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(strings.TrimRight(value, "\x00"))
	var lastErr error
	for _, layout := range exifLayouts {
		t, err := time.ParseInLocation(layout, value, time.Local)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
