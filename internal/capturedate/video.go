package capturedate

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/abema/go-mp4"
)

// appleEpochOffset is the number of seconds between the Apple/Mac epoch
// (1904-01-01 00:00:00 UTC) and the Unix epoch (1970-01-01 00:00:00 UTC).
// ISO BMFF movie headers count from the former.
const appleEpochOffset = 2082844800

var errNoCreationTime = errors.New("no creation time in movie header")

// mvhdStamp extracts the creation time from the moov>mvhd box of an ISO BMFF
// container. A zero or pre-1900 value is treated as absent so obviously
// unset headers fall through to mtime.
func mvhdStamp(r io.ReadSeeker) (Stamp, error) {
	boxes, err := mp4.ExtractBoxesWithPayload(r, nil, []mp4.BoxPath{
		{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()},
	})
	if err != nil {
		return Stamp{}, fmt.Errorf("read container structure: %w", err)
	}

	for _, box := range boxes {
		mvhd, ok := box.Payload.(*mp4.Mvhd)
		if !ok {
			continue
		}
		var raw uint64
		if mvhd.GetVersion() == 0 {
			raw = uint64(mvhd.CreationTimeV0)
		} else {
			raw = mvhd.CreationTimeV1
		}
		if raw == 0 {
			continue
		}
		t := time.Unix(int64(raw)-appleEpochOffset, 0).UTC()
		if !plausible(t) {
			continue
		}
		return Stamp{Time: t, Source: SourceVideoCreation}, nil
	}
	return Stamp{}, errNoCreationTime
}
