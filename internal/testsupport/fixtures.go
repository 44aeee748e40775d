package testsupport

import (
	"bytes"
	"encoding/binary"
	"sort"
	"testing"
	"time"
)

// EXIF tag IDs used by the date fixtures.
const (
	tagDateTime          = 0x0132 // IFD0
	tagExifIFDPointer    = 0x8769 // IFD0
	tagDateTimeOriginal  = 0x9003 // Exif sub-IFD
	tagDateTimeDigitized = 0x9004 // Exif sub-IFD
)

// EXIFFields maps EXIF date tag names to their raw string values.
// Recognized keys: DateTimeOriginal, DateTimeDigitized, DateTime.
type EXIFFields map[string]string

// WriteJPEG writes a minimal JPEG whose APP1 segment carries the requested
// EXIF date tags. Values use the on-disk EXIF layout ("2006:01:02 15:04:05")
// verbatim, so malformed fixtures are expressible too.
func WriteJPEG(t testing.TB, path string, fields EXIFFields) {
	t.Helper()

	tags := map[uint16]string{}
	for name, value := range fields {
		switch name {
		case "DateTimeOriginal":
			tags[tagDateTimeOriginal] = value
		case "DateTimeDigitized":
			tags[tagDateTimeDigitized] = value
		case "DateTime":
			tags[tagDateTime] = value
		default:
			t.Fatalf("unknown EXIF field %q", name)
		}
	}

	tiff := buildTIFF(tags)
	payload := append([]byte("Exif\x00\x00"), tiff...)

	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8}) // SOI
	buf.Write([]byte{0xFF, 0xE1}) // APP1
	segLen := uint16(len(payload) + 2)
	_ = binary.Write(&buf, binary.BigEndian, segLen)
	buf.Write(payload)
	buf.Write([]byte{0xFF, 0xD9}) // EOI

	WriteFileBytes(t, path, buf.Bytes())
}

// WriteBareJPEG writes a JPEG with no EXIF segment at all.
func WriteBareJPEG(t testing.TB, path string) {
	t.Helper()
	WriteFileBytes(t, path, []byte{0xFF, 0xD8, 0xFF, 0xD9})
}

type tiffEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value uint32 // inline value or offset into the data area
}

// buildTIFF assembles a little-endian TIFF stream with IFD0 and, when any
// sub-IFD tag is requested, an Exif IFD reachable through the 0x8769 pointer.
// Date values are ASCII entries padded to the canonical 20 bytes.
func buildTIFF(tags map[uint16]string) []byte {
	var ifd0Strings, exifStrings []uint16
	for tag := range tags {
		if tag == tagDateTime {
			ifd0Strings = append(ifd0Strings, tag)
		} else {
			exifStrings = append(exifStrings, tag)
		}
	}
	sort.Slice(ifd0Strings, func(i, j int) bool { return ifd0Strings[i] < ifd0Strings[j] })
	sort.Slice(exifStrings, func(i, j int) bool { return exifStrings[i] < exifStrings[j] })

	n0 := len(ifd0Strings)
	if len(exifStrings) > 0 {
		n0++
	}
	ifd0Size := 2 + 12*n0 + 4
	exifOffset := uint32(8 + ifd0Size)
	exifSize := 0
	if len(exifStrings) > 0 {
		exifSize = 2 + 12*len(exifStrings) + 4
	}
	dataOffset := exifOffset + uint32(exifSize)

	var data bytes.Buffer
	place := func(value string) uint32 {
		off := dataOffset + uint32(data.Len())
		raw := make([]byte, 20)
		copy(raw, value)
		data.Write(raw)
		return off
	}

	var ifd0 []tiffEntry
	for _, tag := range ifd0Strings {
		ifd0 = append(ifd0, tiffEntry{tag: tag, typ: 2, count: 20, value: place(tags[tag])})
	}
	var exifIFD []tiffEntry
	for _, tag := range exifStrings {
		exifIFD = append(exifIFD, tiffEntry{tag: tag, typ: 2, count: 20, value: place(tags[tag])})
	}
	if len(exifIFD) > 0 {
		ifd0 = append(ifd0, tiffEntry{tag: tagExifIFDPointer, typ: 4, count: 1, value: exifOffset})
	}
	sort.Slice(ifd0, func(i, j int) bool { return ifd0[i].tag < ifd0[j].tag })

	var out bytes.Buffer
	le := binary.LittleEndian
	out.Write([]byte("II"))
	_ = binary.Write(&out, le, uint16(42))
	_ = binary.Write(&out, le, uint32(8)) // IFD0 offset

	writeIFD := func(entries []tiffEntry) {
		_ = binary.Write(&out, le, uint16(len(entries)))
		for _, e := range entries {
			_ = binary.Write(&out, le, e.tag)
			_ = binary.Write(&out, le, e.typ)
			_ = binary.Write(&out, le, e.count)
			_ = binary.Write(&out, le, e.value)
		}
		_ = binary.Write(&out, le, uint32(0)) // next IFD
	}

	writeIFD(ifd0)
	if len(exifIFD) > 0 {
		writeIFD(exifIFD)
	}
	out.Write(data.Bytes())
	return out.Bytes()
}

// WriteMP4 writes a minimal ISO BMFF container whose movie header carries the
// given creation time. A zero time writes an unset (zero) header field.
func WriteMP4(t testing.TB, path string, creation time.Time) {
	t.Helper()

	const appleEpochOffset = 2082844800
	var stamp uint32
	if !creation.IsZero() {
		stamp = uint32(creation.Unix() + appleEpochOffset)
	}

	be := binary.BigEndian
	mvhd := make([]byte, 100)
	// version and flags stay zero
	be.PutUint32(mvhd[4:], stamp)       // creation_time
	be.PutUint32(mvhd[8:], stamp)       // modification_time
	be.PutUint32(mvhd[12:], 1000)       // timescale
	be.PutUint32(mvhd[16:], 0)          // duration
	be.PutUint32(mvhd[20:], 0x00010000) // rate 1.0
	be.PutUint16(mvhd[24:], 0x0100)     // volume 1.0
	// identity matrix
	be.PutUint32(mvhd[36:], 0x00010000)
	be.PutUint32(mvhd[52:], 0x00010000)
	be.PutUint32(mvhd[68:], 0x40000000)
	be.PutUint32(mvhd[96:], 2) // next_track_ID

	box := func(typ string, payload []byte) []byte {
		out := make([]byte, 0, 8+len(payload))
		var size [4]byte
		be.PutUint32(size[:], uint32(8+len(payload)))
		out = append(out, size[:]...)
		out = append(out, typ...)
		return append(out, payload...)
	}

	ftyp := box("ftyp", []byte("isom\x00\x00\x02\x00isom"))
	moov := box("moov", box("mvhd", mvhd))
	WriteFileBytes(t, path, append(ftyp, moov...))
}
