package capturedate_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediasort/internal/capturedate"
	"mediasort/internal/logging"
	"mediasort/internal/media"
	"mediasort/internal/testsupport"
)

func statFile(t *testing.T, path string) media.File {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	return media.NewFile(path, info)
}

func setMTime(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func resolve(t *testing.T, path string) capturedate.Stamp {
	t.Helper()
	r := capturedate.NewResolver(logging.NewNop())
	return r.Resolve(statFile(t, path))
}

func TestOriginalBeatsDigitized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.jpg")
	testsupport.WriteJPEG(t, path, testsupport.EXIFFields{
		"DateTimeOriginal":  "2023:05:10 10:00:00",
		"DateTimeDigitized": "2024:01:01 09:00:00",
	})

	stamp := resolve(t, path)
	if stamp.Source != capturedate.SourceEXIFOriginal {
		t.Fatalf("source = %s, want exif-original", stamp.Source)
	}
	y, m, d := stamp.Date()
	if y != 2023 || m != time.May || d != 10 {
		t.Errorf("date = %d-%d-%d, want 2023-05-10", y, m, d)
	}
}

func TestDigitizedWhenOriginalAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.jpg")
	testsupport.WriteJPEG(t, path, testsupport.EXIFFields{
		"DateTimeDigitized": "2022:12:24 18:30:00",
	})

	stamp := resolve(t, path)
	if stamp.Source != capturedate.SourceEXIFDigitized {
		t.Fatalf("source = %s, want exif-digitized", stamp.Source)
	}
}

func TestPlainDateTimeIsLastEXIFResort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.jpg")
	testsupport.WriteJPEG(t, path, testsupport.EXIFFields{
		"DateTime": "2021:07:04 12:00:00",
	})

	stamp := resolve(t, path)
	if stamp.Source != capturedate.SourceEXIFDateTime {
		t.Fatalf("source = %s, want exif-datetime", stamp.Source)
	}
	if stamp.Time.Year() != 2021 {
		t.Errorf("year = %d", stamp.Time.Year())
	}
}

func TestMalformedOriginalFallsThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.jpg")
	testsupport.WriteJPEG(t, path, testsupport.EXIFFields{
		"DateTimeOriginal":  "not a date",
		"DateTimeDigitized": "2020:02:29 08:15:00",
	})

	stamp := resolve(t, path)
	if stamp.Source != capturedate.SourceEXIFDigitized {
		t.Fatalf("source = %s, want exif-digitized", stamp.Source)
	}
}

func TestPlaceholderDateRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.jpg")
	testsupport.WriteJPEG(t, path, testsupport.EXIFFields{
		"DateTimeOriginal": "0000:00:00 00:00:00",
	})
	mtime := time.Date(2019, 3, 3, 3, 3, 3, 0, time.Local)
	setMTime(t, path, mtime)

	stamp := resolve(t, path)
	if stamp.Source != capturedate.SourceMTime {
		t.Fatalf("source = %s, want filesystem-mtime", stamp.Source)
	}
}

func TestDateOnlyLayoutAccepted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.jpg")
	testsupport.WriteJPEG(t, path, testsupport.EXIFFields{
		"DateTimeOriginal": "2018:06:15",
	})

	stamp := resolve(t, path)
	if stamp.Source != capturedate.SourceEXIFOriginal {
		t.Fatalf("source = %s, want exif-original", stamp.Source)
	}
	y, m, d := stamp.Date()
	if y != 2018 || m != time.June || d != 15 {
		t.Errorf("date = %d-%d-%d", y, m, d)
	}
}

func TestNoEXIFFallsBackToMTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.jpg")
	testsupport.WriteBareJPEG(t, path)
	mtime := time.Date(2017, 8, 20, 10, 0, 0, 0, time.Local)
	setMTime(t, path, mtime)

	stamp := resolve(t, path)
	if stamp.Source != capturedate.SourceMTime {
		t.Fatalf("source = %s, want filesystem-mtime", stamp.Source)
	}
	y, m, d := stamp.Date()
	if y != 2017 || m != time.August || d != 20 {
		t.Errorf("date = %d-%d-%d", y, m, d)
	}
}

func TestTruncatedImageDegradesToMTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	testsupport.WriteFileBytes(t, path, []byte{})
	mtime := time.Date(2016, 1, 2, 0, 0, 0, 0, time.Local)
	setMTime(t, path, mtime)

	stamp := resolve(t, path)
	if stamp.Source != capturedate.SourceMTime {
		t.Fatalf("source = %s, want filesystem-mtime", stamp.Source)
	}
}

func TestVideoCreationTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	created := time.Date(2022, 9, 18, 14, 5, 0, 0, time.UTC)
	testsupport.WriteMP4(t, path, created)

	stamp := resolve(t, path)
	if stamp.Source != capturedate.SourceVideoCreation {
		t.Fatalf("source = %s, want video-creation-time", stamp.Source)
	}
	y, m, d := stamp.Date()
	if y != 2022 || m != time.September || d != 18 {
		t.Errorf("date = %d-%d-%d", y, m, d)
	}
}

func TestVideoZeroCreationTimeFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteMP4(t, path, time.Time{})
	mtime := time.Date(2015, 11, 11, 11, 11, 11, 0, time.Local)
	setMTime(t, path, mtime)

	stamp := resolve(t, path)
	if stamp.Source != capturedate.SourceMTime {
		t.Fatalf("source = %s, want filesystem-mtime", stamp.Source)
	}
}

func TestNonBMFFVideoUsesMTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.avi")
	testsupport.WriteFile(t, path, 128)
	mtime := time.Date(2014, 4, 1, 9, 0, 0, 0, time.Local)
	setMTime(t, path, mtime)

	stamp := resolve(t, path)
	if stamp.Source != capturedate.SourceMTime {
		t.Fatalf("source = %s, want filesystem-mtime", stamp.Source)
	}
}
