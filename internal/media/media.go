package media

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// Kind distinguishes the two media categories the pipeline understands.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".heic": {},
	".webp": {},
	".gif":  {},
	".bmp":  {},
	".tiff": {},
	".tif":  {},
}

var videoExts = map[string]struct{}{
	".mp4":  {},
	".mov":  {},
	".avi":  {},
	".mkv":  {},
	".wmv":  {},
	".flv":  {},
	".webm": {},
	".m4v":  {},
	".3gp":  {},
}

// isoBMFFExts lists video containers that store creation time in the
// ISO Base Media File Format moov>mvhd box.
var isoBMFFExts = map[string]struct{}{
	".mp4": {},
	".mov": {},
	".m4v": {},
	".3gp": {},
}

// File describes one discovered media file. Identity is the absolute source
// path; the remaining attributes are captured at discovery time and never
// mutated afterwards.
type File struct {
	Path    string
	Ext     string
	Kind    Kind
	Size    int64
	ModTime time.Time
}

// NewFile builds a File from a path and its directory entry metadata.
// The caller is responsible for passing an absolute path.
func NewFile(path string, info fs.FileInfo) File {
	ext := NormalizeExt(path)
	kind, _ := KindForExt(ext)
	return File{
		Path:    path,
		Ext:     ext,
		Kind:    kind,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}

// NormalizeExt returns the lowercased extension of path, dot included.
func NormalizeExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// KindForExt reports the media kind for a normalized extension. The second
// return value is false for extensions outside the allow-list.
func KindForExt(ext string) (Kind, bool) {
	if _, ok := imageExts[ext]; ok {
		return KindImage, true
	}
	if _, ok := videoExts[ext]; ok {
		return KindVideo, true
	}
	return "", false
}

// IsMedia reports whether path carries a recognized image or video extension.
func IsMedia(path string) bool {
	_, ok := KindForExt(NormalizeExt(path))
	return ok
}

// IsISOBMFF reports whether the extension names an ISO BMFF container whose
// mvhd box can carry a creation time.
func IsISOBMFF(ext string) bool {
	_, ok := isoBMFFExts[ext]
	return ok
}
