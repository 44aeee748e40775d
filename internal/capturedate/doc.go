// Package capturedate resolves a media file's capture timestamp from
// embedded metadata: EXIF date tags for images, the ISO BMFF movie-header
// creation time for videos, and the filesystem modified time as the
// universal fallback. Resolution is total — it always produces a stamp.
package capturedate
