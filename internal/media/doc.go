// Package media defines the file model shared across the sorting pipeline:
// the recognized image and video extension allow-lists and the immutable
// descriptor attached to every discovered file.
package media
