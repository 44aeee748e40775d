// Package scan enumerates media files under a source root: recursive, lazy,
// filtered by the recognized extension allow-list, and tolerant of unreadable
// directories.
package scan
