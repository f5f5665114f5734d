// Package tagmeta recovers song and video metadata from media files.
// Embedded tags are preferred; when a file has none, artist and album are
// inferred from the directory layout under the library root and the title
// from the filename stem.
package tagmeta
