// Package thumbs generates and caches 200x200 JPEG thumbnails for songs
// and videos. Song art comes from sidecar cover files or embedded tags;
// video art comes from an ffmpeg frame grab. When no art can be produced
// the placeholder path is returned instead of an error.
package thumbs
