// Package mediatypes classifies media files by extension.
//
// It distinguishes playable audio files (the song library) from playable
// video files (the video library) and provides MIME type lookups for the
// HTTP layer.
package mediatypes
