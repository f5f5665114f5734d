// Package filesystem provides filesystem operations with retry logic for
// NFS-backed media volumes.
//
// Stale file handle errors (ESTALE) are transient on NFS remounts; the
// retrying wrappers back off exponentially and report attempts through an
// Observer interface implemented by the metrics package. Paths are labelled
// with their volume (music, video, cache, database) via longest-prefix
// matching.
package filesystem
