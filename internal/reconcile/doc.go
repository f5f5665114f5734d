// Package reconcile merges discovered media files into the in-memory
// catalog, synthesizing missing album, artist, and genre rows so every
// persisted song has its dependents, and queueing the resulting upserts on
// the store for the next flush.
package reconcile
