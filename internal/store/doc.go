// Package store provides the SQLite persistence layer for the media catalog.
//
// Each entity type (song, album, artist, genre, video) has its own table
// keyed by the entity's natural key: songs and videos by source path, albums
// by (title, genre), artists and genres by name. Rows carry a removed flag
// mirroring the catalog's PendingDelete state.
//
// Writes follow a queue-then-flush contract: QueueXUpsert buffers rows in
// memory and FlushXUpserts writes the whole queue in a single transaction.
// Deletes apply immediately. The database runs in WAL mode with a busy
// timeout so catalog reads stay responsive during flushes.
package store
