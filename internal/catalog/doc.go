// Package catalog holds the in-memory model of the media library.
//
// It defines the five entity types (Song, Album, Artist, Genre, Video),
// their natural-key identities, and the Catalog container that keeps a
// hash-map index per natural key so the reconciler's existence checks stay
// O(1) across large crawls.
//
// Entity lifecycle is a tagged state rather than a boolean: an entity is
// Active or PendingDelete. PendingDelete entities survive in memory until
// the next Sync flushes the deletion to the store; on reload, songs marked
// PendingDelete are filtered out while the other four entity types are not.
//
// The Syncer owns the flush/reload cycle between the catalog and the
// persistent store.
package catalog
