// Package handlers implements the catalog's HTTP control surface: health
// and readiness probes, crawl and sync triggers, read-only catalog
// listings, and thumbnail serving out of the cache directory.
//
// Listings are served from the in-memory catalog, never the store, so
// they reflect whatever the last completed sync loaded. Mutating
// endpoints only trigger pipeline operations; there is no direct entity
// editing through the API.
package handlers
