// Package metrics defines the Prometheus instrumentation for the media
// catalog service.
//
// Metric families cover:
//   - HTTP request counts, durations, and in-flight gauge
//   - Catalog store queries, flush transactions, and queued-upsert depth
//   - Crawl coordinator runs, coalesced re-runs, and last-run stats
//   - Change detection polls and filesystem watcher events
//   - Reconciliation outcomes and synthesized entities
//   - Thumbnail fetches by media kind and outcome
//   - Sync cycles and in-memory catalog sizes
//   - Filesystem operation durations and NFS retry behavior
//
// All metrics are registered via promauto at package load. Call
// InitializeMetrics once at startup to pre-populate label combinations so
// dashboards see zero-valued series immediately.
package metrics
