package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Store metrics
var (
	StoreQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_store_queries_total",
			Help: "Total number of catalog store queries",
		},
		[]string{"operation", "status"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_store_query_duration_seconds",
			Help:    "Catalog store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	StoreFlushDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_store_flush_duration_seconds",
			Help:    "Duration of queued-upsert flush transactions in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"entity"},
	)

	StoreQueuedUpserts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_catalog_store_queued_upserts",
			Help: "Number of upserts currently queued per entity type",
		},
		[]string{"entity"},
	)

	StoreConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_store_connections_open",
			Help: "Number of open database connections",
		},
	)

	StoreSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_catalog_store_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Crawl coordinator metrics
var (
	CrawlRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_crawl_runs_total",
			Help: "Total number of library crawls",
		},
	)

	CrawlQueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_crawl_queued_total",
			Help: "Total number of crawl requests coalesced into a queued re-run",
		},
	)

	CrawlIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_crawl_running",
			Help: "Whether a crawl is currently running (1 = running, 0 = idle)",
		},
	)

	CrawlLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_crawl_last_run_timestamp",
			Help: "Timestamp of the last completed crawl",
		},
	)

	CrawlLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_crawl_last_run_duration_seconds",
			Help: "Duration of the last completed crawl in seconds",
		},
	)

	CrawlFilesSeen = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_crawl_files_seen_total",
			Help: "Total number of candidate media files discovered by crawls",
		},
	)

	CrawlErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_crawl_errors_total",
			Help: "Total number of crawl errors",
		},
	)

	CrawlWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_crawl_enumeration_workers",
			Help: "Number of workers used for accelerated file enumeration",
		},
	)
)

// Change detection metrics
var (
	ChangePollChecksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_change_poll_checks_total",
			Help: "Total number of change detection polls",
		},
	)

	ChangePollChangesDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_change_poll_changes_detected_total",
			Help: "Total number of polls that detected filesystem changes",
		},
	)

	ChangePollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_catalog_change_poll_duration_seconds",
			Help:    "Duration of change detection polls in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	WatcherEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_watcher_events_total",
			Help: "Total number of filesystem watcher events received",
		},
	)
)

// Reconciler metrics
var (
	ReconcileSongsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_reconcile_songs_total",
			Help: "Total number of song reconciliations by outcome",
		},
		[]string{"outcome"}, // "created", "existing", "skipped"
	)

	ReconcileVideosTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_reconcile_videos_total",
			Help: "Total number of video reconciliations by outcome",
		},
		[]string{"outcome"},
	)

	EntitiesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_entities_created_total",
			Help: "Total number of catalog entities synthesized during reconciliation",
		},
		[]string{"entity"}, // "album", "artist", "genre"
	)

	AlbumBackfillsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_album_backfills_total",
			Help: "Total number of albums whose placeholder artist or thumbnail was backfilled",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_thumbnail_fetches_total",
			Help: "Total number of thumbnail fetches by media kind and outcome",
		},
		[]string{"kind", "status"}, // kind: "song", "video"; status: "cache_hit", "generated", "miss", "error"
	)

	ThumbnailFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_thumbnail_fetch_duration_seconds",
			Help:    "Thumbnail fetch duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)
)

// Sync metrics
var (
	SyncRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_sync_runs_total",
			Help: "Total number of catalog sync cycles",
		},
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_catalog_sync_duration_seconds",
			Help:    "Duration of catalog sync cycles in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)
)

// Catalog size gauges, updated by the Collector.
var CatalogEntities = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "media_catalog_entities",
		Help: "Number of entities currently held in the in-memory catalog",
	},
	[]string{"entity"},
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_fs_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_fs_operation_errors_total",
			Help: "Total number of filesystem operation errors",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_fs_retry_attempts_total",
			Help: "Total number of filesystem operation retry attempts",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_fs_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_fs_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_catalog_fs_retry_duration_seconds",
			Help:    "Total duration spent in filesystem retry loops in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_catalog_fs_stale_errors_total",
			Help: "Total number of stale NFS file handle errors encountered",
		},
		[]string{"operation", "volume"},
	)
)

// Memory monitor metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_memory_usage_ratio",
			Help: "Current heap usage as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_catalog_memory_paused",
			Help: "Whether processing is paused due to memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_catalog_memory_gc_pauses_total",
			Help: "Total number of forced GC runs triggered by memory pressure",
		},
	)
)
