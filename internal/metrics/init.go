package metrics

// InitializeMetrics pre-populates expected label combinations so that every
// metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, file := range []string{"main", "wal", "shm"} {
		StoreSizeBytes.WithLabelValues(file)
	}

	entities := []string{"song", "album", "artist", "genre", "video"}
	for _, e := range entities {
		StoreQueuedUpserts.WithLabelValues(e)
		StoreFlushDuration.WithLabelValues(e)
		CatalogEntities.WithLabelValues(e)
	}

	for _, op := range []string{"get_all", "upsert", "delete", "initialize_schema"} {
		for _, e := range entities {
			StoreQueryTotal.WithLabelValues(op+"_"+e, "success")
			StoreQueryTotal.WithLabelValues(op+"_"+e, "error")
			StoreQueryDuration.WithLabelValues(op + "_" + e)
		}
	}

	for _, outcome := range []string{"created", "existing", "skipped"} {
		ReconcileSongsTotal.WithLabelValues(outcome)
		ReconcileVideosTotal.WithLabelValues(outcome)
	}
	for _, e := range []string{"album", "artist", "genre"} {
		EntitiesCreatedTotal.WithLabelValues(e)
	}

	for _, kind := range []string{"song", "video"} {
		for _, status := range []string{"cache_hit", "generated", "miss", "error"} {
			ThumbnailFetchesTotal.WithLabelValues(kind, status)
		}
		ThumbnailFetchDuration.WithLabelValues(kind)
	}

	volumes := []string{"music", "video", "cache", "database", "unknown"}
	fsOps := []string{"read", "write", "stat", "readdir"}
	for _, vol := range volumes {
		for _, op := range fsOps {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
		}
	}

	retryOps := []string{"stat", "open", "readdir", "write"}
	for _, op := range retryOps {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
