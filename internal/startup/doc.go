// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// This package centralizes all application configuration and provides consistent
// logging throughout the application lifecycle.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - MUSIC_DIR: Path to music library root (default: /music)
//   - VIDEO_DIR: Path to video library root (default: /video)
//   - CACHE_DIR: Path to cache directory for thumbnails (default: /cache)
//   - DATABASE_DIR: Path to database directory (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - POLL_INTERVAL: Filesystem change detection interval as Go duration (default: 30s)
//   - RESCAN_INTERVAL: Full re-crawl interval as Go duration (default: 6h)
//   - WATCH_ENABLED: Enable the fsnotify watcher on library roots (default: true)
//   - PARALLEL_SCAN: Enable worker-pool file enumeration (default: true)
//   - CRAWL_WORKERS: Override worker count for parallel scanning
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - MEMORY_LIMIT: Container memory limit for automatic GOMEMLIMIT configuration
//   - MEMORY_RATIO: Percentage of MEMORY_LIMIT for Go heap (default: 0.85)
//   - GOMEMLIMIT: Direct override for Go's memory limit
//
// # Directory Setup
//
// The package validates and creates required directories:
//   - Database directory: Required, must be writable
//   - Cache directory: Optional, enables thumbnails if writable
//   - Music and video directories: Created when missing (usually mounted)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
// The package provides structured logging functions for consistent output:
//   - [LogStoreInit]: Catalog store initialization timing
//   - [LogCatalogLoaded]: Initial catalog load counts
//   - [LogThumbnailInit]: Thumbnail generator setup and FFmpeg availability
//   - [LogCrawlerInit]: Crawl coordinator configuration and intervals
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//
//	// Initialize components...
//	startup.LogStoreInit(storeInitDuration)
//	startup.LogCrawlerInit(config.PollInterval, config.RescanInterval)
//
//	// Start server...
//	startup.LogServerStarted(startup.ServerConfig{
//	    Port:            config.Port,
//	    MetricsPort:     config.MetricsPort,
//	    MetricsEnabled:  config.MetricsEnabled,
//	    StartupDuration: time.Since(startTime),
//	})
//
//	// On shutdown...
//	startup.LogShutdownInitiated("SIGTERM")
//	// ... cleanup ...
//	startup.LogShutdownComplete()
package startup
