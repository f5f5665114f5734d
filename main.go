package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/crawler"
	"media-catalog/internal/filesystem"
	"media-catalog/internal/handlers"
	"media-catalog/internal/logging"
	"media-catalog/internal/memory"
	"media-catalog/internal/metrics"
	"media-catalog/internal/middleware"
	"media-catalog/internal/reconcile"
	"media-catalog/internal/startup"
	"media-catalog/internal/store"
	"media-catalog/internal/tagmeta"
	"media-catalog/internal/thumbs"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	// Set GOMEMLIMIT from the container limit before anything allocates
	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Pre-register metric label combinations so the first scrape is complete
	metrics.InitializeMetrics()

	// Label filesystem metrics by mount and route them to Prometheus
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"music":    config.MusicDir,
		"video":    config.VideoDir,
		"cache":    config.CacheDir,
		"database": config.DatabaseDir,
	}))
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	// Initialize libvips for thumbnail generation. Failure is not fatal;
	// the generator falls back to pure-Go decoding.
	if err := thumbs.InitVips(); err != nil {
		logging.Warn("libvips unavailable, using fallback image decoding: %v", err)
	}

	// Open the catalog database
	storeStart := time.Now()
	ctx := context.Background()
	st, err := store.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize catalog store: %v", err)
	}
	defer st.Close()
	startup.LogStoreInit(time.Since(storeStart))

	// Build the in-memory catalog and load persisted entities
	cat := catalog.New()
	syncer := catalog.NewSyncer(cat, st)

	loadStart := time.Now()
	if err := syncer.LoadAll(ctx); err != nil {
		startup.LogFatal("Failed to load catalog from store: %v", err)
	}
	songs, albums, artists, genres, videos := cat.Counts()
	startup.LogCatalogLoaded(songs, albums, artists, genres, videos, time.Since(loadStart))

	// Metadata extraction and thumbnail generation
	extractor := tagmeta.NewExtractor()
	thumbGen := thumbs.NewGenerator(config.ThumbnailDir, config.ThumbnailsEnabled)
	startup.LogThumbnailInit(config.ThumbnailsEnabled)

	// Reconciler and crawl coordinator
	rec := reconcile.New(cat, st, extractor, thumbGen)
	coordinator := crawler.New(crawler.Config{
		MusicDir:       config.MusicDir,
		VideoDir:       config.VideoDir,
		PollInterval:   config.PollInterval,
		RescanInterval: config.RescanInterval,
		ParallelScan:   config.ParallelScan,
	}, cat, rec, syncer)

	// Crawls pause when heap usage approaches the memory limit
	memMonitor := memory.NewMonitor(memory.DefaultConfig())
	memMonitor.Start()
	coordinator.SetMemoryMonitor(memMonitor)

	startup.LogCrawlerInit(config.PollInterval, config.RescanInterval)
	coordinator.Enable()
	coordinator.Start()
	startup.LogCrawlerStarted()

	// Initial crawl runs in the background so startup stays fast
	go func() {
		if err := coordinator.StartFullCrawl(context.Background()); err != nil {
			logging.Error("Initial crawl failed: %v", err)
		}
	}()

	// Filesystem watcher triggers crawls on library changes
	var watcher *crawler.Watcher
	if config.WatchEnabled {
		watcher = crawler.NewWatcher(func() {
			if err := coordinator.StartFullCrawl(context.Background()); err != nil {
				logging.Error("Watch-triggered crawl failed: %v", err)
			}
		}, crawler.DefaultWatchDebounce)
		if err := watcher.Start(config.MusicDir, config.VideoDir); err != nil {
			logging.Warn("Filesystem watcher failed to start: %v", err)
			watcher = nil
		}
	}

	// Periodic database size metrics
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		for range ticker.C {
			st.UpdateDBMetrics()
		}
	}()

	// Initialize handlers
	h := handlers.New(cat, coordinator, syncer, config)

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply metrics middleware
	var handler http.Handler = router
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	// Apply compression middleware
	compressionConfig := middleware.DefaultCompressionConfig()
	handler = middleware.Compression(compressionConfig)(handler)

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Metrics are served on a separate port so they stay off the public API
	if config.MetricsEnabled {
		go func() {
			metricsMux := http.NewServeMux()
			metricsMux.Handle("/metrics", h.MetricsHandler())
			if err := http.ListenAndServe(":"+config.MetricsPort, metricsMux); err != nil {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, coordinator, watcher, memMonitor, st)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Catalog API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", h.GetStatus).Methods("GET")
	api.HandleFunc("/crawl", h.TriggerCrawl).Methods("POST")
	api.HandleFunc("/sync", h.TriggerSync).Methods("POST")
	api.HandleFunc("/songs", h.GetSongs).Methods("GET")
	api.HandleFunc("/albums", h.GetAlbums).Methods("GET")
	api.HandleFunc("/artists", h.GetArtists).Methods("GET")
	api.HandleFunc("/genres", h.GetGenres).Methods("GET")
	api.HandleFunc("/videos", h.GetVideos).Methods("GET")

	// Generated thumbnails
	r.HandleFunc("/thumbnails/{name}", h.GetThumbnail).Methods("GET")

	return r
}

func handleShutdown(srv *http.Server, coordinator *crawler.Coordinator, watcher *crawler.Watcher, memMonitor *memory.Monitor, st *store.Store) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if watcher != nil {
		startup.LogShutdownStep("Stopping filesystem watcher")
		watcher.Stop()
		startup.LogShutdownStepComplete("Filesystem watcher stopped")
	}

	startup.LogShutdownStep("Stopping crawl coordinator")
	coordinator.Stop()
	startup.LogShutdownStepComplete("Crawl coordinator stopped")

	startup.LogShutdownStep("Stopping memory monitor")
	memMonitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Shutting down image library")
	thumbs.ShutdownVips()
	startup.LogShutdownStepComplete("Image library shutdown complete")

	startup.LogShutdownStep("Closing catalog store")
	if err := st.Close(); err != nil {
		logging.Warn("Store close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Catalog store closed")
	}

	startup.LogShutdownComplete()
}
