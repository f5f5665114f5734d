package crawler

import (
	"context"
	"sync"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/logging"
	"media-catalog/internal/mediatypes"
	"media-catalog/internal/memory"
	"media-catalog/internal/metrics"
	"media-catalog/internal/reconcile"
)

const (
	defaultPollInterval   = 30 * time.Second
	defaultRescanInterval = 6 * time.Hour
)

// Config controls the crawl coordinator.
type Config struct {
	MusicDir string
	VideoDir string

	// PollInterval is how often the library roots are checked for
	// filesystem changes. Zero uses the default.
	PollInterval time.Duration

	// RescanInterval is how often a full crawl runs regardless of
	// detected changes. Zero uses the default.
	RescanInterval time.Duration

	// ParallelScan enables worker-pool file enumeration. Reconciliation
	// itself always runs sequentially.
	ParallelScan bool
}

// Coordinator owns the crawl state machine. At most one crawl runs at a
// time; requests arriving while one is in flight coalesce into a single
// queued re-run, so the catalog always ends up reflecting the storage
// state as of the last request received.
type Coordinator struct {
	cfg        Config
	catalog    *catalog.Catalog
	reconciler *reconcile.Reconciler
	syncer     *catalog.Syncer
	scanner    Scanner
	memMonitor *memory.Monitor

	mu      sync.Mutex
	enabled bool
	busy    bool
	queued  bool
	cancel  context.CancelFunc

	lastCrawl         time.Time
	lastCrawlDuration time.Duration
	lastCrawlErr      error
	startTime         time.Time

	musicChanges *ChangeTracker
	videoChanges *ChangeTracker

	stopChan chan struct{}
	stopOnce sync.Once
}

// New creates a Coordinator. Enable must be called before any crawl will
// run; the readiness gate keeps crawls from starting before the catalog
// has been loaded from the store.
func New(cfg Config, cat *catalog.Catalog, rec *reconcile.Reconciler, syncer *catalog.Syncer) *Coordinator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.RescanInterval <= 0 {
		cfg.RescanInterval = defaultRescanInterval
	}

	var scanner Scanner = sequentialScanner{}
	if cfg.ParallelScan {
		scanner = newParallelScanner()
	}

	return &Coordinator{
		cfg:          cfg,
		catalog:      cat,
		reconciler:   rec,
		syncer:       syncer,
		scanner:      scanner,
		startTime:    time.Now(),
		musicChanges: NewChangeTracker(cfg.MusicDir),
		videoChanges: NewChangeTracker(cfg.VideoDir),
		stopChan:     make(chan struct{}),
	}
}

// Enable opens the readiness gate. Crawl requests before this point are
// silently dropped.
func (c *Coordinator) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = true
}

// SetMemoryMonitor attaches a memory monitor. When set, reconciliation
// pauses between files while memory usage is critical.
func (c *Coordinator) SetMemoryMonitor(m *memory.Monitor) {
	c.memMonitor = m
}

// IsEnabled reports whether the readiness gate is open.
func (c *Coordinator) IsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// IsCrawling reports whether a crawl is in flight.
func (c *Coordinator) IsCrawling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// IndexLibraries runs a full crawl of the music and video libraries,
// reconciling every discovered file into the catalog.
//
// A call while a crawl is already running sets the queued flag and returns
// immediately; the running crawl re-runs exactly once after it finishes,
// regardless of how many callers arrived while it was busy. A call before
// Enable is a no-op.
func (c *Coordinator) IndexLibraries() error {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		logging.Debug("crawler: not enabled yet, ignoring crawl request")
		return nil
	}
	if c.busy {
		if !c.queued {
			c.queued = true
			metrics.CrawlQueuedTotal.Inc()
			logging.Info("crawler: crawl in progress, queueing one re-run")
		}
		c.mu.Unlock()
		return nil
	}
	c.busy = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	for {
		err := c.runCrawl()

		c.mu.Lock()
		rerun := c.queued
		c.queued = false
		c.mu.Unlock()

		if !rerun {
			return err
		}
		logging.Info("crawler: re-running queued crawl")
	}
}

// runCrawl executes one crawl: the music scan, then the video scan, each
// reconciling files one at a time. A fresh cancellation context replaces
// any previous one up front; per-file reconciliation checks it between
// files, never mid-file.
func (c *Coordinator) runCrawl() error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	metrics.CrawlIsRunning.Set(1)
	defer metrics.CrawlIsRunning.Set(0)
	metrics.CrawlRunsTotal.Inc()

	start := time.Now()
	logging.Info("crawler: starting crawl of %s and %s", c.cfg.MusicDir, c.cfg.VideoDir)

	err := c.crawlMusic(ctx)
	if err == nil {
		err = c.crawlVideo(ctx)
	}

	duration := time.Since(start)
	c.mu.Lock()
	c.lastCrawl = time.Now()
	c.lastCrawlDuration = duration
	c.lastCrawlErr = err
	c.mu.Unlock()

	metrics.CrawlLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.CrawlLastRunDuration.Set(duration.Seconds())

	if err != nil {
		metrics.CrawlErrors.Inc()
		logging.Error("crawler: crawl failed after %v: %v", duration, err)
		return err
	}

	c.musicChanges.UpdateState()
	c.videoChanges.UpdateState()

	logging.Info("crawler: crawl complete in %v", duration)
	return nil
}

func (c *Coordinator) crawlMusic(ctx context.Context) error {
	paths, err := c.scanner.Scan(ctx, c.cfg.MusicDir, mediatypes.FileTypeAudio)
	if err != nil {
		return err
	}
	logging.Info("crawler: reconciling %d audio files", len(paths))

	for _, path := range paths {
		if ctx.Err() != nil {
			logging.Info("crawler: music scan cancelled, abandoning remaining files")
			return ctx.Err()
		}
		c.waitForMemory()
		metrics.CrawlFilesSeen.Inc()
		c.reconciler.ReconcileSong(c.cfg.MusicDir, path)
	}
	return nil
}

func (c *Coordinator) crawlVideo(ctx context.Context) error {
	paths, err := c.scanner.Scan(ctx, c.cfg.VideoDir, mediatypes.FileTypeVideo)
	if err != nil {
		return err
	}
	logging.Info("crawler: reconciling %d video files", len(paths))

	for _, path := range paths {
		if ctx.Err() != nil {
			logging.Info("crawler: video scan cancelled, abandoning remaining files")
			return ctx.Err()
		}
		c.waitForMemory()
		metrics.CrawlFilesSeen.Inc()
		c.reconciler.ReconcileVideo(path)
	}
	return nil
}

// waitForMemory blocks between files while the memory monitor reports
// critical pressure. Thumbnail decoding is the main allocator during a
// crawl, so pausing here bounds heap growth.
func (c *Coordinator) waitForMemory() {
	if c.memMonitor != nil {
		c.memMonitor.WaitIfPaused()
	}
}

// StartFullCrawl is the top-level entry point: check both library roots
// for changes, crawl, then flush everything the crawl queued and reload
// the catalog. Called once at startup and on explicit refresh.
func (c *Coordinator) StartFullCrawl(ctx context.Context) error {
	musicChanged, err := c.musicChanges.Changed()
	if err != nil {
		logging.Warn("crawler: music change check failed: %v", err)
	}
	videoChanged, err := c.videoChanges.Changed()
	if err != nil {
		logging.Warn("crawler: video change check failed: %v", err)
	}
	logging.Debug("crawler: change check before crawl: music=%v video=%v", musicChanged, videoChanged)

	if err := c.IndexLibraries(); err != nil {
		return err
	}
	return c.syncer.Sync(ctx)
}

// Start launches the background change-detection poll and the periodic
// full rescan.
func (c *Coordinator) Start() {
	go c.pollForChanges()
	go c.periodicRescan()
}

// Stop halts background loops and cancels any in-flight crawl.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
}

// pollForChanges periodically runs a lightweight change check against both
// library roots and triggers a full crawl when either reports a change.
func (c *Coordinator) pollForChanges() {
	logging.Info("crawler: change detection polling every %v", c.cfg.PollInterval)

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			musicChanged, err := c.musicChanges.Changed()
			if err != nil {
				logging.Error("crawler: music change check failed: %v", err)
				continue
			}
			videoChanged, err := c.videoChanges.Changed()
			if err != nil {
				logging.Error("crawler: video change check failed: %v", err)
				continue
			}
			if musicChanged || videoChanged {
				logging.Info("crawler: changes detected, triggering crawl")
				if err := c.StartFullCrawl(context.Background()); err != nil {
					logging.Error("crawler: change-triggered crawl failed: %v", err)
				}
			}
		case <-c.stopChan:
			logging.Info("crawler: change detection polling stopped")
			return
		}
	}
}

func (c *Coordinator) periodicRescan() {
	ticker := time.NewTicker(c.cfg.RescanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logging.Debug("crawler: periodic rescan triggered")
			if err := c.StartFullCrawl(context.Background()); err != nil {
				logging.Error("crawler: periodic rescan failed: %v", err)
			}
		case <-c.stopChan:
			return
		}
	}
}

// Status describes the coordinator and catalog for the status endpoint.
type Status struct {
	Ready             bool      `json:"ready"`
	Crawling          bool      `json:"crawling"`
	QueuedRecrawl     bool      `json:"queuedRecrawl"`
	StartTime         time.Time `json:"startTime"`
	Uptime            string    `json:"uptime"`
	LastCrawl         time.Time `json:"lastCrawl,omitempty"`
	LastCrawlDuration string    `json:"lastCrawlDuration,omitempty"`
	LastCrawlError    string    `json:"lastCrawlError,omitempty"`
	Songs             int       `json:"songs"`
	Albums            int       `json:"albums"`
	Artists           int       `json:"artists"`
	Genres            int       `json:"genres"`
	Videos            int       `json:"videos"`
}

// GetStatus snapshots the coordinator state for health and status
// reporting.
func (c *Coordinator) GetStatus() Status {
	c.mu.Lock()
	status := Status{
		Ready:         c.enabled,
		Crawling:      c.busy,
		QueuedRecrawl: c.queued,
		StartTime:     c.startTime,
		Uptime:        time.Since(c.startTime).String(),
		LastCrawl:     c.lastCrawl,
	}
	if c.lastCrawlDuration > 0 {
		status.LastCrawlDuration = c.lastCrawlDuration.String()
	}
	if c.lastCrawlErr != nil {
		status.LastCrawlError = c.lastCrawlErr.Error()
	}
	c.mu.Unlock()

	status.Songs, status.Albums, status.Artists, status.Genres, status.Videos = c.catalog.Counts()
	return status
}
