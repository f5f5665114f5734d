package memory

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
)

// Config sets the watermarks for crawl backpressure, as fractions of the
// heap limit. The crawl pauses above PauseAbove and resumes once usage
// falls back under ResumeBelow; the gap between them keeps the crawl from
// flapping around a single threshold.
type Config struct {
	// LimitBytes overrides the heap limit. Zero reads GOMEMLIMIT.
	LimitBytes int64

	PauseAbove  float64
	ResumeBelow float64

	// SampleInterval is how often heap usage is read.
	SampleInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		PauseAbove:     0.85,
		ResumeBelow:    0.7,
		SampleInterval: 5 * time.Second,
	}
}

// Monitor samples heap usage on a timer and gates the crawl's per-file
// loop. The coordinator calls WaitIfPaused between files; everything else
// in the service runs unthrottled. Thumbnail decoding is the dominant
// allocator during a crawl, so pausing file reconciliation is enough to
// bound heap growth.
type Monitor struct {
	cfg   Config
	limit int64
	stop  chan struct{}

	mu      sync.RWMutex
	current uint64
	paused  bool
	resume  chan struct{}
}

// NewMonitor builds a monitor against cfg.LimitBytes, falling back to the
// process GOMEMLIMIT. With neither set the monitor is inert and the crawl
// never pauses.
func NewMonitor(cfg Config) *Monitor {
	limit := cfg.LimitBytes
	if limit == 0 {
		if gml := debug.SetMemoryLimit(-1); gml > 0 && gml < 1<<62 {
			limit = gml
			logging.Info("Crawl backpressure limit from GOMEMLIMIT: %s", formatBytes(limit))
		}
	}
	if limit == 0 {
		logging.Warn("No heap limit configured; crawl backpressure disabled")
	}

	return &Monitor{
		cfg:    cfg,
		limit:  limit,
		stop:   make(chan struct{}),
		resume: make(chan struct{}),
	}
}

// Start launches the sampling loop. A monitor without a limit stays inert.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go m.run()
}

func (m *Monitor) Stop() {
	close(m.stop)
}

func (m *Monitor) run() {
	ticker := time.NewTicker(m.cfg.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-m.stop:
			return
		}
	}
}

func (m *Monitor) sample() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = stats.Alloc
	usage := float64(stats.Alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case usage >= m.cfg.PauseAbove && !m.paused:
		logging.Warn("Heap at %.1f%% of limit, pausing crawl", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCPauses.Inc()
		// A collection cycle usually frees enough decode buffers to
		// resume within one or two sample intervals.
		go runtime.GC()
	case usage < m.cfg.ResumeBelow && m.paused:
		logging.Info("Heap back to %.1f%% of limit, resuming crawl", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resume)
		m.resume = make(chan struct{})
	}
}

// WaitIfPaused blocks while the crawl is paused. Returns false when the
// monitor is stopped while waiting, which callers treat as cancellation.
func (m *Monitor) WaitIfPaused() bool {
	m.mu.RLock()
	if !m.paused {
		m.mu.RUnlock()
		return true
	}
	resume := m.resume
	m.mu.RUnlock()

	select {
	case <-resume:
		return true
	case <-m.stop:
		return false
	}
}

// IsPaused reports whether the crawl gate is currently closed.
func (m *Monitor) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Usage returns heap usage as a fraction of the limit, zero when no limit
// is configured.
func (m *Monitor) Usage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.current) / float64(m.limit)
}
