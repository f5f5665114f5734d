package metrics

import (
	"time"

	"media-catalog/internal/logging"
)

// CountsProvider reports entity counts for the in-memory catalog. Implemented
// by catalog.Catalog; declared here to break the import cycle between the
// catalog and metrics packages.
type CountsProvider interface {
	Counts() (songs, albums, artists, genres, videos int)
}

// Collector periodically copies catalog entity counts into the Prometheus
// gauges declared in this package.
type Collector struct {
	provider CountsProvider
	interval time.Duration
	stopChan chan struct{}
}

// NewCollector creates a new metrics collector.
func NewCollector(provider CountsProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the collection loop.
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the collection loop.
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}

	songs, albums, artists, genres, videos := c.provider.Counts()

	CatalogEntities.WithLabelValues("song").Set(float64(songs))
	CatalogEntities.WithLabelValues("album").Set(float64(albums))
	CatalogEntities.WithLabelValues("artist").Set(float64(artists))
	CatalogEntities.WithLabelValues("genre").Set(float64(genres))
	CatalogEntities.WithLabelValues("video").Set(float64(videos))

	logging.Debug("Metrics collected: songs=%d, albums=%d, artists=%d, genres=%d, videos=%d",
		songs, albums, artists, genres, videos)
}
