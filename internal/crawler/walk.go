package crawler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"media-catalog/internal/logging"
	"media-catalog/internal/mediatypes"
	"media-catalog/internal/metrics"
	"media-catalog/internal/workers"
)

// Scanner enumerates candidate media files under a library root.
// Enumeration order is scanner-defined; both implementations return paths
// sorted for deterministic reconciliation.
type Scanner interface {
	Scan(ctx context.Context, root string, want mediatypes.FileType) ([]string, error)
}

// sequentialScanner walks the tree in a single goroutine. The safe choice
// for NFS mounts where concurrent directory reads hurt more than help.
type sequentialScanner struct{}

func (sequentialScanner) Scan(ctx context.Context, root string, want mediatypes.FileType) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if err != nil {
			logging.Warn("crawler: error accessing %s: %v", path, err)
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if mediatypes.GetFileType(ext) == want {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.SkipAll) {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	if ctx.Err() != nil {
		return paths, ctx.Err()
	}

	sort.Strings(paths)
	return paths, nil
}

// parallelScanner fans directory entries out to a worker pool. Only the
// enumeration is parallel; callers still reconcile the returned paths one
// at a time.
type parallelScanner struct {
	numWorkers    int
	channelBuffer int
}

func newParallelScanner() *parallelScanner {
	return &parallelScanner{
		numWorkers:    workers.ForScan(8),
		channelBuffer: 1000,
	}
}

type scanJob struct {
	path string
	name string
}

func (p *parallelScanner) Scan(ctx context.Context, root string, want mediatypes.FileType) ([]string, error) {
	logging.Debug("crawler: parallel scan of %s with %d workers", root, p.numWorkers)
	metrics.CrawlWorkers.Set(float64(p.numWorkers))

	jobs := make(chan scanJob, p.channelBuffer)
	results := make(chan string, p.channelBuffer)

	var wg sync.WaitGroup
	var skipped atomic.Int64
	for i := 0; i < p.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					return
				}
				ext := strings.ToLower(filepath.Ext(job.name))
				if mediatypes.GetFileType(ext) != want {
					skipped.Add(1)
					continue
				}
				select {
				case results <- job.path:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	var paths []string
	var collectorWg sync.WaitGroup
	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		for path := range results {
			paths = append(paths, path)
		}
	}()

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if err != nil {
			logging.Warn("crawler: error accessing %s: %v", path, err)
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		select {
		case jobs <- scanJob{path: path, name: d.Name()}:
		case <-ctx.Done():
			return fs.SkipAll
		}
		return nil
	})

	close(jobs)
	wg.Wait()
	close(results)
	collectorWg.Wait()

	if walkErr != nil && !errors.Is(walkErr, fs.SkipAll) {
		return nil, fmt.Errorf("parallel walk %s: %w", root, walkErr)
	}
	if ctx.Err() != nil {
		return paths, ctx.Err()
	}

	sort.Strings(paths)
	logging.Debug("crawler: parallel scan found %d matching files (%d skipped)", len(paths), skipped.Load())
	return paths, nil
}
