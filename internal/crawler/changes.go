package crawler

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"media-catalog/internal/filesystem"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
)

// ChangeTracker performs lightweight change detection for one library
// root. It checks the root's modification time, a non-recursive count of
// top-level entries, and the modification times of top-level
// subdirectories, avoiding expensive recursive walks on NFS.
type ChangeTracker struct {
	root string

	mu                 sync.RWMutex
	lastRootModTime    time.Time
	lastTopLevelCount  int
	lastSubdirModTimes map[string]time.Time
}

func NewChangeTracker(root string) *ChangeTracker {
	return &ChangeTracker{
		root:               root,
		lastSubdirModTimes: make(map[string]time.Time),
	}
}

// Changed reports whether the root looks different from the last recorded
// state. A tracker that has never recorded state reports changed, so the
// first check after startup always triggers a crawl.
func (t *ChangeTracker) Changed() (bool, error) {
	start := time.Now()
	defer func() {
		metrics.ChangePollDuration.Observe(time.Since(start).Seconds())
		metrics.ChangePollChecksTotal.Inc()
	}()

	retryCfg := filesystem.DefaultRetryConfig()

	rootInfo, err := filesystem.StatWithRetry(t.root, retryCfg)
	if err != nil {
		return false, fmt.Errorf("stat library root %s: %w", t.root, err)
	}

	t.mu.RLock()
	lastRootModTime := t.lastRootModTime
	lastTopLevelCount := t.lastTopLevelCount
	t.mu.RUnlock()

	if rootInfo.ModTime().After(lastRootModTime) {
		logging.Debug("crawler: root %s modified: %v > %v", t.root, rootInfo.ModTime(), lastRootModTime)
		metrics.ChangePollChangesDetected.Inc()
		return true, nil
	}

	entries, err := filesystem.ReadDirWithRetry(t.root, retryCfg)
	if err != nil {
		return false, fmt.Errorf("read library root %s: %w", t.root, err)
	}

	topLevelCount := 0
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), ".") {
			topLevelCount++
		}
	}

	if topLevelCount != lastTopLevelCount {
		logging.Debug("crawler: top-level count of %s changed: %d -> %d", t.root, lastTopLevelCount, topLevelCount)
		metrics.ChangePollChangesDetected.Inc()
		return true, nil
	}

	if t.subdirsChanged(entries) {
		metrics.ChangePollChangesDetected.Inc()
		return true, nil
	}

	return false, nil
}

// subdirsChanged checks modification times of top-level subdirectories,
// catching changes in nested folders without walking the whole tree.
func (t *ChangeTracker) subdirsChanged(entries []fs.DirEntry) bool {
	t.mu.RLock()
	lastSubdirModTimes := t.lastSubdirModTimes
	t.mu.RUnlock()

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		path := filepath.Join(t.root, entry.Name())
		info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
		if err != nil {
			continue
		}

		lastMod, exists := lastSubdirModTimes[entry.Name()]
		if !exists {
			logging.Debug("crawler: new subdirectory detected: %s", entry.Name())
			return true
		}
		if info.ModTime().After(lastMod) {
			logging.Debug("crawler: subdirectory %s modified: %v > %v", entry.Name(), info.ModTime(), lastMod)
			return true
		}
	}

	return false
}

// UpdateState records the current root state as the new baseline. Called
// after a successful crawl.
func (t *ChangeTracker) UpdateState() {
	retryCfg := filesystem.DefaultRetryConfig()

	rootInfo, err := filesystem.StatWithRetry(t.root, retryCfg)
	if err != nil {
		logging.Warn("crawler: failed to stat %s for state update: %v", t.root, err)
		return
	}

	entries, err := filesystem.ReadDirWithRetry(t.root, retryCfg)
	if err != nil {
		logging.Warn("crawler: failed to read %s for state update: %v", t.root, err)
		return
	}

	topLevelCount := 0
	subdirModTimes := make(map[string]time.Time)
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		topLevelCount++

		if entry.IsDir() {
			path := filepath.Join(t.root, entry.Name())
			if info, err := filesystem.StatWithRetry(path, retryCfg); err == nil {
				subdirModTimes[entry.Name()] = info.ModTime()
			}
		}
	}

	t.mu.Lock()
	t.lastRootModTime = rootInfo.ModTime()
	t.lastTopLevelCount = topLevelCount
	t.lastSubdirModTimes = subdirModTimes
	t.mu.Unlock()

	logging.Debug("crawler: recorded state for %s: rootMod=%v topLevel=%d subdirs=%d",
		t.root, rootInfo.ModTime(), topLevelCount, len(subdirModTimes))
}
