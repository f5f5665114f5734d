package crawler

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"media-catalog/internal/logging"
	"media-catalog/internal/mediatypes"
	"media-catalog/internal/metrics"
)

// DefaultWatchDebounce is how long events must settle before a crawl is
// triggered.
const DefaultWatchDebounce = 5 * time.Second

// Watcher monitors library roots for media file changes and invokes a
// callback after events settle for the debounce period. It complements the
// polling change tracker on filesystems where inotify works; on NFS the
// poll remains the reliable path.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	roots     []string
	debounce  time.Duration
	callback  func()
	stop      chan struct{}
	stopped   chan struct{}

	mu      sync.Mutex
	timer   *time.Timer
	running bool
}

// NewWatcher creates a Watcher invoking callback after changes settle.
// Pass 0 for debounce to use DefaultWatchDebounce.
func NewWatcher(callback func(), debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &Watcher{
		debounce: debounce,
		callback: callback,
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start begins watching the given roots recursively. Safe to call only
// once.
func (w *Watcher) Start(roots ...string) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsWatcher = fsw
	w.roots = roots

	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			fsw.Close()
			return err
		}
	}

	go w.eventLoop()
	logging.Info("crawler: filesystem watcher started for %v", roots)
	return nil
}

// Stop shuts down the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stop)
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
	}
	<-w.stopped

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && !strings.HasPrefix(d.Name(), ".") {
			if watchErr := w.fsWatcher.Add(path); watchErr != nil {
				logging.Warn("crawler: cannot watch %s: %v", path, watchErr)
			}
		}
		return nil
	})
}

func (w *Watcher) eventLoop() {
	defer close(w.stopped)

	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logging.Error("crawler: watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	metrics.WatcherEventsTotal.Inc()

	// New directories get watched recursively so files created inside
	// them still produce events.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.addRecursive(event.Name)
			w.scheduleCrawl()
			return
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
		return
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	if !mediatypes.IsMediaFile(ext) {
		return
	}

	w.scheduleCrawl()
}

func (w *Watcher) scheduleCrawl() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Reset(w.debounce)
		return
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		w.timer = nil
		w.mu.Unlock()

		logging.Info("crawler: watcher events settled, triggering crawl")
		if w.callback != nil {
			w.callback()
		}
	})
}
