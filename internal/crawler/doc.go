// Package crawler coordinates library crawls. The Coordinator owns a
// busy/queued state machine guaranteeing at most one crawl at a time, with
// requests during a crawl coalescing into a single re-run. Change
// detection combines lightweight polling of the library roots with an
// fsnotify watcher where the filesystem supports it.
package crawler
