package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-catalog/internal/catalog"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
)

// Default timeout for single store operations
const defaultTimeout = 5 * time.Second

// Store is the durable side of the catalog, backed by SQLite. Each entity
// type has its own table keyed by the entity's natural key, a pending-upsert
// queue, and a flush that writes the whole queue in one transaction.
//
// Store implements catalog.Store.
type Store struct {
	db     *sql.DB
	dbPath string

	queueMu        sync.Mutex
	pendingSongs   []catalog.Song
	pendingAlbums  []catalog.Album
	pendingArtists []catalog.Artist
	pendingGenres  []catalog.Genre
	pendingVideos  []catalog.Video
}

// New opens (or creates) the catalog database at dbPath. The parent
// directory must already exist and be writable; use startup.LoadConfig to
// validate directories before calling this.
func New(ctx context.Context, dbPath string) (*Store, error) {
	logging.Info("Catalog database path: %s", dbPath)

	// WAL mode and busy_timeout keep concurrent readers from tripping over
	// the crawl worker's flush transactions.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	logging.Info("Catalog database initialized at %s", dbPath)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("initialize_schema", start, err) }()

	schema := `
	CREATE TABLE IF NOT EXISTS songs (
		path TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		album_artist TEXT NOT NULL,
		album TEXT NOT NULL,
		genre TEXT NOT NULL,
		disc_no INTEGER NOT NULL DEFAULT 0,
		track_no INTEGER NOT NULL DEFAULT 0,
		thumbnail TEXT NOT NULL DEFAULT '/',
		removed INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_songs_album ON songs(album, genre);
	CREATE INDEX IF NOT EXISTS idx_songs_artist ON songs(artist);

	CREATE TABLE IF NOT EXISTS albums (
		title TEXT NOT NULL,
		genre TEXT NOT NULL,
		artist TEXT NOT NULL,
		thumbnail TEXT NOT NULL DEFAULT '/',
		removed INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		PRIMARY KEY (title, genre)
	);

	CREATE TABLE IF NOT EXISTS artists (
		name TEXT PRIMARY KEY,
		picture TEXT NOT NULL DEFAULT '/',
		removed INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE TABLE IF NOT EXISTS genres (
		name TEXT PRIMARY KEY,
		removed INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE TABLE IF NOT EXISTS videos (
		path TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		thumbnail TEXT NOT NULL DEFAULT '/',
		removed INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);
	`

	_, err = s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// flush writes queued rows in a single transaction. take drains one pending
// queue under the lock and returns an upsert function for each drained row.
func flushTx(ctx context.Context, db *sql.DB, entity string, count int, upsertAll func(tx *sql.Tx) error) error {
	if count == 0 {
		return nil
	}

	start := time.Now()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s flush: %w", entity, err)
	}

	if err := upsertAll(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Error("rollback after %s flush failure also failed: %v", entity, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s flush: %w", entity, err)
	}

	metrics.StoreFlushDuration.WithLabelValues(entity).Observe(time.Since(start).Seconds())
	logging.Debug("Flushed %d queued %s upserts in %v", count, entity, time.Since(start))
	return nil
}

// recordQuery records store query metrics.
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.StoreQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.StoreQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics.
func (s *Store) UpdateDBMetrics() {
	stats := s.db.Stats()
	metrics.StoreConnectionsOpen.Set(float64(stats.OpenConnections))
}

// removedFromState maps a lifecycle state to its stored representation.
func removedFromState(state catalog.LifecycleState) int {
	if state == catalog.PendingDelete {
		return 1
	}
	return 0
}

// stateFromRemoved maps a stored removed flag back to a lifecycle state.
func stateFromRemoved(removed int) catalog.LifecycleState {
	if removed != 0 {
		return catalog.PendingDelete
	}
	return catalog.Active
}
