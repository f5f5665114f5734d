package store

import (
	"context"
	"database/sql"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/metrics"
)

// GetAllAlbums fetches every album row, including rows flagged removed.
func (s *Store) GetAllAlbums(ctx context.Context) ([]*catalog.Album, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_all_album", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
	SELECT title, genre, artist, thumbnail, removed
	FROM albums ORDER BY title, genre`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var albums []*catalog.Album
	for rows.Next() {
		var album catalog.Album
		var removed int
		if err = rows.Scan(&album.Title, &album.Genre, &album.Artist, &album.Thumbnail, &removed); err != nil {
			return nil, err
		}
		album.State = stateFromRemoved(removed)
		albums = append(albums, &album)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return albums, nil
}

// QueueAlbumUpsert buffers an album write until the next FlushAlbumUpserts.
func (s *Store) QueueAlbumUpsert(album *catalog.Album) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	s.pendingAlbums = append(s.pendingAlbums, *album)
	metrics.StoreQueuedUpserts.WithLabelValues("album").Set(float64(len(s.pendingAlbums)))
}

// FlushAlbumUpserts writes all queued album upserts in one transaction.
func (s *Store) FlushAlbumUpserts(ctx context.Context) error {
	s.queueMu.Lock()
	pending := s.pendingAlbums
	s.pendingAlbums = nil
	metrics.StoreQueuedUpserts.WithLabelValues("album").Set(0)
	s.queueMu.Unlock()

	return flushTx(ctx, s.db, "album", len(pending), func(tx *sql.Tx) error {
		for i := range pending {
			if err := upsertAlbum(ctx, tx, &pending[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertAlbum(ctx context.Context, tx *sql.Tx, album *catalog.Album) error {
	start := time.Now()
	_, err := tx.ExecContext(ctx, `
	INSERT INTO albums (title, genre, artist, thumbnail, removed, updated_at)
	VALUES (?, ?, ?, ?, ?, strftime('%s', 'now'))
	ON CONFLICT(title, genre) DO UPDATE SET
		artist = excluded.artist,
		thumbnail = excluded.thumbnail,
		removed = excluded.removed,
		updated_at = strftime('%s', 'now')`,
		album.Title, album.Genre, album.Artist, album.Thumbnail,
		removedFromState(album.State),
	)
	recordQuery("upsert_album", start, err)
	return err
}

// DeleteAlbum removes an album row by its (title, genre) key.
func (s *Store) DeleteAlbum(ctx context.Context, album *catalog.Album) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_album", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, "DELETE FROM albums WHERE title = ? AND genre = ?",
		album.Title, album.Genre)
	return err
}
