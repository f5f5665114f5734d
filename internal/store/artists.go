package store

import (
	"context"
	"database/sql"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/metrics"
)

// GetAllArtists fetches every artist row, including rows flagged removed.
func (s *Store) GetAllArtists(ctx context.Context) ([]*catalog.Artist, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_all_artist", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
	SELECT name, picture, removed FROM artists ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artists []*catalog.Artist
	for rows.Next() {
		var artist catalog.Artist
		var removed int
		if err = rows.Scan(&artist.Name, &artist.Picture, &removed); err != nil {
			return nil, err
		}
		artist.State = stateFromRemoved(removed)
		artists = append(artists, &artist)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return artists, nil
}

// QueueArtistUpsert buffers an artist write until the next FlushArtistUpserts.
func (s *Store) QueueArtistUpsert(artist *catalog.Artist) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	s.pendingArtists = append(s.pendingArtists, *artist)
	metrics.StoreQueuedUpserts.WithLabelValues("artist").Set(float64(len(s.pendingArtists)))
}

// FlushArtistUpserts writes all queued artist upserts in one transaction.
func (s *Store) FlushArtistUpserts(ctx context.Context) error {
	s.queueMu.Lock()
	pending := s.pendingArtists
	s.pendingArtists = nil
	metrics.StoreQueuedUpserts.WithLabelValues("artist").Set(0)
	s.queueMu.Unlock()

	return flushTx(ctx, s.db, "artist", len(pending), func(tx *sql.Tx) error {
		for i := range pending {
			if err := upsertArtist(ctx, tx, &pending[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertArtist(ctx context.Context, tx *sql.Tx, artist *catalog.Artist) error {
	start := time.Now()
	_, err := tx.ExecContext(ctx, `
	INSERT INTO artists (name, picture, removed, updated_at)
	VALUES (?, ?, ?, strftime('%s', 'now'))
	ON CONFLICT(name) DO UPDATE SET
		picture = excluded.picture,
		removed = excluded.removed,
		updated_at = strftime('%s', 'now')`,
		artist.Name, artist.Picture, removedFromState(artist.State),
	)
	recordQuery("upsert_artist", start, err)
	return err
}

// DeleteArtist removes an artist row by name.
func (s *Store) DeleteArtist(ctx context.Context, artist *catalog.Artist) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_artist", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, "DELETE FROM artists WHERE name = ?", artist.Name)
	return err
}
