package store

import (
	"context"
	"database/sql"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/metrics"
)

// GetAllGenres fetches every genre row, including rows flagged removed.
func (s *Store) GetAllGenres(ctx context.Context) ([]*catalog.Genre, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_all_genre", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT name, removed FROM genres ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var genres []*catalog.Genre
	for rows.Next() {
		var genre catalog.Genre
		var removed int
		if err = rows.Scan(&genre.Name, &removed); err != nil {
			return nil, err
		}
		genre.State = stateFromRemoved(removed)
		genres = append(genres, &genre)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return genres, nil
}

// QueueGenreUpsert buffers a genre write until the next FlushGenreUpserts.
func (s *Store) QueueGenreUpsert(genre *catalog.Genre) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	s.pendingGenres = append(s.pendingGenres, *genre)
	metrics.StoreQueuedUpserts.WithLabelValues("genre").Set(float64(len(s.pendingGenres)))
}

// FlushGenreUpserts writes all queued genre upserts in one transaction.
func (s *Store) FlushGenreUpserts(ctx context.Context) error {
	s.queueMu.Lock()
	pending := s.pendingGenres
	s.pendingGenres = nil
	metrics.StoreQueuedUpserts.WithLabelValues("genre").Set(0)
	s.queueMu.Unlock()

	return flushTx(ctx, s.db, "genre", len(pending), func(tx *sql.Tx) error {
		for i := range pending {
			if err := upsertGenre(ctx, tx, &pending[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertGenre(ctx context.Context, tx *sql.Tx, genre *catalog.Genre) error {
	start := time.Now()
	_, err := tx.ExecContext(ctx, `
	INSERT INTO genres (name, removed, updated_at)
	VALUES (?, ?, strftime('%s', 'now'))
	ON CONFLICT(name) DO UPDATE SET
		removed = excluded.removed,
		updated_at = strftime('%s', 'now')`,
		genre.Name, removedFromState(genre.State),
	)
	recordQuery("upsert_genre", start, err)
	return err
}

// DeleteGenre removes a genre row by name.
func (s *Store) DeleteGenre(ctx context.Context, genre *catalog.Genre) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_genre", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, "DELETE FROM genres WHERE name = ?", genre.Name)
	return err
}
