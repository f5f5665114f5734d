package store

import (
	"context"
	"database/sql"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/metrics"
)

// GetAllSongs fetches every song row, including rows flagged removed.
func (s *Store) GetAllSongs(ctx context.Context) ([]*catalog.Song, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_all_song", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
	SELECT path, title, artist, album_artist, album, genre, disc_no, track_no, thumbnail, removed
	FROM songs ORDER BY album, disc_no, track_no, title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var songs []*catalog.Song
	for rows.Next() {
		var song catalog.Song
		var removed int
		if err = rows.Scan(&song.Path, &song.Title, &song.Artist, &song.AlbumArtist,
			&song.Album, &song.Genre, &song.DiscNumber, &song.TrackNumber,
			&song.Thumbnail, &removed); err != nil {
			return nil, err
		}
		song.State = stateFromRemoved(removed)
		songs = append(songs, &song)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return songs, nil
}

// QueueSongUpsert buffers a song write until the next FlushSongUpserts.
func (s *Store) QueueSongUpsert(song *catalog.Song) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	s.pendingSongs = append(s.pendingSongs, *song)
	metrics.StoreQueuedUpserts.WithLabelValues("song").Set(float64(len(s.pendingSongs)))
}

// FlushSongUpserts writes all queued song upserts in one transaction.
func (s *Store) FlushSongUpserts(ctx context.Context) error {
	s.queueMu.Lock()
	pending := s.pendingSongs
	s.pendingSongs = nil
	metrics.StoreQueuedUpserts.WithLabelValues("song").Set(0)
	s.queueMu.Unlock()

	return flushTx(ctx, s.db, "song", len(pending), func(tx *sql.Tx) error {
		for i := range pending {
			if err := upsertSong(ctx, tx, &pending[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertSong(ctx context.Context, tx *sql.Tx, song *catalog.Song) error {
	start := time.Now()
	_, err := tx.ExecContext(ctx, `
	INSERT INTO songs (path, title, artist, album_artist, album, genre, disc_no, track_no, thumbnail, removed, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
	ON CONFLICT(path) DO UPDATE SET
		title = excluded.title,
		artist = excluded.artist,
		album_artist = excluded.album_artist,
		album = excluded.album,
		genre = excluded.genre,
		disc_no = excluded.disc_no,
		track_no = excluded.track_no,
		thumbnail = excluded.thumbnail,
		removed = excluded.removed,
		updated_at = strftime('%s', 'now')`,
		song.Path, song.Title, song.Artist, song.AlbumArtist, song.Album,
		song.Genre, song.DiscNumber, song.TrackNumber, song.Thumbnail,
		removedFromState(song.State),
	)
	recordQuery("upsert_song", start, err)
	return err
}

// DeleteSong removes a song row by its path.
func (s *Store) DeleteSong(ctx context.Context, song *catalog.Song) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_song", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, "DELETE FROM songs WHERE path = ?", song.Path)
	return err
}
