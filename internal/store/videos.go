package store

import (
	"context"
	"database/sql"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/metrics"
)

// GetAllVideos fetches every video row, including rows flagged removed.
func (s *Store) GetAllVideos(ctx context.Context) ([]*catalog.Video, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_all_video", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
	SELECT path, title, thumbnail, removed FROM videos ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*catalog.Video
	for rows.Next() {
		var video catalog.Video
		var removed int
		if err = rows.Scan(&video.Path, &video.Title, &video.Thumbnail, &removed); err != nil {
			return nil, err
		}
		video.State = stateFromRemoved(removed)
		videos = append(videos, &video)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// QueueVideoUpsert buffers a video write until the next FlushVideoUpserts.
func (s *Store) QueueVideoUpsert(video *catalog.Video) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	s.pendingVideos = append(s.pendingVideos, *video)
	metrics.StoreQueuedUpserts.WithLabelValues("video").Set(float64(len(s.pendingVideos)))
}

// FlushVideoUpserts writes all queued video upserts in one transaction.
func (s *Store) FlushVideoUpserts(ctx context.Context) error {
	s.queueMu.Lock()
	pending := s.pendingVideos
	s.pendingVideos = nil
	metrics.StoreQueuedUpserts.WithLabelValues("video").Set(0)
	s.queueMu.Unlock()

	return flushTx(ctx, s.db, "video", len(pending), func(tx *sql.Tx) error {
		for i := range pending {
			if err := upsertVideo(ctx, tx, &pending[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertVideo(ctx context.Context, tx *sql.Tx, video *catalog.Video) error {
	start := time.Now()
	_, err := tx.ExecContext(ctx, `
	INSERT INTO videos (path, title, thumbnail, removed, updated_at)
	VALUES (?, ?, ?, ?, strftime('%s', 'now'))
	ON CONFLICT(path) DO UPDATE SET
		title = excluded.title,
		thumbnail = excluded.thumbnail,
		removed = excluded.removed,
		updated_at = strftime('%s', 'now')`,
		video.Path, video.Title, video.Thumbnail, removedFromState(video.State),
	)
	recordQuery("upsert_video", start, err)
	return err
}

// DeleteVideo removes a video row by its path.
func (s *Store) DeleteVideo(ctx context.Context, video *catalog.Video) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_video", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, "DELETE FROM videos WHERE path = ?", video.Path)
	return err
}
