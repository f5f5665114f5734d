package reconcile

import (
	"errors"

	"media-catalog/internal/catalog"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
	"media-catalog/internal/tagmeta"
)

// Outcome reports what a reconciliation call did with a file.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeExisting Outcome = "existing"
	OutcomeSkipped  Outcome = "skipped"
)

// Extractor recovers metadata from media files. Implemented by tagmeta.
type Extractor interface {
	ExtractSong(root, path string) (tagmeta.SongMeta, error)
	ExtractVideoTitle(path string) string
}

// Thumbnailer resolves cover art and frame grabs into cached thumbnail
// paths, returning the placeholder on failure. Implemented by thumbs.
type Thumbnailer interface {
	AlbumThumbnail(songPath, albumTitle string) string
	VideoThumbnail(path string) string
}

// Reconciler absorbs freshly discovered media files into the catalog,
// creating any missing dependent entities exactly once. Existence checks
// run against the in-memory catalog, never the store, so the catalog must
// be loaded before the first call. Upserts are queued on the store; the
// crawl's closing sync flushes them.
//
// Not safe for concurrent use. The crawl coordinator guarantees a single
// reconciliation runs at a time.
type Reconciler struct {
	catalog   *catalog.Catalog
	store     catalog.Store
	extractor Extractor
	thumbs    Thumbnailer
}

func New(c *catalog.Catalog, store catalog.Store, extractor Extractor, thumbs Thumbnailer) *Reconciler {
	return &Reconciler{
		catalog:   c,
		store:     store,
		extractor: extractor,
		thumbs:    thumbs,
	}
}

// ReconcileSong merges one audio file into the catalog. An unreadable file
// is skipped, never fatal to the crawl. An already-known song is left
// untouched, but its dependents are still processed: a later crawl of the
// same file can backfill the album's artist or upgrade a placeholder
// thumbnail even though the song row never changes.
func (r *Reconciler) ReconcileSong(root, path string) Outcome {
	meta, err := r.extractor.ExtractSong(root, path)
	if err != nil {
		if errors.Is(err, tagmeta.ErrUnreadable) {
			logging.Debug("reconcile: skipping unreadable file %s: %v", path, err)
		} else {
			logging.Warn("reconcile: extraction failed for %s: %v", path, err)
		}
		metrics.ReconcileSongsTotal.WithLabelValues(string(OutcomeSkipped)).Inc()
		return OutcomeSkipped
	}

	albumThumb := r.ensureAlbum(path, meta)
	r.ensureArtist(meta.Artist)
	// The artist set may have just changed; the album-artist check is
	// independent and re-runs against the updated set.
	r.ensureArtist(meta.AlbumArtist)
	r.ensureGenre(meta.Genre)

	// The song check runs last so dependent processing above happens on
	// every visit, not just the first.
	if _, ok := r.catalog.Song(path); ok {
		metrics.ReconcileSongsTotal.WithLabelValues(string(OutcomeExisting)).Inc()
		return OutcomeExisting
	}

	song := &catalog.Song{
		Path:        path,
		Title:       meta.Title,
		Artist:      meta.Artist,
		AlbumArtist: meta.AlbumArtist,
		Album:       meta.Album,
		Genre:       meta.Genre,
		DiscNumber:  meta.DiscNumber,
		TrackNumber: meta.TrackNumber,
		Thumbnail:   albumThumb,
		State:       catalog.Active,
	}
	r.catalog.AddSong(song)
	r.store.QueueSongUpsert(song)

	metrics.ReconcileSongsTotal.WithLabelValues(string(OutcomeCreated)).Inc()
	logging.Debug("reconcile: created song %q (%s)", song.Title, path)
	return OutcomeCreated
}

// ReconcileVideo merges one video file into the catalog. Videos have no
// dependent entities.
func (r *Reconciler) ReconcileVideo(path string) Outcome {
	if _, ok := r.catalog.Video(path); ok {
		metrics.ReconcileVideosTotal.WithLabelValues(string(OutcomeExisting)).Inc()
		return OutcomeExisting
	}

	video := &catalog.Video{
		Path:      path,
		Title:     r.extractor.ExtractVideoTitle(path),
		Thumbnail: r.thumbs.VideoThumbnail(path),
		State:     catalog.Active,
	}
	r.catalog.AddVideo(video)
	r.store.QueueVideoUpsert(video)

	metrics.ReconcileVideosTotal.WithLabelValues(string(OutcomeCreated)).Inc()
	logging.Debug("reconcile: created video %q (%s)", video.Title, path)
	return OutcomeCreated
}

// ensureAlbum creates or backfills the album for a song and returns the
// thumbnail reference the song should carry.
//
// A new album that is not the unknown sentinel gets a thumbnail fetched
// from the song's art; the sentinel album keeps the placeholder and never
// triggers a fetch. An existing non-sentinel album is opportunistically
// backfilled: an unknown-artist field takes the song's album-artist, and a
// placeholder thumbnail is retried. At most one upsert is issued even when
// both fields change.
func (r *Reconciler) ensureAlbum(songPath string, meta tagmeta.SongMeta) string {
	album, ok := r.catalog.Album(meta.Album, meta.Genre)
	if !ok {
		thumb := catalog.PlaceholderThumb
		if meta.Album != catalog.UnknownAlbum {
			thumb = r.thumbs.AlbumThumbnail(songPath, meta.Album)
		}
		album = &catalog.Album{
			Title:     meta.Album,
			Artist:    meta.AlbumArtist,
			Genre:     meta.Genre,
			Thumbnail: thumb,
			State:     catalog.Active,
		}
		r.catalog.AddAlbum(album)
		r.store.QueueAlbumUpsert(album)
		metrics.EntitiesCreatedTotal.WithLabelValues("album").Inc()
		logging.Debug("reconcile: created album %q (%s)", album.Title, album.Genre)
		return album.Thumbnail
	}

	if meta.Album == catalog.UnknownAlbum {
		return album.Thumbnail
	}

	changed := false
	if album.Artist == catalog.UnknownArtist && meta.AlbumArtist != catalog.UnknownArtist {
		album.Artist = meta.AlbumArtist
		changed = true
	}
	if album.Thumbnail == catalog.PlaceholderThumb {
		if thumb := r.thumbs.AlbumThumbnail(songPath, meta.Album); thumb != catalog.PlaceholderThumb {
			album.Thumbnail = thumb
			changed = true
		}
	}
	if changed {
		r.store.QueueAlbumUpsert(album)
		metrics.AlbumBackfillsTotal.Inc()
		logging.Debug("reconcile: backfilled album %q (%s)", album.Title, album.Genre)
	}
	return album.Thumbnail
}

func (r *Reconciler) ensureArtist(name string) {
	if _, ok := r.catalog.Artist(name); ok {
		return
	}
	artist := &catalog.Artist{
		Name:    name,
		Picture: catalog.PlaceholderThumb,
		State:   catalog.Active,
	}
	r.catalog.AddArtist(artist)
	r.store.QueueArtistUpsert(artist)
	metrics.EntitiesCreatedTotal.WithLabelValues("artist").Inc()
	logging.Debug("reconcile: created artist %q", name)
}

func (r *Reconciler) ensureGenre(name string) {
	if _, ok := r.catalog.Genre(name); ok {
		return
	}
	genre := &catalog.Genre{
		Name:  name,
		State: catalog.Active,
	}
	r.catalog.AddGenre(genre)
	r.store.QueueGenreUpsert(genre)
	metrics.EntitiesCreatedTotal.WithLabelValues("genre").Inc()
	logging.Debug("reconcile: created genre %q", name)
}
