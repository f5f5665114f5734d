package reconcile

import (
	"context"
	"testing"

	"media-catalog/internal/catalog"
	"media-catalog/internal/tagmeta"
)

type fakeExtractor struct {
	songs map[string]tagmeta.SongMeta
}

func (f *fakeExtractor) ExtractSong(root, path string) (tagmeta.SongMeta, error) {
	meta, ok := f.songs[path]
	if !ok {
		return tagmeta.SongMeta{}, tagmeta.ErrUnreadable
	}
	return meta, nil
}

func (f *fakeExtractor) ExtractVideoTitle(path string) string {
	return "video:" + path
}

type fakeThumbnailer struct {
	albumFetches int
	videoFetches int
	fail         bool
}

func (f *fakeThumbnailer) AlbumThumbnail(songPath, albumTitle string) string {
	f.albumFetches++
	if f.fail {
		return catalog.PlaceholderThumb
	}
	return "/cache/album_" + albumTitle + ".jpg"
}

func (f *fakeThumbnailer) VideoThumbnail(path string) string {
	f.videoFetches++
	if f.fail {
		return catalog.PlaceholderThumb
	}
	return "/cache/video.jpg"
}

// countingStore records queue calls per entity type; everything else is a
// no-op. Reconciliation never reads from the store.
type countingStore struct {
	songUpserts   int
	albumUpserts  int
	artistUpserts int
	genreUpserts  int
	videoUpserts  int
}

func (s *countingStore) GetAllSongs(ctx context.Context) ([]*catalog.Song, error) { return nil, nil }
func (s *countingStore) QueueSongUpsert(*catalog.Song)                            { s.songUpserts++ }
func (s *countingStore) FlushSongUpserts(ctx context.Context) error               { return nil }
func (s *countingStore) DeleteSong(ctx context.Context, _ *catalog.Song) error    { return nil }

func (s *countingStore) GetAllAlbums(ctx context.Context) ([]*catalog.Album, error) { return nil, nil }
func (s *countingStore) QueueAlbumUpsert(*catalog.Album)                            { s.albumUpserts++ }
func (s *countingStore) FlushAlbumUpserts(ctx context.Context) error                { return nil }
func (s *countingStore) DeleteAlbum(ctx context.Context, _ *catalog.Album) error    { return nil }

func (s *countingStore) GetAllArtists(ctx context.Context) ([]*catalog.Artist, error) {
	return nil, nil
}
func (s *countingStore) QueueArtistUpsert(*catalog.Artist)                         { s.artistUpserts++ }
func (s *countingStore) FlushArtistUpserts(ctx context.Context) error              { return nil }
func (s *countingStore) DeleteArtist(ctx context.Context, _ *catalog.Artist) error { return nil }

func (s *countingStore) GetAllGenres(ctx context.Context) ([]*catalog.Genre, error) { return nil, nil }
func (s *countingStore) QueueGenreUpsert(*catalog.Genre)                            { s.genreUpserts++ }
func (s *countingStore) FlushGenreUpserts(ctx context.Context) error                { return nil }
func (s *countingStore) DeleteGenre(ctx context.Context, _ *catalog.Genre) error    { return nil }

func (s *countingStore) GetAllVideos(ctx context.Context) ([]*catalog.Video, error) { return nil, nil }
func (s *countingStore) QueueVideoUpsert(*catalog.Video)                            { s.videoUpserts++ }
func (s *countingStore) FlushVideoUpserts(ctx context.Context) error                { return nil }
func (s *countingStore) DeleteVideo(ctx context.Context, _ *catalog.Video) error    { return nil }

func (s *countingStore) totalWrites() int {
	return s.songUpserts + s.albumUpserts + s.artistUpserts + s.genreUpserts + s.videoUpserts
}

func newTestReconciler(songs map[string]tagmeta.SongMeta) (*Reconciler, *catalog.Catalog, *countingStore, *fakeThumbnailer) {
	c := catalog.New()
	store := &countingStore{}
	thumbs := &fakeThumbnailer{}
	r := New(c, store, &fakeExtractor{songs: songs}, thumbs)
	return r, c, store, thumbs
}

func TestReconcileSongCreatesDependents(t *testing.T) {
	r, c, store, _ := newTestReconciler(map[string]tagmeta.SongMeta{
		"/music/q/01.flac": {
			Title: "Death on Two Legs", Artist: "Queen", AlbumArtist: "Queen",
			Album: "A Night at the Opera", Genre: "Rock", TrackNumber: 1,
		},
	})

	if got := r.ReconcileSong("/music", "/music/q/01.flac"); got != OutcomeCreated {
		t.Fatalf("ReconcileSong() = %v, want created", got)
	}

	if _, ok := c.Song("/music/q/01.flac"); !ok {
		t.Error("song missing from catalog")
	}
	if _, ok := c.Album("A Night at the Opera", "Rock"); !ok {
		t.Error("album missing from catalog")
	}
	if _, ok := c.Artist("Queen"); !ok {
		t.Error("artist missing from catalog")
	}
	if _, ok := c.Genre("Rock"); !ok {
		t.Error("genre missing from catalog")
	}

	if store.songUpserts != 1 || store.albumUpserts != 1 || store.artistUpserts != 1 || store.genreUpserts != 1 {
		t.Errorf("unexpected upsert counts: %+v", store)
	}
}

func TestReconcileSongIsIdempotent(t *testing.T) {
	r, c, store, _ := newTestReconciler(map[string]tagmeta.SongMeta{
		"/music/q/01.flac": {
			Title: "Death on Two Legs", Artist: "Queen", AlbumArtist: "Queen",
			Album: "A Night at the Opera", Genre: "Rock",
		},
	})

	r.ReconcileSong("/music", "/music/q/01.flac")
	writesAfterFirst := store.totalWrites()

	if got := r.ReconcileSong("/music", "/music/q/01.flac"); got != OutcomeExisting {
		t.Fatalf("second ReconcileSong() = %v, want existing", got)
	}
	if store.totalWrites() != writesAfterFirst {
		t.Errorf("second reconciliation issued %d extra writes", store.totalWrites()-writesAfterFirst)
	}

	songs, albums, artists, genres, _ := c.Counts()
	if songs != 1 || albums != 1 || artists != 1 || genres != 1 {
		t.Errorf("duplicate rows after repeat reconciliation: songs=%d albums=%d artists=%d genres=%d",
			songs, albums, artists, genres)
	}
}

func TestDistinctAlbumArtistGetsOwnRow(t *testing.T) {
	// Two files with artist A / album-artist B on album X, then a third by
	// B on the same album: one album, two artists, one genre, three songs.
	r, c, _, _ := newTestReconciler(map[string]tagmeta.SongMeta{
		"/m/1.mp3": {Title: "One", Artist: "A", AlbumArtist: "B", Album: "X", Genre: "Rock"},
		"/m/2.mp3": {Title: "Two", Artist: "A", AlbumArtist: "B", Album: "X", Genre: "Rock"},
		"/m/3.mp3": {Title: "Three", Artist: "B", AlbumArtist: "B", Album: "X", Genre: "Rock"},
	})

	for _, p := range []string{"/m/1.mp3", "/m/2.mp3", "/m/3.mp3"} {
		if got := r.ReconcileSong("/m", p); got != OutcomeCreated {
			t.Fatalf("ReconcileSong(%s) = %v, want created", p, got)
		}
	}

	songs, albums, artists, genres, _ := c.Counts()
	if songs != 3 {
		t.Errorf("songs = %d, want 3", songs)
	}
	if albums != 1 {
		t.Errorf("albums = %d, want 1", albums)
	}
	if artists != 2 {
		t.Errorf("artists = %d, want 2", artists)
	}
	if genres != 1 {
		t.Errorf("genres = %d, want 1", genres)
	}
	if _, ok := c.Artist("A"); !ok {
		t.Error("track artist A missing")
	}
	if _, ok := c.Artist("B"); !ok {
		t.Error("album artist B missing")
	}
}

func TestSameTitleDifferentGenreIsDistinctAlbum(t *testing.T) {
	r, c, _, _ := newTestReconciler(map[string]tagmeta.SongMeta{
		"/m/1.mp3": {Title: "One", Artist: "A", AlbumArtist: "A", Album: "Greatest Hits", Genre: "Rock"},
		"/m/2.mp3": {Title: "Two", Artist: "B", AlbumArtist: "B", Album: "Greatest Hits", Genre: "Pop"},
	})

	r.ReconcileSong("/m", "/m/1.mp3")
	r.ReconcileSong("/m", "/m/2.mp3")

	if _, ok := c.Album("Greatest Hits", "Rock"); !ok {
		t.Error("rock album missing")
	}
	if _, ok := c.Album("Greatest Hits", "Pop"); !ok {
		t.Error("pop album missing")
	}
}

func TestUnknownAlbumNeverFetchesThumbnail(t *testing.T) {
	r, c, _, thumbs := newTestReconciler(map[string]tagmeta.SongMeta{
		"/m/untagged.mp3": {
			Title: "untagged", Artist: catalog.UnknownArtist, AlbumArtist: catalog.UnknownArtist,
			Album: catalog.UnknownAlbum, Genre: catalog.UnknownGenre,
		},
	})

	r.ReconcileSong("/m", "/m/untagged.mp3")

	if thumbs.albumFetches != 0 {
		t.Errorf("unknown album triggered %d thumbnail fetches", thumbs.albumFetches)
	}
	album, ok := c.Album(catalog.UnknownAlbum, catalog.UnknownGenre)
	if !ok {
		t.Fatal("unknown album row missing")
	}
	if album.Thumbnail != catalog.PlaceholderThumb {
		t.Errorf("unknown album thumbnail = %q, want placeholder", album.Thumbnail)
	}
}

func TestAlbumBackfillIsSingleUpsert(t *testing.T) {
	r, c, store, _ := newTestReconciler(map[string]tagmeta.SongMeta{
		"/m/2.mp3": {Title: "Two", Artist: "Queen", AlbumArtist: "Queen", Album: "X", Genre: "Rock"},
	})

	// Pre-existing album with both fields still at their placeholders.
	c.AddAlbum(&catalog.Album{
		Title:     "X",
		Artist:    catalog.UnknownArtist,
		Genre:     "Rock",
		Thumbnail: catalog.PlaceholderThumb,
		State:     catalog.Active,
	})

	r.ReconcileSong("/m", "/m/2.mp3")

	album, ok := c.Album("X", "Rock")
	if !ok {
		t.Fatal("album missing")
	}
	if album.Artist != "Queen" {
		t.Errorf("album artist = %q, want backfilled Queen", album.Artist)
	}
	if album.Thumbnail == catalog.PlaceholderThumb {
		t.Error("album thumbnail not backfilled")
	}
	if store.albumUpserts != 1 {
		t.Errorf("album upserts = %d, want exactly 1 for the backfill", store.albumUpserts)
	}

	song, ok := c.Song("/m/2.mp3")
	if !ok {
		t.Fatal("song missing")
	}
	if song.Thumbnail != album.Thumbnail {
		t.Errorf("song thumbnail %q does not match album thumbnail %q", song.Thumbnail, album.Thumbnail)
	}
}

func TestRecrawlBackfillsPlaceholderThumbnail(t *testing.T) {
	// Cover art that was unavailable on the first crawl becomes resolvable
	// later. Re-reconciling the same file must upgrade the album's
	// placeholder even though the song itself already exists.
	r, c, store, thumbs := newTestReconciler(map[string]tagmeta.SongMeta{
		"/m/1.mp3": {Title: "One", Artist: "Queen", AlbumArtist: "Queen", Album: "X", Genre: "Rock"},
	})

	thumbs.fail = true
	if got := r.ReconcileSong("/m", "/m/1.mp3"); got != OutcomeCreated {
		t.Fatalf("first ReconcileSong() = %v, want created", got)
	}
	album, _ := c.Album("X", "Rock")
	if album.Thumbnail != catalog.PlaceholderThumb {
		t.Fatalf("album thumbnail = %q, want placeholder after failed fetch", album.Thumbnail)
	}
	albumUpsertsAfterFirst := store.albumUpserts
	songUpsertsAfterFirst := store.songUpserts

	thumbs.fail = false
	if got := r.ReconcileSong("/m", "/m/1.mp3"); got != OutcomeExisting {
		t.Fatalf("second ReconcileSong() = %v, want existing", got)
	}

	album, _ = c.Album("X", "Rock")
	if album.Thumbnail == catalog.PlaceholderThumb {
		t.Error("placeholder thumbnail not upgraded on re-crawl")
	}
	if store.albumUpserts != albumUpsertsAfterFirst+1 {
		t.Errorf("album upserts = %d, want exactly one backfill after the first crawl's %d",
			store.albumUpserts, albumUpsertsAfterFirst)
	}
	if store.songUpserts != songUpsertsAfterFirst {
		t.Errorf("existing song was re-upserted on re-crawl")
	}
}

func TestBackfillNeverOverwritesKnownArtist(t *testing.T) {
	r, c, store, _ := newTestReconciler(map[string]tagmeta.SongMeta{
		"/m/2.mp3": {Title: "Two", Artist: "Imposter", AlbumArtist: "Imposter", Album: "X", Genre: "Rock"},
	})

	c.AddAlbum(&catalog.Album{
		Title:     "X",
		Artist:    "Queen",
		Genre:     "Rock",
		Thumbnail: "/cache/album_X.jpg",
		State:     catalog.Active,
	})

	r.ReconcileSong("/m", "/m/2.mp3")

	album, _ := c.Album("X", "Rock")
	if album.Artist != "Queen" {
		t.Errorf("existing album artist overwritten: %q", album.Artist)
	}
	if store.albumUpserts != 0 {
		t.Errorf("unchanged album was upserted %d times", store.albumUpserts)
	}
}

func TestUnreadableFileIsSkipped(t *testing.T) {
	r, c, store, _ := newTestReconciler(nil)

	if got := r.ReconcileSong("/m", "/m/broken.mp3"); got != OutcomeSkipped {
		t.Fatalf("ReconcileSong() = %v, want skipped", got)
	}
	if store.totalWrites() != 0 {
		t.Errorf("skipped file issued %d writes", store.totalWrites())
	}
	songs, _, _, _, _ := c.Counts()
	if songs != 0 {
		t.Errorf("skipped file created %d songs", songs)
	}
}

func TestReconcileVideo(t *testing.T) {
	r, c, store, thumbs := newTestReconciler(nil)

	if got := r.ReconcileVideo("/video/clip.mkv"); got != OutcomeCreated {
		t.Fatalf("ReconcileVideo() = %v, want created", got)
	}
	if got := r.ReconcileVideo("/video/clip.mkv"); got != OutcomeExisting {
		t.Fatalf("second ReconcileVideo() = %v, want existing", got)
	}

	video, ok := c.Video("/video/clip.mkv")
	if !ok {
		t.Fatal("video missing from catalog")
	}
	if video.Title != "video:/video/clip.mkv" {
		t.Errorf("video title = %q", video.Title)
	}
	if store.videoUpserts != 1 {
		t.Errorf("video upserts = %d, want 1", store.videoUpserts)
	}
	if thumbs.videoFetches != 1 {
		t.Errorf("video thumbnail fetches = %d, want 1", thumbs.videoFetches)
	}
}

func TestVideoThumbnailFailureFallsBackToPlaceholder(t *testing.T) {
	c := catalog.New()
	store := &countingStore{}
	thumbs := &fakeThumbnailer{fail: true}
	r := New(c, store, &fakeExtractor{}, thumbs)

	r.ReconcileVideo("/video/clip.mkv")

	video, ok := c.Video("/video/clip.mkv")
	if !ok {
		t.Fatal("video missing from catalog")
	}
	if video.Thumbnail != catalog.PlaceholderThumb {
		t.Errorf("video thumbnail = %q, want placeholder", video.Thumbnail)
	}
}
