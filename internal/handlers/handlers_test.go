package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"media-catalog/internal/catalog"
	"media-catalog/internal/crawler"
	"media-catalog/internal/reconcile"
	"media-catalog/internal/startup"
	"media-catalog/internal/tagmeta"

	"github.com/gorilla/mux"
)

// nopStore satisfies catalog.Store with empty persistence. Handler tests
// only exercise the in-memory catalog and coordinator state.
type nopStore struct{}

func (nopStore) GetAllSongs(context.Context) ([]*catalog.Song, error)     { return nil, nil }
func (nopStore) QueueSongUpsert(*catalog.Song)                            {}
func (nopStore) FlushSongUpserts(context.Context) error                   { return nil }
func (nopStore) DeleteSong(context.Context, *catalog.Song) error          { return nil }
func (nopStore) GetAllAlbums(context.Context) ([]*catalog.Album, error)   { return nil, nil }
func (nopStore) QueueAlbumUpsert(*catalog.Album)                          {}
func (nopStore) FlushAlbumUpserts(context.Context) error                  { return nil }
func (nopStore) DeleteAlbum(context.Context, *catalog.Album) error        { return nil }
func (nopStore) GetAllArtists(context.Context) ([]*catalog.Artist, error) { return nil, nil }
func (nopStore) QueueArtistUpsert(*catalog.Artist)                        {}
func (nopStore) FlushArtistUpserts(context.Context) error                 { return nil }
func (nopStore) DeleteArtist(context.Context, *catalog.Artist) error      { return nil }
func (nopStore) GetAllGenres(context.Context) ([]*catalog.Genre, error)   { return nil, nil }
func (nopStore) QueueGenreUpsert(*catalog.Genre)                          {}
func (nopStore) FlushGenreUpserts(context.Context) error                  { return nil }
func (nopStore) DeleteGenre(context.Context, *catalog.Genre) error        { return nil }
func (nopStore) GetAllVideos(context.Context) ([]*catalog.Video, error)   { return nil, nil }
func (nopStore) QueueVideoUpsert(*catalog.Video)                          {}
func (nopStore) FlushVideoUpserts(context.Context) error                  { return nil }
func (nopStore) DeleteVideo(context.Context, *catalog.Video) error        { return nil }

type fakeExtractor struct{}

func (fakeExtractor) ExtractSong(_, path string) (tagmeta.SongMeta, error) {
	return tagmeta.SongMeta{Title: filepath.Base(path)}, nil
}
func (fakeExtractor) ExtractVideoTitle(path string) string { return filepath.Base(path) }

type fakeThumbnailer struct{}

func (fakeThumbnailer) AlbumThumbnail(string, string) string { return catalog.PlaceholderThumb }
func (fakeThumbnailer) VideoThumbnail(string) string         { return catalog.PlaceholderThumb }

type testEnv struct {
	handlers    *Handlers
	catalog     *catalog.Catalog
	coordinator *crawler.Coordinator
	thumbDir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cat := catalog.New()
	syncer := catalog.NewSyncer(cat, nopStore{})

	base := t.TempDir()
	cfg := crawler.Config{
		MusicDir: filepath.Join(base, "music"),
		VideoDir: filepath.Join(base, "video"),
	}
	os.MkdirAll(cfg.MusicDir, 0o755)
	os.MkdirAll(cfg.VideoDir, 0o755)

	rec := reconcile.New(cat, nopStore{}, fakeExtractor{}, fakeThumbnailer{})
	coord := crawler.New(cfg, cat, rec, syncer)

	thumbDir := filepath.Join(base, "thumbnails")
	os.MkdirAll(thumbDir, 0o755)

	h := New(cat, coord, syncer, &startup.Config{ThumbnailDir: thumbDir})
	return &testEnv{handlers: h, catalog: cat, coordinator: coord, thumbDir: thumbDir}
}

func TestLivenessCheck(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handlers.LivenessCheck(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "alive" {
		t.Errorf("status field = %q, want alive", body["status"])
	}
}

func TestLivenessCheckHeadOmitsBody(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handlers.LivenessCheck(rec, httptest.NewRequest(http.MethodHead, "/livez", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD response should have no body, got %q", rec.Body.String())
	}
}

func TestReadinessBeforeEnable(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handlers.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 before coordinator is enabled", rec.Code)
	}
}

func TestReadinessAfterEnable(t *testing.T) {
	env := newTestEnv(t)
	env.coordinator.Enable()

	rec := httptest.NewRecorder()
	env.handlers.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 after enable", rec.Code)
	}
}

func TestHealthCheckReportsCatalogCounts(t *testing.T) {
	env := newTestEnv(t)
	env.coordinator.Enable()

	env.catalog.AddSong(&catalog.Song{Path: "/music/a.mp3", Title: "A"})
	env.catalog.AddVideo(&catalog.Video{Path: "/video/v.mp4", Title: "V"})

	rec := httptest.NewRecorder()
	env.handlers.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Status != statusHealthy {
		t.Errorf("Status = %q, want %q", body.Status, statusHealthy)
	}
	if body.Songs != 1 || body.Videos != 1 {
		t.Errorf("counts = %d songs / %d videos, want 1 / 1", body.Songs, body.Videos)
	}
}

func TestHealthCheckNotReadyReturns503(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handlers.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 before enable", rec.Code)
	}
}

func TestGetStatus(t *testing.T) {
	env := newTestEnv(t)
	env.coordinator.Enable()

	rec := httptest.NewRecorder()
	env.handlers.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body crawler.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !body.Ready {
		t.Error("Ready = false, want true after enable")
	}
	if body.Crawling {
		t.Error("Crawling = true with no crawl in flight")
	}
}

func TestTriggerCrawlBeforeEnable(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handlers.TriggerCrawl(rec, httptest.NewRequest(http.MethodPost, "/api/crawl", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 before enable", rec.Code)
	}
}

func TestTriggerSync(t *testing.T) {
	env := newTestEnv(t)
	env.coordinator.Enable()

	rec := httptest.NewRecorder()
	env.handlers.TriggerSync(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "synced" {
		t.Errorf("status field = %q, want synced", body["status"])
	}
}

func TestGetSongsFiltersPendingDelete(t *testing.T) {
	env := newTestEnv(t)

	env.catalog.AddSong(&catalog.Song{Path: "/music/b.mp3", Title: "B"})
	env.catalog.AddSong(&catalog.Song{Path: "/music/a.mp3", Title: "A"})
	env.catalog.AddSong(&catalog.Song{Path: "/music/gone.mp3", Title: "Gone", State: catalog.PendingDelete})

	rec := httptest.NewRecorder()
	env.handlers.GetSongs(rec, httptest.NewRequest(http.MethodGet, "/api/songs", nil))

	var body listResponse[songResponse]
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if body.Total != 2 {
		t.Fatalf("Total = %d, want 2 (pending-delete song filtered)", body.Total)
	}
	if body.Items[0].Path != "/music/a.mp3" || body.Items[1].Path != "/music/b.mp3" {
		t.Errorf("songs not sorted by path: %+v", body.Items)
	}
}

func TestGetAlbumsSortedByTitleThenGenre(t *testing.T) {
	env := newTestEnv(t)

	env.catalog.AddAlbum(&catalog.Album{Title: "Same", Genre: "Rock", Artist: "X"})
	env.catalog.AddAlbum(&catalog.Album{Title: "Same", Genre: "Jazz", Artist: "Y"})
	env.catalog.AddAlbum(&catalog.Album{Title: "Another", Genre: "Rock", Artist: "Z"})

	rec := httptest.NewRecorder()
	env.handlers.GetAlbums(rec, httptest.NewRequest(http.MethodGet, "/api/albums", nil))

	var body listResponse[albumResponse]
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if body.Total != 3 {
		t.Fatalf("Total = %d, want 3", body.Total)
	}
	if body.Items[0].Title != "Another" {
		t.Errorf("first album = %q, want Another", body.Items[0].Title)
	}
	if body.Items[1].Genre != "Jazz" || body.Items[2].Genre != "Rock" {
		t.Errorf("same-title albums not sorted by genre: %+v", body.Items[1:])
	}
}

func TestGetArtistsAndGenres(t *testing.T) {
	env := newTestEnv(t)

	env.catalog.AddArtist(&catalog.Artist{Name: "Zeta"})
	env.catalog.AddArtist(&catalog.Artist{Name: "Alpha"})
	env.catalog.AddGenre(&catalog.Genre{Name: "Rock"})

	rec := httptest.NewRecorder()
	env.handlers.GetArtists(rec, httptest.NewRequest(http.MethodGet, "/api/artists", nil))

	var artists listResponse[artistResponse]
	if err := json.Unmarshal(rec.Body.Bytes(), &artists); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if artists.Total != 2 || artists.Items[0].Name != "Alpha" {
		t.Errorf("artists = %+v, want sorted [Alpha Zeta]", artists.Items)
	}

	rec = httptest.NewRecorder()
	env.handlers.GetGenres(rec, httptest.NewRequest(http.MethodGet, "/api/genres", nil))

	var genres listResponse[genreResponse]
	if err := json.Unmarshal(rec.Body.Bytes(), &genres); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if genres.Total != 1 || genres.Items[0].Name != "Rock" {
		t.Errorf("genres = %+v, want [Rock]", genres.Items)
	}
}

func TestGetVideos(t *testing.T) {
	env := newTestEnv(t)

	env.catalog.AddVideo(&catalog.Video{Path: "/video/b.mp4", Title: "B"})
	env.catalog.AddVideo(&catalog.Video{Path: "/video/a.mp4", Title: "A", Thumbnail: "abc.jpg"})

	rec := httptest.NewRecorder()
	env.handlers.GetVideos(rec, httptest.NewRequest(http.MethodGet, "/api/videos", nil))

	var body listResponse[videoResponse]
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Total != 2 {
		t.Fatalf("Total = %d, want 2", body.Total)
	}
	if body.Items[0].Path != "/video/a.mp4" || body.Items[0].Thumbnail != "abc.jpg" {
		t.Errorf("first video = %+v", body.Items[0])
	}
}

func thumbRequest(t *testing.T, h *Handlers, name string) *httptest.ResponseRecorder {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/thumbnails/{name}", h.GetThumbnail).Methods("GET")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/thumbnails/"+name, nil))
	return rec
}

func TestGetThumbnailServesCachedFile(t *testing.T) {
	env := newTestEnv(t)

	content := []byte{0xff, 0xd8, 0xff, 0xe0}
	if err := os.WriteFile(filepath.Join(env.thumbDir, "abc123.jpg"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	rec := thumbRequest(t, env.handlers, "abc123.jpg")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", got)
	}
}

func TestGetThumbnailMissingFile(t *testing.T) {
	env := newTestEnv(t)

	rec := thumbRequest(t, env.handlers, "nope.jpg")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetThumbnailRejectsTraversalAndBadNames(t *testing.T) {
	env := newTestEnv(t)

	// Secret outside the thumbnail dir must not be reachable.
	secret := filepath.Join(filepath.Dir(env.thumbDir), "secret.jpg")
	if err := os.WriteFile(secret, []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"..%2Fsecret.jpg", "foo..jpg..", "noext"} {
		rec := thumbRequest(t, env.handlers, name)
		if rec.Code == http.StatusOK {
			t.Errorf("thumbnail name %q was served, want rejection", name)
		}
	}
}

func TestGetVersion(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handlers.GetVersion(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body startup.BuildInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.GoVersion == "" {
		t.Error("GoVersion missing from version response")
	}
}
