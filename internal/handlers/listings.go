package handlers

import (
	"net/http"
	"sort"

	"media-catalog/internal/catalog"
)

// Listing DTOs. The catalog's in-memory entities carry lifecycle state the
// API should not leak, so responses are mapped explicitly.

type songResponse struct {
	Path        string `json:"path"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	AlbumArtist string `json:"albumArtist"`
	Album       string `json:"album"`
	Genre       string `json:"genre"`
	DiscNumber  int    `json:"discNumber"`
	TrackNumber int    `json:"trackNumber"`
	Thumbnail   string `json:"thumbnail"`
}

type albumResponse struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Genre     string `json:"genre"`
	Thumbnail string `json:"thumbnail"`
}

type artistResponse struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type genreResponse struct {
	Name string `json:"name"`
}

type videoResponse struct {
	Path      string `json:"path"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

type listResponse[T any] struct {
	Total int `json:"total"`
	Items []T `json:"items"`
}

func writeListing[T any](w http.ResponseWriter, items []T) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, listResponse[T]{Total: len(items), Items: items})
}

// GetSongs lists every active song in the catalog, sorted by path
func (h *Handlers) GetSongs(w http.ResponseWriter, _ *http.Request) {
	songs := h.catalog.Songs()
	items := make([]songResponse, 0, len(songs))
	for _, s := range songs {
		if s.State == catalog.PendingDelete {
			continue
		}
		items = append(items, songResponse{
			Path:        s.Path,
			Title:       s.Title,
			Artist:      s.Artist,
			AlbumArtist: s.AlbumArtist,
			Album:       s.Album,
			Genre:       s.Genre,
			DiscNumber:  s.DiscNumber,
			TrackNumber: s.TrackNumber,
			Thumbnail:   s.Thumbnail,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	writeListing(w, items)
}

// GetAlbums lists every active album, sorted by title then genre
func (h *Handlers) GetAlbums(w http.ResponseWriter, _ *http.Request) {
	albums := h.catalog.Albums()
	items := make([]albumResponse, 0, len(albums))
	for _, a := range albums {
		if a.State == catalog.PendingDelete {
			continue
		}
		items = append(items, albumResponse{
			Title:     a.Title,
			Artist:    a.Artist,
			Genre:     a.Genre,
			Thumbnail: a.Thumbnail,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Title != items[j].Title {
			return items[i].Title < items[j].Title
		}
		return items[i].Genre < items[j].Genre
	})
	writeListing(w, items)
}

// GetArtists lists every active artist, sorted by name
func (h *Handlers) GetArtists(w http.ResponseWriter, _ *http.Request) {
	artists := h.catalog.Artists()
	items := make([]artistResponse, 0, len(artists))
	for _, a := range artists {
		if a.State == catalog.PendingDelete {
			continue
		}
		items = append(items, artistResponse{Name: a.Name, Picture: a.Picture})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	writeListing(w, items)
}

// GetGenres lists every active genre, sorted by name
func (h *Handlers) GetGenres(w http.ResponseWriter, _ *http.Request) {
	genres := h.catalog.Genres()
	items := make([]genreResponse, 0, len(genres))
	for _, g := range genres {
		if g.State == catalog.PendingDelete {
			continue
		}
		items = append(items, genreResponse{Name: g.Name})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	writeListing(w, items)
}

// GetVideos lists every active video, sorted by path
func (h *Handlers) GetVideos(w http.ResponseWriter, _ *http.Request) {
	videos := h.catalog.Videos()
	items := make([]videoResponse, 0, len(videos))
	for _, v := range videos {
		if v.State == catalog.PendingDelete {
			continue
		}
		items = append(items, videoResponse{Path: v.Path, Title: v.Title, Thumbnail: v.Thumbnail})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	writeListing(w, items)
}
