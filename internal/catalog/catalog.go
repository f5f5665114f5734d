package catalog

import "sync"

// Catalog is the in-memory view of the media library. All existence checks
// during reconciliation run against it rather than the store, so it must be
// loaded before a crawl starts. Each collection carries a natural-key index
// to keep lookups O(1) across crawls that touch thousands of files.
//
// The RWMutex protects readers (HTTP listings) from the single crawl or sync
// worker mutating the collections; it does not make concurrent crawls safe.
// The coordinator guarantees at most one crawl runs at a time.
type Catalog struct {
	mu sync.RWMutex

	songs   []*Song
	albums  []*Album
	artists []*Artist
	genres  []*Genre
	videos  []*Video

	songsByPath   map[string]*Song
	albumsByKey   map[AlbumKey]*Album
	artistsByName map[string]*Artist
	genresByName  map[string]*Genre
	videosByPath  map[string]*Video
}

// New creates an empty Catalog.
func New() *Catalog {
	c := &Catalog{}
	c.reindex()
	return c
}

// reindex rebuilds every natural-key index from the collections.
// Caller must hold mu.
func (c *Catalog) reindex() {
	c.songsByPath = make(map[string]*Song, len(c.songs))
	for _, s := range c.songs {
		c.songsByPath[s.Path] = s
	}
	c.albumsByKey = make(map[AlbumKey]*Album, len(c.albums))
	for _, a := range c.albums {
		c.albumsByKey[a.Key()] = a
	}
	c.artistsByName = make(map[string]*Artist, len(c.artists))
	for _, a := range c.artists {
		c.artistsByName[a.Name] = a
	}
	c.genresByName = make(map[string]*Genre, len(c.genres))
	for _, g := range c.genres {
		c.genresByName[g.Name] = g
	}
	c.videosByPath = make(map[string]*Video, len(c.videos))
	for _, v := range c.videos {
		c.videosByPath[v.Path] = v
	}
}

// Song looks up a song by its source path.
func (c *Catalog) Song(path string) (*Song, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.songsByPath[path]
	return s, ok
}

// Album looks up an album by its (title, genre) natural key.
func (c *Catalog) Album(title, genre string) (*Album, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.albumsByKey[AlbumKey{Title: title, Genre: genre}]
	return a, ok
}

// Artist looks up an artist by name.
func (c *Catalog) Artist(name string) (*Artist, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.artistsByName[name]
	return a, ok
}

// Genre looks up a genre by name.
func (c *Catalog) Genre(name string) (*Genre, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.genresByName[name]
	return g, ok
}

// Video looks up a video by its source path.
func (c *Catalog) Video(path string) (*Video, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.videosByPath[path]
	return v, ok
}

// AddSong inserts a song, replacing any prior entry with the same path.
func (c *Catalog) AddSong(s *Song) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.songsByPath[s.Path]; !exists {
		c.songs = append(c.songs, s)
	}
	c.songsByPath[s.Path] = s
}

// AddAlbum inserts an album, replacing any prior entry with the same key.
func (c *Catalog) AddAlbum(a *Album) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.albumsByKey[a.Key()]; !exists {
		c.albums = append(c.albums, a)
	}
	c.albumsByKey[a.Key()] = a
}

// AddArtist inserts an artist, replacing any prior entry with the same name.
func (c *Catalog) AddArtist(a *Artist) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.artistsByName[a.Name]; !exists {
		c.artists = append(c.artists, a)
	}
	c.artistsByName[a.Name] = a
}

// AddGenre inserts a genre, replacing any prior entry with the same name.
func (c *Catalog) AddGenre(g *Genre) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.genresByName[g.Name]; !exists {
		c.genres = append(c.genres, g)
	}
	c.genresByName[g.Name] = g
}

// AddVideo inserts a video, replacing any prior entry with the same path.
func (c *Catalog) AddVideo(v *Video) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.videosByPath[v.Path]; !exists {
		c.videos = append(c.videos, v)
	}
	c.videosByPath[v.Path] = v
}

// Songs returns a snapshot of the song collection.
func (c *Catalog) Songs() []*Song {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Song, len(c.songs))
	copy(out, c.songs)
	return out
}

// Albums returns a snapshot of the album collection.
func (c *Catalog) Albums() []*Album {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Album, len(c.albums))
	copy(out, c.albums)
	return out
}

// Artists returns a snapshot of the artist collection.
func (c *Catalog) Artists() []*Artist {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Artist, len(c.artists))
	copy(out, c.artists)
	return out
}

// Genres returns a snapshot of the genre collection.
func (c *Catalog) Genres() []*Genre {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Genre, len(c.genres))
	copy(out, c.genres)
	return out
}

// Videos returns a snapshot of the video collection.
func (c *Catalog) Videos() []*Video {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Video, len(c.videos))
	copy(out, c.videos)
	return out
}

// ReplaceSongs swaps in a freshly loaded song collection and rebuilds its index.
func (c *Catalog) ReplaceSongs(songs []*Song) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.songs = songs
	c.songsByPath = make(map[string]*Song, len(songs))
	for _, s := range songs {
		c.songsByPath[s.Path] = s
	}
}

// ReplaceAlbums swaps in a freshly loaded album collection and rebuilds its index.
func (c *Catalog) ReplaceAlbums(albums []*Album) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.albums = albums
	c.albumsByKey = make(map[AlbumKey]*Album, len(albums))
	for _, a := range albums {
		c.albumsByKey[a.Key()] = a
	}
}

// ReplaceArtists swaps in a freshly loaded artist collection and rebuilds its index.
func (c *Catalog) ReplaceArtists(artists []*Artist) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artists = artists
	c.artistsByName = make(map[string]*Artist, len(artists))
	for _, a := range artists {
		c.artistsByName[a.Name] = a
	}
}

// ReplaceGenres swaps in a freshly loaded genre collection and rebuilds its index.
func (c *Catalog) ReplaceGenres(genres []*Genre) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.genres = genres
	c.genresByName = make(map[string]*Genre, len(genres))
	for _, g := range genres {
		c.genresByName[g.Name] = g
	}
}

// ReplaceVideos swaps in a freshly loaded video collection and rebuilds its index.
func (c *Catalog) ReplaceVideos(videos []*Video) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videos = videos
	c.videosByPath = make(map[string]*Video, len(videos))
	for _, v := range videos {
		c.videosByPath[v.Path] = v
	}
}

// Counts returns the size of each collection, for status reporting.
func (c *Catalog) Counts() (songs, albums, artists, genres, videos int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.songs), len(c.albums), len(c.artists), len(c.genres), len(c.videos)
}
