package catalog

// LifecycleState tracks an entity's pending-deletion status. Entities marked
// PendingDelete stay in memory until the next Sync flushes the deletion to the
// store.
type LifecycleState int

const (
	// Active is the normal state for a live catalog entity.
	Active LifecycleState = iota
	// PendingDelete marks an entity for deletion on the next Sync.
	PendingDelete
)

// Sentinel values used for media with missing or unreadable tags. Sentinel
// entities never trigger thumbnail extraction and never overwrite real
// metadata during reconciliation.
const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
	UnknownGenre  = "Unknown Genre"
)

// PlaceholderThumb is the thumbnail reference used when no real artwork could
// be extracted. It doubles as the "no thumbnail" sentinel returned by the
// thumbnail cache on failure.
const PlaceholderThumb = "/"

// Song is a single audio track. Identity is the source file path, not a
// generated id: re-scanning the same file must resolve to the same Song.
type Song struct {
	Path        string
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Genre       string
	DiscNumber  int
	TrackNumber int
	Thumbnail   string
	State       LifecycleState
}

// AlbumKey is the natural key of an Album. Two albums sharing a title but
// carrying different genres are distinct entities.
type AlbumKey struct {
	Title string
	Genre string
}

// Album groups songs by (title, genre).
type Album struct {
	Title     string
	Artist    string
	Genre     string
	Thumbnail string
	State     LifecycleState
}

// Key returns the album's natural key.
func (a *Album) Key() AlbumKey {
	return AlbumKey{Title: a.Title, Genre: a.Genre}
}

// Artist is keyed by name. A song's album artist yields its own Artist row
// when it differs from the track artist.
type Artist struct {
	Name    string
	Picture string
	State   LifecycleState
}

// Genre is keyed by name.
type Genre struct {
	Name  string
	State LifecycleState
}

// Video is a single video file, keyed by source path. Videos carry no
// dependent entities.
type Video struct {
	Path      string
	Title     string
	Thumbnail string
	State     LifecycleState
}
