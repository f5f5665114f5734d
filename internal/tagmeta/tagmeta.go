package tagmeta

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.senan.xyz/taglib"

	"media-catalog/internal/catalog"
	"media-catalog/internal/filesystem"
	"media-catalog/internal/logging"
)

// ErrUnreadable marks a media file that cannot be accessed at all. Callers
// skip such files; tag parse failures are handled internally by the
// filename fallback and never surface as errors.
var ErrUnreadable = errors.New("unreadable media file")

var trackPrefixPattern = regexp.MustCompile(`^\s*(\d{1,2})[\s._-]+(.+)$`)

var leadingIntegerPattern = regexp.MustCompile(`\d+`)

// SongMeta holds the metadata recovered for one audio file. Every field is
// populated; fields that could not be read carry the appropriate sentinel.
type SongMeta struct {
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Genre       string
	DiscNumber  int
	TrackNumber int
}

// Extractor reads embedded tags from media files, falling back to
// filename and directory layout when a file carries no readable tags.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractSong recovers metadata for the audio file at path. root is the
// library root the path lives under; the directory layout relative to root
// supplies artist and album names when tags are missing. Returns
// ErrUnreadable only when the file itself cannot be accessed.
func (e *Extractor) ExtractSong(root, path string) (SongMeta, error) {
	// The retry wrapper keeps a transient NFS error from misclassifying a
	// readable file as unreadable for the rest of the crawl.
	if _, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig()); err != nil {
		return SongMeta{}, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	meta := fallbackFromPath(root, path)

	tags, err := taglib.ReadTags(path)
	if err != nil {
		logging.Debug("tagmeta: unreadable tags for %s, using filename fallback: %v", path, err)
		return meta, nil
	}

	if v := firstTagValue(tags, taglib.Title, "TITLE"); v != "" {
		meta.Title = v
	}
	if v := firstTagValue(tags, taglib.Artist, "ARTIST"); v != "" {
		meta.Artist = v
	}
	if v := firstTagValue(tags, taglib.AlbumArtist, "ALBUMARTIST"); v != "" {
		meta.AlbumArtist = v
	}
	if v := firstTagValue(tags, taglib.Album, "ALBUM"); v != "" {
		meta.Album = v
	}
	if v := firstTagValue(tags, taglib.Genre, "GENRE"); v != "" {
		meta.Genre = v
	}
	if n := parseNumericTag(firstTagValue(tags, taglib.TrackNumber, "TRACKNUMBER", "TRCK")); n > 0 {
		meta.TrackNumber = n
	}
	if n := parseNumericTag(firstTagValue(tags, taglib.DiscNumber, "DISCNUMBER", "TPOS")); n > 0 {
		meta.DiscNumber = n
	}

	if meta.AlbumArtist == catalog.UnknownArtist && meta.Artist != catalog.UnknownArtist {
		meta.AlbumArtist = meta.Artist
	}
	return meta, nil
}

// ExtractVideoTitle derives a display title for a video file from its
// filename stem. Video containers rarely carry useful title tags.
func (e *Extractor) ExtractVideoTitle(path string) string {
	base := filepath.Base(path)
	title := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if title == "" {
		return base
	}
	return title
}

// fallbackFromPath derives metadata from the file's location alone.
// A layout of root/Artist/Album/NN - Title.ext yields full metadata;
// shallower layouts fall back to the unknown sentinels.
func fallbackFromPath(root, path string) SongMeta {
	rel := filepath.Base(path)
	if r, err := filepath.Rel(root, path); err == nil {
		rel = r
	}
	rel = filepath.ToSlash(rel)
	parts := strings.Split(rel, "/")

	fileName := parts[len(parts)-1]
	baseName := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	trackNo, title := parseTrackPrefix(baseName)

	meta := SongMeta{
		Title:       title,
		Artist:      catalog.UnknownArtist,
		AlbumArtist: catalog.UnknownArtist,
		Album:       catalog.UnknownAlbum,
		Genre:       catalog.UnknownGenre,
		TrackNumber: trackNo,
	}
	if len(parts) >= 2 && strings.TrimSpace(parts[0]) != "" {
		meta.Artist = strings.TrimSpace(parts[0])
		meta.AlbumArtist = meta.Artist
	}
	if len(parts) >= 3 && strings.TrimSpace(parts[1]) != "" {
		meta.Album = strings.TrimSpace(parts[1])
	}
	return meta
}

// parseTrackPrefix splits a "NN - Title" filename stem into track number
// and title. Stems without a usable numeric prefix keep the whole stem as
// the title.
func parseTrackPrefix(baseName string) (int, string) {
	match := trackPrefixPattern.FindStringSubmatch(baseName)
	if len(match) != 3 {
		return 0, strings.TrimSpace(baseName)
	}

	number := 0
	for _, ch := range match[1] {
		number = (number * 10) + int(ch-'0')
	}
	if number <= 0 {
		return 0, strings.TrimSpace(baseName)
	}
	return number, strings.TrimSpace(match[2])
}

func firstTagValue(tags map[string][]string, keys ...string) string {
	for _, key := range keys {
		for _, value := range tags[key] {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func parseNumericTag(value string) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}
	match := leadingIntegerPattern.FindString(trimmed)
	if match == "" {
		return 0
	}
	parsed, err := strconv.Atoi(match)
	if err != nil || parsed <= 0 {
		return 0
	}
	return parsed
}
