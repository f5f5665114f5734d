package thumbs

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	"go.senan.xyz/taglib"
	_ "golang.org/x/image/webp"
)

// coverFileNames are sidecar art files checked in a song's directory, in
// preference order, before falling back to embedded art.
var coverFileNames = []string{"cover.jpg", "cover.png", "folder.jpg", "folder.png", "front.jpg"}

// Generator produces 200x200 JPEG thumbnails for catalog entries and
// caches them on disk. Lookups that fail return the placeholder path so
// callers always have a usable value.
type Generator struct {
	cacheDir string
	enabled  bool
	mu       sync.Mutex
}

func NewGenerator(cacheDir string, enabled bool) *Generator {
	if enabled {
		logging.Debug("thumbs: enabled, cache dir: %s", cacheDir)
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			logging.Warn("thumbs: failed to create cache dir: %v", err)
		}
	} else {
		logging.Debug("thumbs: disabled")
	}
	return &Generator{
		cacheDir: cacheDir,
		enabled:  enabled,
	}
}

func (g *Generator) IsEnabled() bool {
	return g.enabled
}

// SongThumbnail resolves cover art for the audio file at path and returns
// the cached thumbnail path. Sidecar cover files in the song's directory
// win over embedded art. Failures yield the placeholder.
func (g *Generator) SongThumbnail(path string) string {
	return g.generate("song", g.CachePath(path), path, g.loadSongArt)
}

// AlbumThumbnail resolves cover art for an album using one of its songs as
// the art source. The cache entry is keyed by the album title so every
// song of the album shares one thumbnail file.
func (g *Generator) AlbumThumbnail(songPath, albumTitle string) string {
	return g.generate("song", g.AlbumCachePath(albumTitle), songPath, g.loadSongArt)
}

// VideoThumbnail grabs a frame from the video at path and returns the
// cached thumbnail path, or the placeholder on failure.
func (g *Generator) VideoThumbnail(path string) string {
	return g.generate("video", g.CachePath(path), path, grabVideoFrame)
}

// CachePath returns the on-disk location a source path's thumbnail would
// occupy, whether or not it has been generated yet.
func (g *Generator) CachePath(sourcePath string) string {
	hash := md5.Sum([]byte(sourcePath))
	return filepath.Join(g.cacheDir, fmt.Sprintf("%x.jpg", hash))
}

// AlbumCachePath returns the stable cache location for an album title.
func (g *Generator) AlbumCachePath(albumTitle string) string {
	return filepath.Join(g.cacheDir, "album_"+SafeName(albumTitle)+".jpg")
}

// SafeName transforms an arbitrary title into a filesystem-safe name.
// Runs of unsupported characters collapse to a single underscore.
func SafeName(title string) string {
	var b []rune
	lastUnderscore := false
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b = append(b, r)
			lastUnderscore = false
		case r >= 'A' && r <= 'Z':
			b = append(b, r+('a'-'A'))
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b = append(b, '_')
				lastUnderscore = true
			}
		}
	}
	out := string(b)
	out = trimUnderscores(out)
	if out == "" {
		hash := md5.Sum([]byte(title))
		return fmt.Sprintf("%x", hash)
	}
	return out
}

func trimUnderscores(s string) string {
	for len(s) > 0 && s[0] == '_' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == '_' {
		s = s[:len(s)-1]
	}
	return s
}

func (g *Generator) generate(kind, cachePath, path string, load func(string) (image.Image, error)) string {
	if !g.enabled {
		return catalog.PlaceholderThumb
	}

	start := time.Now()

	if _, err := os.Stat(cachePath); err == nil {
		metrics.ThumbnailFetchesTotal.WithLabelValues(kind, "cache_hit").Inc()
		return cachePath
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Another caller may have generated it while we waited.
	if _, err := os.Stat(cachePath); err == nil {
		metrics.ThumbnailFetchesTotal.WithLabelValues(kind, "cache_hit").Inc()
		return cachePath
	}

	img, err := load(path)
	if err != nil {
		logging.Debug("thumbs: no %s art for %s: %v", kind, path, err)
		metrics.ThumbnailFetchesTotal.WithLabelValues(kind, "miss").Inc()
		return catalog.PlaceholderThumb
	}
	if img == nil {
		metrics.ThumbnailFetchesTotal.WithLabelValues(kind, "miss").Inc()
		return catalog.PlaceholderThumb
	}

	thumb := imaging.Fit(img, 200, 200, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		logging.Warn("thumbs: failed to encode thumbnail for %s: %v", path, err)
		metrics.ThumbnailFetchesTotal.WithLabelValues(kind, "error").Inc()
		return catalog.PlaceholderThumb
	}

	if err := os.WriteFile(cachePath, buf.Bytes(), 0644); err != nil {
		logging.Warn("thumbs: failed to cache thumbnail %s: %v", cachePath, err)
		metrics.ThumbnailFetchesTotal.WithLabelValues(kind, "error").Inc()
		return catalog.PlaceholderThumb
	}

	metrics.ThumbnailFetchesTotal.WithLabelValues(kind, "generated").Inc()
	metrics.ThumbnailFetchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	logging.Debug("thumbs: cached %s thumbnail: %s", kind, cachePath)
	return cachePath
}

// loadSongArt resolves cover art for an audio file. Sidecar files in the
// same directory are checked first, then embedded art via taglib.
func (g *Generator) loadSongArt(path string) (image.Image, error) {
	dir := filepath.Dir(path)
	for _, name := range coverFileNames {
		coverPath := filepath.Join(dir, name)
		if _, err := os.Stat(coverPath); err != nil {
			continue
		}
		img, err := loadCoverFile(coverPath)
		if err == nil {
			return img, nil
		}
		logging.Debug("thumbs: unreadable sidecar cover %s: %v", coverPath, err)
	}

	data, err := taglib.ReadImage(path)
	if err != nil {
		return nil, fmt.Errorf("embedded art read failed: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no embedded art in %s", path)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("embedded art decode failed: %w", err)
	}
	return img, nil
}

// loadCoverFile decodes a cover image from disk, preferring the vips path
// when the library is initialized.
func loadCoverFile(path string) (image.Image, error) {
	if IsVipsAvailable() {
		img, err := loadImageWithVips(path, 200, 200)
		if err == nil {
			return img, nil
		}
		logging.Debug("thumbs: vips load failed for %s: %v, falling back", path, err)
	}
	return imaging.Open(path, imaging.AutoOrientation(true))
}

// grabVideoFrame extracts a single frame one second into the video. Clips
// shorter than a second get a second attempt from the start.
func grabVideoFrame(path string) (image.Image, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	cmd := exec.Command("ffmpeg",
		"-i", path,
		"-ss", "00:00:01",
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logging.Debug("thumbs: ffmpeg first attempt failed for %s: %v, stderr: %s", path, err, stderr.String())

		cmd = exec.Command("ffmpeg",
			"-i", path,
			"-vframes", "1",
			"-f", "image2pipe",
			"-vcodec", "png",
			"-",
		)
		stdout.Reset()
		stderr.Reset()
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, stderr.String())
		}
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", path)
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}
