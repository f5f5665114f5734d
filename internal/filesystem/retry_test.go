package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestVolumeResolver(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{
		"music":    "/srv/music",
		"video":    "/srv/video",
		"cache":    "/srv/cache",
		"database": "/srv/cache/db",
	})

	tests := []struct {
		path string
		want string
	}{
		{"/srv/music/artist/album/01.flac", "music"},
		{"/srv/video/movie.mkv", "video"},
		{"/srv/cache/thumbs/a.jpg", "cache"},
		{"/srv/cache/db/catalog.db", "database"}, // longest prefix wins
		{"/etc/passwd", "unknown"},
	}

	for _, tt := range tests {
		if got := vr.Resolve(tt.path); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestVolumeResolverNil(t *testing.T) {
	var vr *VolumeResolver
	if got := vr.Resolve("/anything"); got != "unknown" {
		t.Errorf("nil resolver Resolve() = %q, want unknown", got)
	}
}

func TestIsNFSStaleError(t *testing.T) {
	if isNFSStaleError(nil) {
		t.Error("nil error reported as stale")
	}
	if isNFSStaleError(os.ErrNotExist) {
		t.Error("ErrNotExist reported as stale")
	}
	if !isNFSStaleError(syscall.ESTALE) {
		t.Error("ESTALE not reported as stale")
	}
	wrapped := &os.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}
	if !isNFSStaleError(wrapped) {
		t.Error("wrapped ESTALE not reported as stale")
	}
}

func TestStatWithRetrySuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultRetryConfig()
	cfg.VolumeResolver = NewVolumeResolver(map[string]string{"cache": dir})

	info, err := StatWithRetry(path, cfg)
	if err != nil {
		t.Fatalf("StatWithRetry() error: %v", err)
	}
	if info.Size() != 1 {
		t.Errorf("unexpected size %d", info.Size())
	}
}

func TestStatWithRetryNonRetryableError(t *testing.T) {
	dir := t.TempDir()
	cfg := RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		VolumeResolver: NewVolumeResolver(map[string]string{"cache": dir}),
	}

	start := time.Now()
	_, err := StatWithRetry(filepath.Join(dir, "missing"), cfg)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
	// Non-stale errors must not trigger the backoff loop.
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("non-retryable error took %v, retry loop suspected", elapsed)
	}
}

func TestReadDirWithRetry(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mp3", "b.mp3"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	cfg := DefaultRetryConfig()
	cfg.VolumeResolver = NewVolumeResolver(map[string]string{"music": dir})

	entries, err := ReadDirWithRetry(dir, cfg)
	if err != nil {
		t.Fatalf("ReadDirWithRetry() error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}
