package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig controls gzip compression of API responses.
type CompressionConfig struct {
	// MinSize is the smallest body, in bytes, worth compressing. Anything
	// shorter ships uncompressed; the gzip header overhead would eat the
	// savings.
	MinSize int

	Level int

	// Types lists the content types eligible for compression. Thumbnails
	// are JPEG and never belong here.
	Types []string
}

// DefaultCompressionConfig targets the JSON listing endpoints, whose
// repetitive entity fields compress heavily. A full song listing shrinks
// by an order of magnitude.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
		Types: []string{
			"application/json",
			"text/plain",
			"text/html",
			"text/xml",
			"application/xml",
		},
	}
}

var gzipPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

// compressWriter defers the compress-or-not decision until MinSize bytes
// have been buffered or the handler returns, whichever comes first. The
// decision needs both the body length and the Content-Type, and neither
// is known when the handler starts writing.
type compressWriter struct {
	http.ResponseWriter
	cfg     CompressionConfig
	gz      *gzip.Writer
	buf     []byte
	status  int
	decided bool
	usegzip bool
}

func newCompressWriter(w http.ResponseWriter, cfg CompressionConfig) *compressWriter {
	return &compressWriter{
		ResponseWriter: w,
		cfg:            cfg,
		status:         http.StatusOK,
		buf:            make([]byte, 0, cfg.MinSize+1),
	}
}

// WriteHeader holds the status until the compression decision lands,
// since Content-Encoding must be set first.
func (c *compressWriter) WriteHeader(status int) {
	if c.decided {
		return
	}
	c.status = status
}

func (c *compressWriter) Write(data []byte) (int, error) {
	if c.decided {
		if c.usegzip {
			return c.gz.Write(data)
		}
		return c.ResponseWriter.Write(data)
	}

	c.buf = append(c.buf, data...)
	if len(c.buf) > c.cfg.MinSize {
		c.decide()
	}
	return len(data), nil
}

// decide commits to a wire format and drains the buffer.
func (c *compressWriter) decide() {
	if c.decided {
		return
	}
	c.decided = true
	c.usegzip = len(c.buf) >= c.cfg.MinSize && c.compressible()

	if c.usegzip {
		// Content-Length no longer matches the compressed body.
		c.Header().Del("Content-Length")
		c.Header().Set("Content-Encoding", "gzip")
		c.Header().Add("Vary", "Accept-Encoding")

		c.gz = gzipPool.Get().(*gzip.Writer)
		c.gz.Reset(c.ResponseWriter)
		c.ResponseWriter.WriteHeader(c.status)
		c.gz.Write(c.buf)
	} else {
		c.ResponseWriter.WriteHeader(c.status)
		c.ResponseWriter.Write(c.buf)
	}
	c.buf = nil
}

func (c *compressWriter) compressible() bool {
	contentType := c.Header().Get("Content-Type")
	if contentType == "" {
		return false
	}
	// Strip parameters like "; charset=utf-8".
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	for _, t := range c.cfg.Types {
		if mediaType == t {
			return true
		}
	}
	return false
}

// Close flushes any undecided buffer and returns the gzip writer to the
// pool. Always called, even for empty responses.
func (c *compressWriter) Close() error {
	if !c.decided {
		c.decide()
	}
	if c.gz != nil {
		err := c.gz.Close()
		gzipPool.Put(c.gz)
		c.gz = nil
		return err
	}
	return nil
}

func (c *compressWriter) Flush() {
	if !c.decided {
		c.decide()
	}
	if c.gz != nil {
		c.gz.Flush()
	}
	if f, ok := c.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Compression returns a middleware that gzips eligible responses for
// clients that advertise support.
func Compression(cfg CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			cw := newCompressWriter(w, cfg)
			defer cw.Close()
			next.ServeHTTP(cw, r)
		})
	}
}
