package adminhttp

import (
	"compress/gzip"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kstepanov/bombardier/internal/logger"
)

// responseWriter wraps http.ResponseWriter to capture the status code and
// byte count WithLogging needs after the handler has already written the
// response.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// WithLogging logs method, path, status, size, and duration for every
// admin request, in the teacher's request-logging idiom
// (serg2014-go-musthave-diploma/internal/app/handler.go installs
// logger.WithLogging first in its middleware chain; that package itself
// was not present in the retrieved teacher tree, so this reimplements it
// in the same style against our own zap logger).
func WithLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w}

		h.ServeHTTP(rw, r)

		logger.Log.Info("adminhttp: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.status),
			zap.Int("size", rw.size),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// gzipMiddleware compresses admin responses when the client advertises
// gzip support, adapted from the teacher's gzip.go (request-body
// decompression is dropped: every admin request body here is a small
// StartParams JSON object, never gzip-encoded by any caller we target).
func gzipMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acceptEncoding := strings.Split(r.Header.Get("Accept-Encoding"), ",")
		if slices.ContainsFunc(acceptEncoding, func(e string) bool { return strings.TrimSpace(e) == "gzip" }) {
			cw := newCompressWriter(w)
			defer cw.Close()
			w = cw
		}
		h.ServeHTTP(w, r)
	})
}

// compressWriter gzips only 2xx responses; any other status is written
// through uncompressed, matching the Content-Encoding it advertises.
type compressWriter struct {
	w           http.ResponseWriter
	zw          *gzip.Writer
	compress    bool
	wroteHeader bool
}

func newCompressWriter(w http.ResponseWriter) *compressWriter {
	return &compressWriter{w: w, zw: gzip.NewWriter(w)}
}

func (w *compressWriter) Header() http.Header { return w.w.Header() }

func (w *compressWriter) Write(buf []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if !w.compress {
		return w.w.Write(buf)
	}
	return w.zw.Write(buf)
}

func (w *compressWriter) WriteHeader(statusCode int) {
	w.wroteHeader = true
	if statusCode < 300 && statusCode >= 200 {
		w.w.Header().Set("Content-Encoding", "gzip")
		w.compress = true
	}
	w.w.WriteHeader(statusCode)
}

func (w *compressWriter) Close() error {
	if !w.compress {
		return nil
	}
	return w.zw.Close()
}

var _ io.Writer = (*compressWriter)(nil)
