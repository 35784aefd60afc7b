// Package middleware provides HTTP middleware for the form server.
package middleware

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/form1099/internal/logging"
)

// Logger logs one structured entry per request after it completes.
//
// Log fields:
//   - method, path: the request line
//   - status: response status code
//   - bytes: response body size
//   - duration_ms: processing time in milliseconds
//   - ip: client address as rewritten by TrustedRealIP
//
// request_id and user_id are attached by logging.FromContext, so Logger
// must run inside chi's RequestID. The user is read back from the
// response writer because Authenticate runs further down the chain.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		logger := logging.FromContext(r.Context())
		if ww.userID != "" {
			logger = logger.With("user_id", ww.userID)
		}

		level := logger.Info
		if ww.status >= http.StatusInternalServerError {
			level = logger.Error
		}
		level("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"bytes", ww.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
		)
	})
}

// responseWriter captures the status code and body size.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	userID      string
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// userRecorder is implemented by responseWriter so Authenticate can
// report the resolved user back to Logger.
type userRecorder interface {
	recordUser(string)
}

func (w *responseWriter) recordUser(id string) { w.userID = id }
