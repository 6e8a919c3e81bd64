package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lumipallolabs/storviz/internal/logging"
)

const requestHeader = "X-Request-Id"

// logResponseWriter records the status and size of a response
type logResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *logResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	size, err := w.ResponseWriter.Write(b)
	w.size += size
	return size, err
}

func (w *logResponseWriter) WriteHeader(s int) {
	w.ResponseWriter.WriteHeader(s)
	w.status = s
}

// Flush lets streaming handlers push partial responses
func (w *logResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

type logHandler struct {
	next http.Handler
}

func newLogMiddleware(next http.Handler) *logHandler {
	return &logHandler{next: next}
}

func (h *logHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	rid := uuid.NewString()
	w.Header().Set(requestHeader, rid)

	logw := &logResponseWriter{ResponseWriter: w}
	h.next.ServeHTTP(logw, r)

	logging.API.Debug().
		Str("rid", rid).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", logw.status).
		Int("size", logw.size).
		Dur("duration", time.Since(start)).
		Msg("request")
}
