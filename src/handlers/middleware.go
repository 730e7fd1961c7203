package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/username/inversiones/src/logger"
)

const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// RequestLoggingMiddleware tags every request with an ID, stores a request
// logger in the context and logs the outcome.
func RequestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		reqLogger := logger.L.With("requestID", requestID, "method", r.Method, "path", r.URL.Path)
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(logger.WithContext(r.Context(), reqLogger)))

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		reqLogger.Info("Request handled",
			"status", rec.status,
			"bytes", rec.bytes,
			"remoteAddr", r.RemoteAddr,
			"duration", time.Since(start))
	})
}
