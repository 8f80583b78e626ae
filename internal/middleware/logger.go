package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxBodyPreview bounds the request body preview logged for mutating requests.
const maxBodyPreview = 150

// statusRecorder captures the response status code for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logger logs each request with method, path, status and duration. For
// mutating requests a short body preview is included at debug level.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		var preview string
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyPreview+1))
			if err == nil {
				remainder, _ := io.ReadAll(r.Body)
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), bytes.NewReader(remainder)))
				if len(body) > maxBodyPreview {
					preview = string(body[:maxBodyPreview]) + "..."
				} else {
					preview = string(body)
				}
			}
		}

		next.ServeHTTP(rec, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		slog.Info("request", attrs...)
		if preview != "" {
			slog.Debug("request body", "method", r.Method, "path", r.URL.Path, "body", preview)
		}
	})
}
