package middleware

import (
	"context"
	"net/http"
	"time"

	"bot-panel/internal/logger"
	"bot-panel/internal/utils"
)

const RequestIDHeader = "X-Request-ID"

// unexported, collision-proof context key
type requestIDContextKeyType struct{}

var requestIDKey = requestIDContextKeyType{}

// RequestIDFromContext returns the id assigned by RequestLogger.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

type statusWriter interface {
	Status() int
}

type recorder struct {
	http.ResponseWriter
	status int
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Status() int { return r.status }

// RequestLogger tags every request with an id and logs it once served.
// Health checks are logged at debug level only.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = utils.RandomString(8)
		}
		w.Header().Set(RequestIDHeader, id)

		sw, ok := w.(statusWriter)
		if !ok {
			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			w, sw = rec, rec
		}

		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))

		fields := map[string]any{
			"request_id":  id,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      sw.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if r.URL.Path == "/health" {
			logger.Debug("http request", fields)
			return
		}
		logger.Info("http request", fields)
	})
}
