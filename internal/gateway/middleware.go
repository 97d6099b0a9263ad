package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"

	"github.com/functionland/fula-gateway/internal/gwlog"
)

type requestIDKeyType struct{}

var requestIDKey requestIDKeyType

// requestIDMiddleware attaches a UUID v4 to every response as
// x-amz-request-id.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("x-amz-request-id", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// statusRecorder captures the status code a handler wrote so the
// logging middleware can report it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware records method, URI, status, and elapsed time for
// every request.
func loggingMiddleware(log gwlog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.WithField("method", r.Method).
				WithField("uri", r.RequestURI).
				WithField("status", rec.status).
				WithField("elapsed_ms", time.Since(start).Milliseconds()).
				Print(gwlog.LevelInfo, "request handled")
		})
	}
}

// corsMiddleware wraps next with gorilla/handlers.CORS configured
// permissively: any origin, the fixed method set, any headers, any
// exposed headers.
func corsMiddleware(next http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPut, http.MethodPost,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{"*"}),
		handlers.ExposedHeaders([]string{"*"}),
	)(next)
}

// bodySizeLimitMiddleware enforces max_body_size on every request,
// inside CORS and trace but ahead of the mux, before any handler reads
// the body.
func bodySizeLimitMiddleware(maxBodySize int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
			next.ServeHTTP(w, r)
		})
	}
}
