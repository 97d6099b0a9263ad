package gateway

import (
	"net/http"

	"github.com/functionland/fula-gateway/internal/gwlog"
)

// traceMiddleware is the second per-request hook in the chain,
// sitting between CORS and the body-size limit. It carries no state today
// beyond a debug-level log line; it is the seam a future distributed
// tracer would attach to.
func traceMiddleware(log gwlog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.WithField("method", r.Method).WithField("path", r.URL.Path).Print(gwlog.LevelDebug, "request received")
			next.ServeHTTP(w, r)
		})
	}
}

// Server assembles the full middleware chain, outermost first: CORS,
// trace, body-size limit, then on the private
// subtree — request-id, logging, auth. The health endpoint lives
// outside the private subtree entirely.
func (s *State) Server() http.Handler {
	private := http.Handler(s)
	private = s.authMiddleware(private)
	private = loggingMiddleware(s.Log)(private)
	private = requestIDMiddleware(private)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.HealthzHandler)
	mux.Handle("/", private)

	var handler http.Handler = mux
	handler = bodySizeLimitMiddleware(s.Config.MaxBodySize)(handler)
	handler = traceMiddleware(s.Log)(handler)
	handler = corsMiddleware(handler)
	return handler
}
