package gateway

import (
	"net/http"
	"time"

	"github.com/functionland/fula-gateway/internal/s3xml"
)

// handleListBuckets implements GET "/".
func (s *State) handleListBuckets(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	buckets := s.Buckets.ListBucketsForUser(session.HashedUserID)

	result := s3xml.ListAllMyBucketsResult{
		Xmlns: s3xml.Namespace,
		Owner: s3xml.Owner{ID: session.HashedUserID, DisplayName: session.DisplayName},
	}
	for _, b := range buckets {
		result.Buckets.Bucket = append(result.Buckets.Bucket, s3xml.Bucket{
			Name:         b.Name,
			CreationDate: s3xml.Time{Time: b.CreatedAt},
		})
	}
	writeXML(w, http.StatusOK, result)
}

// handleHealthCheck implements HEAD "/", a lightweight liveness probe
// scoped to the authenticated session.
func (s *State) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// HealthzHandler implements GET "/healthz": the one endpoint that lives
// outside the private subtree and bypasses auth entirely.
func (s *State) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok " + time.Now().UTC().Format(time.RFC3339) + "\n"))
}
