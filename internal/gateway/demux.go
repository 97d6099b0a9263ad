package gateway

import (
	"net/http"
	"strings"

	"github.com/functionland/fula-gateway/internal/gwerror"
)

// ServeHTTP implements a deterministic decision procedure over
// method+path+query: a single routing table cannot express S3's URL
// grammar, because many operations share method+path and differ only
// by query-string presence. This mirrors gofakes3's own manual
// method-switch dispatch (its routeBase) rather than reaching for a
// router framework, which none of the S3-shaped services this gateway
// draws on use for this exact problem.
func (s *State) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	if path == "" {
		path = "/"
	}
	q := r.URL.Query()

	if path == "/" {
		switch r.Method {
		case http.MethodGet:
			s.handleListBuckets(w, r)
		case http.MethodHead:
			s.handleHealthCheck(w, r)
		default:
			writeError(w, r, gwerror.New(gwerror.MethodNotAllowed, "method not allowed on service endpoint"))
		}
		return
	}

	bucket, key, hasKey := splitBucketKey(path)

	if !hasKey {
		switch r.Method {
		case http.MethodPut:
			s.handleCreateBucket(w, r, bucket)
		case http.MethodDelete:
			s.handleDeleteBucket(w, r, bucket)
		case http.MethodHead:
			s.handleHeadBucket(w, r, bucket)
		case http.MethodGet:
			switch {
			case q.Has("uploads"):
				s.handleListMultipartUploads(w, r, bucket)
			case q.Has("location"):
				s.handleGetBucketLocation(w, r, bucket)
			default:
				s.handleListObjectsV2(w, r, bucket)
			}
		case http.MethodPost:
			if q.Has("delete") {
				writeError(w, r, gwerror.New(gwerror.NotImplemented, "batch delete is not implemented"))
				return
			}
			writeError(w, r, gwerror.New(gwerror.InvalidRequest, "unsupported bucket-level POST"))
		default:
			writeError(w, r, gwerror.New(gwerror.MethodNotAllowed, "method not allowed on bucket endpoint"))
		}
		return
	}

	switch r.Method {
	case http.MethodPut:
		switch {
		case q.Has("partNumber") && q.Has("uploadId"):
			s.handleUploadPart(w, r, bucket, key)
		case r.Header.Get("x-amz-copy-source") != "":
			s.handleCopyObject(w, r, bucket, key)
		default:
			s.handlePutObject(w, r, bucket, key)
		}
	case http.MethodGet:
		switch {
		case q.Has("uploadId"):
			s.handleListParts(w, r, bucket, key)
		default:
			s.handleGetObject(w, r, bucket, key)
		}
	case http.MethodHead:
		s.handleHeadObject(w, r, bucket, key)
	case http.MethodDelete:
		switch {
		case q.Has("uploadId"):
			s.handleAbortMultipartUpload(w, r, bucket, key)
		default:
			s.handleDeleteObject(w, r, bucket, key)
		}
	case http.MethodPost:
		switch {
		case q.Has("uploads"):
			s.handleCreateMultipartUpload(w, r, bucket, key)
		case q.Has("uploadId"):
			s.handleCompleteMultipartUpload(w, r, bucket, key)
		default:
			writeError(w, r, gwerror.New(gwerror.InvalidRequest, "unsupported object-level POST"))
		}
	default:
		writeError(w, r, gwerror.New(gwerror.MethodNotAllowed, "method not allowed on object endpoint"))
	}
}

// splitBucketKey splits a request path of the form "/bucket" or
// "/bucket/key…" (keys may themselves contain slashes) into its bucket
// and key components.
func splitBucketKey(path string) (bucket, key string, hasKey bool) {
	trimmed := strings.TrimPrefix(path, "/")
	idx := strings.Index(trimmed, "/")
	if idx < 0 {
		return trimmed, "", false
	}
	return trimmed[:idx], trimmed[idx+1:], true
}
