package gateway

import (
	"net/http"
	"strconv"

	"github.com/functionland/fula-gateway/internal/bucketmgr"
	"github.com/functionland/fula-gateway/internal/gwerror"
	"github.com/functionland/fula-gateway/internal/s3xml"
)

// handleCreateBucket implements PUT "/{bucket}".
// Persist failure after a successful create is logged, never returned
// to the caller — the in-memory registry stays authoritative and a
// later mutation will persist it.
func (s *State) handleCreateBucket(w http.ResponseWriter, r *http.Request, bucket string) {
	session := sessionFromContext(r.Context())
	owner := bucketmgr.Owner{ID: session.HashedUserID, DisplayName: session.DisplayName}

	if err := s.Buckets.CreateBucketForUser(session.HashedUserID, bucket, owner); err != nil {
		writeError(w, r, err)
		return
	}
	s.persistBestEffort(r.Context())

	w.Header().Set("Location", "/"+bucket)
	w.WriteHeader(http.StatusOK)
}

// handleDeleteBucket implements DELETE "/{bucket}".
func (s *State) handleDeleteBucket(w http.ResponseWriter, r *http.Request, bucket string) {
	session := sessionFromContext(r.Context())
	if err := s.Buckets.DeleteBucketForUser(session.HashedUserID, bucket); err != nil {
		writeError(w, r, err)
		return
	}
	s.persistBestEffort(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// handleHeadBucket implements HEAD "/{bucket}".
func (s *State) handleHeadBucket(w http.ResponseWriter, r *http.Request, bucket string) {
	session := sessionFromContext(r.Context())
	if !s.Buckets.BucketExistsForUser(session.HashedUserID, bucket) {
		writeError(w, r, gwerror.New(gwerror.NoSuchBucket, "the specified bucket does not exist"))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleGetBucketLocation implements GET "/{bucket}?location": a fixed
// empty LocationConstraint, since this gateway has no notion of
// region.
func (s *State) handleGetBucketLocation(w http.ResponseWriter, r *http.Request, bucket string) {
	session := sessionFromContext(r.Context())
	if !s.Buckets.BucketExistsForUser(session.HashedUserID, bucket) {
		writeError(w, r, gwerror.New(gwerror.NoSuchBucket, "the specified bucket does not exist"))
		return
	}
	writeXML(w, http.StatusOK, s3xml.LocationConstraint{Xmlns: s3xml.Namespace})
}

// handleListObjectsV2 implements GET "/{bucket}". The effective cursor
// is start-after if present, else continuation-token.
func (s *State) handleListObjectsV2(w http.ResponseWriter, r *http.Request, bucket string) {
	session := sessionFromContext(r.Context())
	h, err := s.Buckets.OpenBucketForUser(r.Context(), session.HashedUserID, bucket)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	prefix := q.Get("prefix")
	delimiter := q.Get("delimiter")
	continuationToken := q.Get("continuation-token")
	startAfter := q.Get("start-after")

	cursor := continuationToken
	if startAfter != "" {
		cursor = startAfter
	}

	maxKeys := 1000
	if raw := q.Get("max-keys"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			maxKeys = n
		}
	}

	listing := h.ListObjects(prefix, delimiter, cursor, maxKeys)

	result := s3xml.ListBucketResult{
		Xmlns:              s3xml.Namespace,
		Name:               bucket,
		Prefix:             prefix,
		Delimiter:          delimiter,
		MaxKeys:            maxKeys,
		KeyCount:           len(listing.Contents) + len(listing.CommonPrefixes),
		IsTruncated:        listing.IsTruncated,
		ContinuationToken:  continuationToken,
		NextContinuationToken: listing.NextMarker,
		StartAfter:         startAfter,
	}

	fetchOwner := q.Get("fetch-owner") == "true"
	for _, entry := range listing.Contents {
		c := s3xml.Content{
			Key:          entry.Key,
			LastModified: s3xml.Time{Time: entry.Meta.LastModified},
			ETag:         s3xml.Quote(entry.Meta.ETag),
			Size:         entry.Meta.Size,
			StorageClass: entry.Meta.StorageClass.String(),
		}
		if fetchOwner {
			c.Owner = &s3xml.Owner{ID: entry.Meta.OwnerID}
		}
		result.Contents = append(result.Contents, c)
	}
	for _, p := range listing.CommonPrefixes {
		result.CommonPrefixes = append(result.CommonPrefixes, s3xml.CommonPrefix{Prefix: p})
	}

	writeXML(w, http.StatusOK, result)
}
