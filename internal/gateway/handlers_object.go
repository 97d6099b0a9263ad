package gateway

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/functionland/fula-gateway/internal/bucketmgr"
	"github.com/functionland/fula-gateway/internal/gwerror"
	"github.com/functionland/fula-gateway/internal/s3xml"
)

// handlePutObject implements PUT "/{bucket}/{key…}".
func (s *State) handlePutObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	session := sessionFromContext(r.Context())
	h, err := s.Buckets.OpenBucketForUser(r.Context(), session.HashedUserID, bucket)
	if err != nil {
		writeError(w, r, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, gwerror.New(gwerror.RequestTimeout, "failed to read request body"))
		return
	}
	body = maybeDecodeChunked(r, body)

	meta := bucketmgr.ObjectMetadata{
		ContentType:        r.Header.Get("Content-Type"),
		ContentEncoding:    r.Header.Get("Content-Encoding"),
		ContentDisposition: r.Header.Get("Content-Disposition"),
		CacheControl:       r.Header.Get("Cache-Control"),
		UserMetadata:       collectUserMetadata(r.Header),
		OwnerID:            session.HashedUserID,
	}

	stored, err := h.PutObject(r.Context(), key, body, meta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stored.ETag = stored.CID
	h.PutObjectMeta(key, stored)

	s.doFlushAndPersist(r.Context(), h, bucket)

	w.Header().Set("ETag", s3xml.Quote(stored.CID))
	w.Header().Set("X-Fula-Content-Cid", stored.CID)
	w.WriteHeader(http.StatusOK)
}

// handleGetObject implements GET "/{bucket}/{key…}".
func (s *State) handleGetObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	session := sessionFromContext(r.Context())
	h, err := s.Buckets.OpenBucketForUser(r.Context(), session.HashedUserID, bucket)
	if err != nil {
		writeError(w, r, err)
		return
	}

	meta, err := h.GetObjectMeta(key)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if evaluateConditionalGet(r, meta.ETag, meta.LastModified) {
		writeConditionalHeaders(w, meta)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	data, err := s.Store.GetBlock(r.Context(), meta.CID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeObjectHeaders(w, meta)

	if rangeHeader := r.Header.Get("Range"); rangeHeader != "" {
		if br, ok := parseRange(rangeHeader, int64(len(data))); ok {
			w.Header().Set("Content-Range", br.ContentRangeHeader(int64(len(data))))
			w.Header().Set("Content-Length", strconv.FormatInt(br.Len(), 10))
			w.WriteHeader(http.StatusPartialContent)
			w.Write(data[br.Start : br.End+1])
			return
		}
	}

	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleHeadObject implements HEAD "/{bucket}/{key…}": identical
// headers to GetObject with an empty body.
func (s *State) handleHeadObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	session := sessionFromContext(r.Context())
	h, err := s.Buckets.OpenBucketForUser(r.Context(), session.HashedUserID, bucket)
	if err != nil {
		writeError(w, r, err)
		return
	}
	meta, err := h.GetObjectMeta(key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeObjectHeaders(w, meta)
	w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	w.WriteHeader(http.StatusOK)
}

// handleDeleteObject implements DELETE "/{bucket}/{key…}": deleting a
// key that does not exist still returns 204, not an error.
func (s *State) handleDeleteObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	session := sessionFromContext(r.Context())
	h, err := s.Buckets.OpenBucketForUser(r.Context(), session.HashedUserID, bucket)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.DeleteObject(key)
	s.doFlushAndPersist(r.Context(), h, bucket)
	w.WriteHeader(http.StatusNoContent)
}

// handleCopyObject implements PUT "/{bucket}/{key…}" carrying an
// x-amz-copy-source header. Copies never cross namespaces: the source
// is read from the caller's own session.
func (s *State) handleCopyObject(w http.ResponseWriter, r *http.Request, destBucket, destKey string) {
	session := sessionFromContext(r.Context())

	srcBucket, srcKey, err := parseCopySource(r.Header.Get("x-amz-copy-source"))
	if err != nil {
		writeError(w, r, gwerror.New(gwerror.InvalidArgument, "malformed x-amz-copy-source header"))
		return
	}

	srcHandle, err := s.Buckets.OpenBucketForUser(r.Context(), session.HashedUserID, srcBucket)
	if err != nil {
		writeError(w, r, err)
		return
	}
	srcMeta, err := srcHandle.GetObjectMeta(srcKey)
	if err != nil {
		writeError(w, r, err)
		return
	}

	destHandle, err := s.Buckets.OpenBucketForUser(r.Context(), session.HashedUserID, destBucket)
	if err != nil {
		writeError(w, r, err)
		return
	}

	copied := srcMeta.Clone()
	copied.LastModified = time.Now().UTC()
	copied.OwnerID = session.HashedUserID
	destHandle.PutObjectMeta(destKey, copied)

	s.doFlushAndPersist(r.Context(), destHandle, destBucket)

	writeXML(w, http.StatusOK, s3xml.CopyObjectResult{
		Xmlns:        s3xml.Namespace,
		LastModified: s3xml.Time{Time: copied.LastModified},
		ETag:         s3xml.Quote(copied.ETag),
	})
}

// parseCopySource splits the x-amz-copy-source header into bucket and
// key, accepting both a leading-slash and bare form.
func parseCopySource(header string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(header, "/")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", gwerror.New(gwerror.InvalidArgument, "malformed x-amz-copy-source header")
	}
	return parts[0], parts[1], nil
}

// writeObjectHeaders writes the full header set GetObject/HeadObject
// share.
func writeObjectHeaders(w http.ResponseWriter, meta bucketmgr.ObjectMetadata) {
	w.Header().Set("ETag", s3xml.Quote(meta.ETag))
	w.Header().Set("Last-Modified", httpTimeFormat(meta.LastModified))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("X-Fula-Content-Cid", meta.CID)
	if meta.ContentType != "" {
		w.Header().Set("Content-Type", meta.ContentType)
	}
	if meta.ContentEncoding != "" {
		w.Header().Set("Content-Encoding", meta.ContentEncoding)
	}
	if meta.ContentDisposition != "" {
		w.Header().Set("Content-Disposition", meta.ContentDisposition)
	}
	if meta.CacheControl != "" {
		w.Header().Set("Cache-Control", meta.CacheControl)
	}
	if meta.VersionID != "" {
		w.Header().Set("x-amz-version-id", meta.VersionID)
	}
	applyUserMetadataHeaders(w, meta.UserMetadata)
}

func writeConditionalHeaders(w http.ResponseWriter, meta bucketmgr.ObjectMetadata) {
	w.Header().Set("ETag", s3xml.Quote(meta.ETag))
	w.Header().Set("Last-Modified", httpTimeFormat(meta.LastModified))
}
