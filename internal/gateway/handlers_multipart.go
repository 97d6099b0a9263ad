package gateway

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/functionland/fula-gateway/internal/bucketmgr"
	"github.com/functionland/fula-gateway/internal/gwerror"
	"github.com/functionland/fula-gateway/internal/multipart"
	"github.com/functionland/fula-gateway/internal/s3xml"
)

// handleCreateMultipartUpload implements POST "/{bucket}/{key…}?uploads".
func (s *State) handleCreateMultipartUpload(w http.ResponseWriter, r *http.Request, bucket, key string) {
	session := sessionFromContext(r.Context())
	if !s.Buckets.BucketExistsForUser(session.HashedUserID, bucket) {
		writeError(w, r, gwerror.New(gwerror.NoSuchBucket, "the specified bucket does not exist"))
		return
	}

	meta := collectUserMetadata(r.Header)
	upload := s.Multipart.CreateWithMetadata(bucket, key, session.HashedUserID, r.Header.Get("Content-Type"), meta)

	writeXML(w, http.StatusOK, s3xml.InitiateMultipartUploadResult{
		Xmlns:    s3xml.Namespace,
		Bucket:   bucket,
		Key:      key,
		UploadID: upload.UploadID,
	})
}

// handleUploadPart implements PUT "/{bucket}/{key…}?partNumber=N&uploadId=X".
func (s *State) handleUploadPart(w http.ResponseWriter, r *http.Request, bucket, key string) {
	uploadID := r.URL.Query().Get("uploadId")
	partNumber, err := strconv.Atoi(r.URL.Query().Get("partNumber"))
	if err != nil {
		writeError(w, r, gwerror.New(gwerror.InvalidArgument, "partNumber must be an integer"))
		return
	}

	upload, err := s.Multipart.Get(uploadID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := multipart.CheckBucketKey(upload, bucket, key); err != nil {
		writeError(w, r, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, gwerror.New(gwerror.RequestTimeout, "failed to read request body"))
		return
	}
	body = maybeDecodeChunked(r, body)

	cid, err := s.Store.PutBlock(r.Context(), body)
	if err != nil {
		writeError(w, r, gwerror.New(gwerror.InternalError, "internal error"))
		return
	}

	if err := s.Multipart.AddPart(uploadID, multipart.UploadPart{
		PartNumber: partNumber,
		ETag:       cid,
		Size:       int64(len(body)),
		CID:        cid,
		UploadedAt: time.Now().UTC(),
	}); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("ETag", s3xml.Quote(cid))
	w.WriteHeader(http.StatusOK)
}

// handleCompleteMultipartUpload implements POST "/{bucket}/{key…}?uploadId=X".
func (s *State) handleCompleteMultipartUpload(w http.ResponseWriter, r *http.Request, bucket, key string) {
	session := sessionFromContext(r.Context())
	uploadID := r.URL.Query().Get("uploadId")

	upload, err := s.Multipart.Get(uploadID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := multipart.CheckBucketKey(upload, bucket, key); err != nil {
		writeError(w, r, err)
		return
	}

	completed, err := s.Multipart.Complete(uploadID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := multipart.Assemble(r.Context(), s.Store, completed)
	if err != nil {
		writeError(w, r, gwerror.New(gwerror.InternalError, "internal error"))
		return
	}

	h, err := s.Buckets.OpenBucketForUser(r.Context(), session.HashedUserID, bucket)
	if err != nil {
		writeError(w, r, err)
		return
	}

	meta := bucketmgr.ObjectMetadata{
		CID:          result.CID,
		Size:         result.TotalSize,
		ETag:         result.ETag,
		ContentType:  completed.ContentType,
		UserMetadata: completed.UserMetadata,
		OwnerID:      session.HashedUserID,
	}
	h.PutObjectMeta(key, meta)
	s.doFlushAndPersist(r.Context(), h, bucket)

	w.Header().Set("X-Fula-Content-Cid", result.CID)
	writeXML(w, http.StatusOK, s3xml.CompleteMultipartUploadResult{
		Xmlns:  s3xml.Namespace,
		Bucket: bucket,
		Key:    key,
		ETag:   s3xml.Quote(result.ETag),
	})
}

// handleAbortMultipartUpload implements DELETE "/{bucket}/{key…}?uploadId=X".
// Part data already written to the block store is not explicitly
// unpinned; it becomes eligible for external garbage collection.
func (s *State) handleAbortMultipartUpload(w http.ResponseWriter, r *http.Request, bucket, key string) {
	uploadID := r.URL.Query().Get("uploadId")

	upload, err := s.Multipart.Get(uploadID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := multipart.CheckBucketKey(upload, bucket, key); err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := s.Multipart.Abort(uploadID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListParts implements GET "/{bucket}/{key…}?uploadId=X".
func (s *State) handleListParts(w http.ResponseWriter, r *http.Request, bucket, key string) {
	uploadID := r.URL.Query().Get("uploadId")

	upload, err := s.Multipart.Get(uploadID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := multipart.CheckBucketKey(upload, bucket, key); err != nil {
		writeError(w, r, err)
		return
	}

	parts, err := s.Multipart.ListParts(uploadID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result := s3xml.ListPartsResult{Xmlns: s3xml.Namespace, Bucket: bucket, Key: key, UploadID: uploadID, MaxParts: multipart.MaxPartNumber}
	for _, p := range parts {
		result.Part = append(result.Part, s3xml.Part{
			PartNumber:   p.PartNumber,
			LastModified: s3xml.Time{Time: p.UploadedAt},
			ETag:         s3xml.Quote(p.ETag),
			Size:         p.Size,
		})
	}
	writeXML(w, http.StatusOK, result)
}

// handleListMultipartUploads implements GET "/{bucket}?uploads".
func (s *State) handleListMultipartUploads(w http.ResponseWriter, r *http.Request, bucket string) {
	session := sessionFromContext(r.Context())
	if !s.Buckets.BucketExistsForUser(session.HashedUserID, bucket) {
		writeError(w, r, gwerror.New(gwerror.NoSuchBucket, "the specified bucket does not exist"))
		return
	}

	uploads := s.Multipart.ListByBucket(bucket)
	result := s3xml.ListMultipartUploadsResult{Xmlns: s3xml.Namespace, Bucket: bucket}
	for _, u := range uploads {
		result.Upload = append(result.Upload, s3xml.Upload{
			Key:          u.Key,
			UploadID:     u.UploadID,
			Initiator:    s3xml.Owner{ID: u.OwnerID},
			Owner:        s3xml.Owner{ID: u.OwnerID},
			Initiated:    s3xml.Time{Time: u.CreatedAt},
			StorageClass: string(bucketmgr.StorageStandard),
		})
	}
	writeXML(w, http.StatusOK, result)
}
