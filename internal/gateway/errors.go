package gateway

import (
	"errors"
	"net/http"

	"github.com/functionland/fula-gateway/internal/blockstore"
	"github.com/functionland/fula-gateway/internal/bucketmgr"
	"github.com/functionland/fula-gateway/internal/gwerror"
	"github.com/functionland/fula-gateway/internal/multipart"
	"github.com/functionland/fula-gateway/internal/s3xml"
)

// mapCollaboratorError implements the error-propagation policy: a
// narrow, explicit set of collaborator errors become specific S3
// codes; everything else becomes InternalError without leaking the
// underlying message.
func mapCollaboratorError(err error) *gwerror.Error {
	var gerr *gwerror.Error
	if errors.As(err, &gerr) {
		return gerr
	}

	switch {
	case errors.Is(err, bucketmgr.ErrNoSuchBucket):
		return gwerror.New(gwerror.NoSuchBucket, "the specified bucket does not exist")
	case errors.Is(err, bucketmgr.ErrBucketAlreadyExists):
		return gwerror.New(gwerror.BucketAlreadyExists, "the requested bucket name is not available")
	case errors.Is(err, bucketmgr.ErrInvalidBucketName):
		return gwerror.New(gwerror.InvalidBucketName, "the specified bucket is not valid")
	case errors.Is(err, bucketmgr.ErrBucketNotEmpty):
		return gwerror.New(gwerror.BucketNotEmpty, "the bucket you tried to delete is not empty")
	case errors.Is(err, bucketmgr.ErrTooManyBuckets):
		return gwerror.New(gwerror.TooManyBuckets, "you have attempted to create more buckets than allowed")
	case errors.Is(err, bucketmgr.ErrNoSuchKey):
		return gwerror.New(gwerror.NoSuchKey, "the specified key does not exist")
	case errors.Is(err, blockstore.ErrNotFound):
		return gwerror.New(gwerror.NoSuchKey, "the specified key does not exist")
	case errors.Is(err, multipart.ErrNotFound):
		return gwerror.New(gwerror.NoSuchUpload, "the specified upload does not exist")
	case errors.Is(err, multipart.ErrBucketKeyMismatch):
		return gwerror.New(gwerror.InvalidArgument, "the upload does not belong to this bucket and key")
	case errors.Is(err, multipart.ErrInvalidPartNumber):
		return gwerror.New(gwerror.InvalidArgument, "part number must be between 1 and 10000")
	case errors.Is(err, multipart.ErrNoParts):
		return gwerror.New(gwerror.InvalidPart, "at least one part must be uploaded before completing")
	default:
		return gwerror.New(gwerror.InternalError, "internal error")
	}
}

// writeError renders err as the S3 error XML document, stamping the
// per-request x-amz-error-code header and reusing the request id
// requestIDMiddleware already attached.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	gerr := mapCollaboratorError(err)
	if id := requestIDFromContext(r.Context()); id != "" {
		gerr.RequestID = id
	}

	w.Header().Set("x-amz-error-code", string(gerr.Code))
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(gerr.Code.Status())
	if r.Method == http.MethodHead {
		return
	}
	w.Write(gerr.EncodeXML())
}

// writeXML encodes v as the response body with the standard S3
// Content-Type.
func writeXML(w http.ResponseWriter, status int, v interface{}) {
	out, err := s3xml.Encode(v)
	if err != nil {
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	w.Write(out)
}
