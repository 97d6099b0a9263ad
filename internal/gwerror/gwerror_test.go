package gwerror_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/functionland/fula-gateway/internal/gwerror"
)

func TestStatusMapping(t *testing.T) {
	cases := map[gwerror.Code]int{
		gwerror.AccessDenied:        http.StatusForbidden,
		gwerror.NoSuchBucket:        http.StatusNotFound,
		gwerror.NoSuchKey:           http.StatusNotFound,
		gwerror.BucketAlreadyExists: http.StatusConflict,
		gwerror.BucketNotEmpty:      http.StatusConflict,
		gwerror.InternalError:       http.StatusInternalServerError,
		gwerror.NotImplemented:      http.StatusNotImplemented,
		gwerror.MethodNotAllowed:    http.StatusMethodNotAllowed,
	}
	for code, want := range cases {
		assert.Equal(t, want, code.Status(), "code %s", code)
	}
}

func TestTooManyBucketsIsBadRequestNotConflict(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, gwerror.TooManyBuckets.Status())
}

func TestNewStampsRequestID(t *testing.T) {
	err := gwerror.New(gwerror.NoSuchKey, "nope")
	require.NotEmpty(t, err.RequestID)
	assert.Equal(t, gwerror.NoSuchKey, err.Code)
}

func TestAsDefaultsToInternalErrorAndHidesMessage(t *testing.T) {
	wrapped := gwerror.As(assertError{"some sensitive detail"})
	assert.Equal(t, gwerror.InternalError, wrapped.Code)
	assert.Equal(t, "internal error", wrapped.Message)
	assert.NotContains(t, wrapped.Message, "sensitive")
}

func TestAsPassesThroughExistingError(t *testing.T) {
	original := gwerror.New(gwerror.NoSuchBucket, "gone")
	assert.Same(t, original, gwerror.As(original))
}

func TestEncodeXMLShape(t *testing.T) {
	err := gwerror.New(gwerror.InvalidArgument, "bad value")
	body := string(err.EncodeXML())
	assert.Contains(t, body, "<Code>InvalidArgument</Code>")
	assert.Contains(t, body, "<Message>bad value</Message>")
	assert.Contains(t, body, "<RequestId>"+err.RequestID+"</RequestId>")
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
