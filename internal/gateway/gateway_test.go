package gateway_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/functionland/fula-gateway/internal/blockstore"
	"github.com/functionland/fula-gateway/internal/bucketmgr"
	"github.com/functionland/fula-gateway/internal/config"
	"github.com/functionland/fula-gateway/internal/gateway"
	"github.com/functionland/fula-gateway/internal/gwlog"
	"github.com/functionland/fula-gateway/internal/multipart"
)

func newTestState(t *testing.T, bearerSecret string) *gateway.State {
	t.Helper()
	return &gateway.State{
		Config: config.Config{
			MaxBodySize:  1 << 20,
			BearerSecret: bearerSecret,
		},
		Store:     blockstore.NewMemoryStore(),
		Buckets:   bucketmgr.New(blockstore.NewMemoryStore()),
		Multipart: multipart.New(),
		Log:       gwlog.Discard(),
	}
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHealthzBypassesAuth(t *testing.T) {
	s := newTestState(t, "supersecret")
	handler := s.Server()

	w := doRequest(t, handler, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok ")
}

func TestAuthMissingAndWrongAndCorrectBearerToken(t *testing.T) {
	s := newTestState(t, "supersecret")
	handler := s.Server()

	w := doRequest(t, handler, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, handler, http.MethodGet, "/", nil, map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, handler, http.MethodGet, "/", nil, map[string]string{"Authorization": "Bearer supersecret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnpairedModeAuthenticatesEveryRequestAsLocalDevice(t *testing.T) {
	s := newTestState(t, "")
	handler := s.Server()

	w := doRequest(t, handler, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ListAllMyBucketsResult")
}

func TestBucketLifecycle(t *testing.T) {
	s := newTestState(t, "")
	handler := s.Server()

	w := doRequest(t, handler, http.MethodPut, "/mybucket", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, handler, http.MethodHead, "/mybucket", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, handler, http.MethodHead, "/does-not-exist", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, handler, http.MethodGet, "/mybucket?location", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "LocationConstraint")

	w = doRequest(t, handler, http.MethodDelete, "/mybucket", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, handler, http.MethodHead, "/mybucket", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPutGetObjectRoundTrip(t *testing.T) {
	s := newTestState(t, "")
	handler := s.Server()

	require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodPut, "/bucket", nil, nil).Code)

	content := []byte("hello, gateway")
	w := doRequest(t, handler, http.MethodPut, "/bucket/key.txt", content, map[string]string{"Content-Type": "text/plain"})
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	assert.NotEmpty(t, etag)
	assert.True(t, strings.HasPrefix(etag, `"`) && strings.HasSuffix(etag, `"`), "ETag header must be quoted, got %q", etag)

	w = doRequest(t, handler, http.MethodGet, "/bucket/key.txt", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	assert.Equal(t, etag, w.Header().Get("ETag"))

	w = doRequest(t, handler, http.MethodHead, "/bucket/key.txt", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, etag, w.Header().Get("ETag"))

	w = doRequest(t, handler, http.MethodGet, "/bucket/missing.txt", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetObjectRangeRequest(t *testing.T) {
	s := newTestState(t, "")
	handler := s.Server()

	require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodPut, "/bucket", nil, nil).Code)
	content := []byte("0123456789")
	require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodPut, "/bucket/key", content, nil).Code)

	w := doRequest(t, handler, http.MethodGet, "/bucket/key", nil, map[string]string{"Range": "bytes=2-5"})
	require.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "2345", w.Body.String())
	assert.Equal(t, "bytes 2-5/10", w.Header().Get("Content-Range"))
}

func TestGetObjectConditionalIfNoneMatch(t *testing.T) {
	s := newTestState(t, "")
	handler := s.Server()

	require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodPut, "/bucket", nil, nil).Code)
	put := doRequest(t, handler, http.MethodPut, "/bucket/key", []byte("data"), nil)
	etag := put.Header().Get("ETag") // already quoted, e.g. `"<cid>"`

	w := doRequest(t, handler, http.MethodGet, "/bucket/key", nil, map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, w.Code)
}

func TestDeleteObjectIsIdempotent(t *testing.T) {
	s := newTestState(t, "")
	handler := s.Server()

	require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodPut, "/bucket", nil, nil).Code)
	require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodPut, "/bucket/key", []byte("x"), nil).Code)

	assert.Equal(t, http.StatusNoContent, doRequest(t, handler, http.MethodDelete, "/bucket/key", nil, nil).Code)
	assert.Equal(t, http.StatusNoContent, doRequest(t, handler, http.MethodDelete, "/bucket/key", nil, nil).Code)

	w := doRequest(t, handler, http.MethodGet, "/bucket/key", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListObjectsV2WithPrefixAndDelimiter(t *testing.T) {
	s := newTestState(t, "")
	handler := s.Server()

	require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodPut, "/bucket", nil, nil).Code)
	for _, key := range []string{"a/1.txt", "a/2.txt", "b/1.txt", "root.txt"} {
		require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodPut, "/bucket/"+key, []byte("x"), nil).Code)
	}

	w := doRequest(t, handler, http.MethodGet, "/bucket?delimiter=/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<Key>root.txt</Key>")
	assert.Contains(t, body, "<Prefix>a/</Prefix>")
	assert.Contains(t, body, "<Prefix>b/</Prefix>")
	assert.NotContains(t, body, "<Key>a/1.txt</Key>")

	w = doRequest(t, handler, http.MethodGet, "/bucket?prefix=a/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = w.Body.String()
	assert.Contains(t, body, "<Key>a/1.txt</Key>")
	assert.Contains(t, body, "<Key>a/2.txt</Key>")
	assert.NotContains(t, body, "<Key>b/1.txt</Key>")
}

func TestCopyObject(t *testing.T) {
	s := newTestState(t, "")
	handler := s.Server()

	require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodPut, "/bucket", nil, nil).Code)
	require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodPut, "/bucket/src.txt", []byte("payload"), nil).Code)

	w := doRequest(t, handler, http.MethodPut, "/bucket/dest.txt", nil, map[string]string{"x-amz-copy-source": "/bucket/src.txt"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CopyObjectResult")

	w = doRequest(t, handler, http.MethodGet, "/bucket/dest.txt", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "payload", w.Body.String())
}

func TestMultipartUploadLifecycle(t *testing.T) {
	s := newTestState(t, "")
	handler := s.Server()

	require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodPut, "/bucket", nil, nil).Code)

	create := doRequest(t, handler, http.MethodPost, "/bucket/big.bin?uploads", nil, nil)
	require.Equal(t, http.StatusOK, create.Code)
	uploadID := extractBetween(t, create.Body.String(), "<UploadId>", "</UploadId>")
	require.NotEmpty(t, uploadID)

	part1 := doRequest(t, handler, http.MethodPut, "/bucket/big.bin?partNumber=1&uploadId="+uploadID, bytes.Repeat([]byte("a"), 5), nil)
	require.Equal(t, http.StatusOK, part1.Code)
	part2 := doRequest(t, handler, http.MethodPut, "/bucket/big.bin?partNumber=2&uploadId="+uploadID, bytes.Repeat([]byte("b"), 5), nil)
	require.Equal(t, http.StatusOK, part2.Code)

	listParts := doRequest(t, handler, http.MethodGet, "/bucket/big.bin?uploadId="+uploadID, nil, nil)
	require.Equal(t, http.StatusOK, listParts.Code)
	assert.Contains(t, listParts.Body.String(), "<PartNumber>1</PartNumber>")
	assert.Contains(t, listParts.Body.String(), "<PartNumber>2</PartNumber>")

	complete := doRequest(t, handler, http.MethodPost, "/bucket/big.bin?uploadId="+uploadID, nil, nil)
	require.Equal(t, http.StatusOK, complete.Code)
	assert.Contains(t, complete.Body.String(), "CompleteMultipartUploadResult")

	// The completed object's content address is the unified DAG node
	// referencing each part's CID, not the concatenated part bytes —
	// GetObject therefore serves that node's JSON encoding.
	get := doRequest(t, handler, http.MethodGet, "/bucket/big.bin", nil, nil)
	require.Equal(t, http.StatusOK, get.Code)
	assert.Contains(t, get.Body.String(), "fula-multipart-file")

	head := doRequest(t, handler, http.MethodHead, "/bucket/big.bin", nil, nil)
	assert.Equal(t, http.StatusOK, head.Code)
}

func TestMultipartUploadAbort(t *testing.T) {
	s := newTestState(t, "")
	handler := s.Server()

	require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodPut, "/bucket", nil, nil).Code)

	create := doRequest(t, handler, http.MethodPost, "/bucket/big.bin?uploads", nil, nil)
	uploadID := extractBetween(t, create.Body.String(), "<UploadId>", "</UploadId>")

	abort := doRequest(t, handler, http.MethodDelete, "/bucket/big.bin?uploadId="+uploadID, nil, nil)
	assert.Equal(t, http.StatusNoContent, abort.Code)

	listParts := doRequest(t, handler, http.MethodGet, "/bucket/big.bin?uploadId="+uploadID, nil, nil)
	assert.Equal(t, http.StatusNotFound, listParts.Code)
}

func TestListMultipartUploads(t *testing.T) {
	s := newTestState(t, "")
	handler := s.Server()

	require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodPut, "/bucket", nil, nil).Code)
	doRequest(t, handler, http.MethodPost, "/bucket/a.bin?uploads", nil, nil)
	doRequest(t, handler, http.MethodPost, "/bucket/b.bin?uploads", nil, nil)

	w := doRequest(t, handler, http.MethodGet, "/bucket?uploads", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<Key>a.bin</Key>")
	assert.Contains(t, body, "<Key>b.bin</Key>")
}

func TestBatchDeleteIsNotImplemented(t *testing.T) {
	s := newTestState(t, "")
	handler := s.Server()

	require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodPut, "/bucket", nil, nil).Code)
	w := doRequest(t, handler, http.MethodPost, "/bucket?delete", nil, nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func extractBetween(t *testing.T, s, start, end string) string {
	t.Helper()
	i := bytes.Index([]byte(s), []byte(start))
	require.GreaterOrEqual(t, i, 0)
	rest := s[i+len(start):]
	j := bytes.Index([]byte(rest), []byte(end))
	require.GreaterOrEqual(t, j, 0)
	return rest[:j]
}
