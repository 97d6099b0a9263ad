package bucketmgr_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/functionland/fula-gateway/internal/blockstore"
	"github.com/functionland/fula-gateway/internal/bucketmgr"
)

func openTestBucket(t *testing.T, user, name string) (*bucketmgr.BucketManager, *bucketmgr.BucketHandle) {
	t.Helper()
	mgr := bucketmgr.New(blockstore.NewMemoryStore())
	require.NoError(t, mgr.CreateBucketForUser(user, name, bucketmgr.Owner{ID: user}))
	h, err := mgr.OpenBucketForUser(context.Background(), user, name)
	require.NoError(t, err)
	return mgr, h
}

func TestPutGetDeleteObject(t *testing.T) {
	ctx := context.Background()
	_, h := openTestBucket(t, "user-a", "mybucket")

	stored, err := h.PutObject(ctx, "a.txt", []byte("contents"), bucketmgr.ObjectMetadata{OwnerID: "user-a"})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.CID)
	assert.True(t, h.HasObject("a.txt"))

	meta, data, err := h.GetObject(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("contents"), data)
	assert.Equal(t, stored.CID, meta.CID)

	h.DeleteObject("a.txt")
	assert.False(t, h.HasObject("a.txt"))
	h.DeleteObject("a.txt") // idempotent
}

func TestGetObjectMetaMissingReturnsErrNoSuchKey(t *testing.T) {
	_, h := openTestBucket(t, "user-a", "mybucket")
	_, err := h.GetObjectMeta("missing")
	assert.ErrorIs(t, err, bucketmgr.ErrNoSuchKey)
}

func TestListObjectsPrefixAndDelimiter(t *testing.T) {
	ctx := context.Background()
	_, h := openTestBucket(t, "user-a", "mybucket")

	keys := []string{"a", "docs/one.txt", "docs/two.txt", "docs/sub/three.txt", "z"}
	for _, k := range keys {
		_, err := h.PutObject(ctx, k, []byte(k), bucketmgr.ObjectMetadata{OwnerID: "user-a"})
		require.NoError(t, err)
	}

	result := h.ListObjects("docs/", "/", "", 0)
	assert.Equal(t, []string{"docs/one.txt", "docs/two.txt"}, keysOf(result.Contents))
	assert.Equal(t, []string{"docs/sub/"}, result.CommonPrefixes)
	assert.False(t, result.IsTruncated)
}

func TestListObjectsNoDelimiterFlat(t *testing.T) {
	ctx := context.Background()
	_, h := openTestBucket(t, "user-a", "mybucket")
	for _, k := range []string{"b", "a", "c"} {
		_, err := h.PutObject(ctx, k, []byte(k), bucketmgr.ObjectMetadata{OwnerID: "user-a"})
		require.NoError(t, err)
	}

	result := h.ListObjects("", "", "", 0)
	assert.Equal(t, []string{"a", "b", "c"}, keysOf(result.Contents))
	assert.Empty(t, result.CommonPrefixes)
}

func TestListObjectsStartAfterAndMaxKeysTruncation(t *testing.T) {
	ctx := context.Background()
	_, h := openTestBucket(t, "user-a", "mybucket")
	for _, k := range []string{"a", "b", "c", "d"} {
		_, err := h.PutObject(ctx, k, []byte(k), bucketmgr.ObjectMetadata{OwnerID: "user-a"})
		require.NoError(t, err)
	}

	result := h.ListObjects("", "", "a", 2)
	assert.Equal(t, []string{"b", "c"}, keysOf(result.Contents))
	assert.True(t, result.IsTruncated)
	assert.Equal(t, "c", result.NextMarker)
}

func TestFlushUpdatesRootCID(t *testing.T) {
	ctx := context.Background()
	_, h := openTestBucket(t, "user-a", "mybucket")
	_, err := h.PutObject(ctx, "a", []byte("a"), bucketmgr.ObjectMetadata{OwnerID: "user-a"})
	require.NoError(t, err)

	cid, err := h.Flush(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, cid)
}

func TestIsEmpty(t *testing.T) {
	ctx := context.Background()
	_, h := openTestBucket(t, "user-a", "mybucket")
	assert.True(t, h.IsEmpty())
	_, err := h.PutObject(ctx, "a", []byte("a"), bucketmgr.ObjectMetadata{OwnerID: "user-a"})
	require.NoError(t, err)
	assert.False(t, h.IsEmpty())
}

func keysOf(entries []bucketmgr.ListEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}
