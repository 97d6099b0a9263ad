package bucketmgr

import (
	"context"
	"strings"
	"time"

	"github.com/functionland/fula-gateway/internal/blockstore"
)

// BucketHandle scopes every operation to the bucket it was opened
// against; it never exposes the hashed user id or lets a caller reach
// another bucket, which is how OpenBucketForUser enforces isolation.
type BucketHandle struct {
	state *bucketState
	store blockstore.BlockStore
}

// Name returns the bucket's name.
func (h *BucketHandle) Name() string { return h.state.name }

// CreatedAt returns the bucket's creation time.
func (h *BucketHandle) CreatedAt() time.Time { return h.state.createdAt }

// PutObject stores data under key and records the resulting metadata in
// the bucket graph, replacing whatever was there before.
func (h *BucketHandle) PutObject(ctx context.Context, key string, data []byte, meta ObjectMetadata) (ObjectMetadata, error) {
	cid, err := h.store.PutBlock(ctx, data)
	if err != nil {
		return ObjectMetadata{}, err
	}
	meta.CID = cid
	meta.Size = int64(len(data))
	meta.LastModified = time.Now().UTC()
	if meta.StorageClass == "" {
		meta.StorageClass = StorageStandard
	}

	h.state.mu.Lock()
	h.state.objects.Set(key, meta)
	h.state.mu.Unlock()
	return meta, nil
}

// GetObjectMeta returns the recorded metadata for key.
func (h *BucketHandle) GetObjectMeta(key string) (ObjectMetadata, error) {
	h.state.mu.RLock()
	defer h.state.mu.RUnlock()
	v, ok := h.state.objects.Get(key)
	if !ok {
		return ObjectMetadata{}, ErrNoSuchKey
	}
	m := v.(ObjectMetadata)
	if m.IsDeleteMarker {
		return ObjectMetadata{}, ErrNoSuchKey
	}
	return m, nil
}

// GetObject fetches an object's bytes from the block store by key.
func (h *BucketHandle) GetObject(ctx context.Context, key string) (ObjectMetadata, []byte, error) {
	meta, err := h.GetObjectMeta(key)
	if err != nil {
		return ObjectMetadata{}, nil, err
	}
	data, err := h.store.GetBlock(ctx, meta.CID)
	if err != nil {
		return ObjectMetadata{}, nil, err
	}
	return meta, data, nil
}

// PutObjectMeta records meta under key directly, used by CopyObject
// (which already has the source bytes' CID and need not re-upload).
func (h *BucketHandle) PutObjectMeta(key string, meta ObjectMetadata) {
	if meta.StorageClass == "" {
		meta.StorageClass = StorageStandard
	}
	h.state.mu.Lock()
	h.state.objects.Set(key, meta)
	h.state.mu.Unlock()
}

// DeleteObject removes key from the bucket graph. Deleting a key that
// does not exist is not an error — DeleteObject is idempotent.
func (h *BucketHandle) DeleteObject(key string) {
	h.state.mu.Lock()
	h.state.objects.Delete(key)
	h.state.mu.Unlock()
}

// HasObject reports whether key currently exists (and is not a delete
// marker).
func (h *BucketHandle) HasObject(key string) bool {
	h.state.mu.RLock()
	defer h.state.mu.RUnlock()
	v, ok := h.state.objects.Get(key)
	if !ok {
		return false
	}
	return !v.(ObjectMetadata).IsDeleteMarker
}

// IsEmpty reports whether the bucket currently holds zero keys.
func (h *BucketHandle) IsEmpty() bool {
	h.state.mu.RLock()
	defer h.state.mu.RUnlock()
	return h.state.objects.Len() == 0
}

// ListResult is the prefix/delimiter listing outcome, shaped directly
// after ListObjectsV2's response fields.
type ListResult struct {
	Contents       []ListEntry
	CommonPrefixes []string
	IsTruncated    bool
	NextMarker     string
}

// ListEntry pairs a key with its metadata for listing purposes.
type ListEntry struct {
	Key  string
	Meta ObjectMetadata
}

// ListObjects implements the delimiter/common-prefix collapsing
// algorithm: the skiplist already iterates keys in lexical order, so
// this walks it once, grouping under prefix and collapsing any suffix
// containing delimiter into a CommonPrefixes entry instead of an
// individual Contents entry.
func (h *BucketHandle) ListObjects(prefix, delimiter, startAfter string, maxKeys int) ListResult {
	if maxKeys <= 0 {
		maxKeys = 1000
	}

	h.state.mu.RLock()
	var keys []string
	metaByKey := make(map[string]ObjectMetadata)
	it := h.state.objects.Iterator()
	for it.Next() {
		k := it.Key().(string)
		m := it.Value().(ObjectMetadata)
		if m.IsDeleteMarker {
			continue
		}
		if prefix != "" && !strings.HasPrefix(k, prefix) {
			// Keys are visited in ascending order; once we're past
			// every key that could still start with prefix, stop.
			if k > prefix {
				break
			}
			continue
		}
		keys = append(keys, k)
		metaByKey[k] = m
	}
	it.Close()
	h.state.mu.RUnlock()

	var result ListResult
	seenPrefixes := make(map[string]bool)
	// last is the last key this page consumed; NextMarker is set to it so
	// that passing it back as startAfter resumes right after this page.
	last := ""

	for _, k := range keys {
		if startAfter != "" && k <= startAfter {
			continue
		}

		collapsed := k
		isCommonPrefix := false
		if delimiter != "" {
			rest := k[len(prefix):]
			if idx := strings.Index(rest, delimiter); idx >= 0 {
				collapsed = prefix + rest[:idx+len(delimiter)]
				isCommonPrefix = true
			}
		}

		if isCommonPrefix {
			if seenPrefixes[collapsed] {
				last = k
				continue
			}
			if len(result.Contents)+len(result.CommonPrefixes) >= maxKeys {
				result.IsTruncated = true
				result.NextMarker = last
				break
			}
			seenPrefixes[collapsed] = true
			result.CommonPrefixes = append(result.CommonPrefixes, collapsed)
			last = k
			continue
		}

		if len(result.Contents)+len(result.CommonPrefixes) >= maxKeys {
			result.IsTruncated = true
			result.NextMarker = last
			break
		}
		result.Contents = append(result.Contents, ListEntry{Key: k, Meta: metaByKey[k]})
		last = k
	}

	return result
}

// Flush marshals the bucket's object graph as an IPLD node and updates
// rootCID, returning the new CID so the caller can fold it into the
// registry document.
func (h *BucketHandle) Flush(ctx context.Context) (string, error) {
	h.state.mu.RLock()
	snapshot := make(map[string]ObjectMetadata, h.state.objects.Len())
	it := h.state.objects.Iterator()
	for it.Next() {
		snapshot[it.Key().(string)] = it.Value().(ObjectMetadata)
	}
	it.Close()
	h.state.mu.RUnlock()

	cid, err := h.store.PutIPLD(ctx, bucketGraphDoc{Objects: snapshot})
	if err != nil {
		return "", err
	}

	h.state.mu.Lock()
	h.state.rootCID = cid
	h.state.mu.Unlock()
	return cid, nil
}
