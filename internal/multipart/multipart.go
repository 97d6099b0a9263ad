// Package multipart implements the in-memory multipart upload state
// machine: create, add part, complete, abort, list, and expiry
// sweeping. Nothing here is ever persisted — an upload that outlives
// the process is gone.
package multipart

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("multipart: upload not found")
	ErrBucketKeyMismatch = errors.New("multipart: bucket/key mismatch")
	ErrInvalidPartNumber = errors.New("multipart: invalid part number")
	ErrNoParts           = errors.New("multipart: no parts uploaded")
)

// MinPartNumber and MaxPartNumber bound a part's position within an
// upload, 1 through 10000 inclusive.
const (
	MinPartNumber = 1
	MaxPartNumber = 10000
)

// UploadPart records one uploaded chunk's address and size.
type UploadPart struct {
	PartNumber int
	ETag       string
	Size       int64
	CID        string
	UploadedAt time.Time
	// ChecksumBLAKE3 mirrors a field present in the source data model
	// but never populated there; kept optional for parity.
	ChecksumBLAKE3 string
}

// Upload is one in-flight multipart upload.
type Upload struct {
	mu sync.Mutex

	UploadID    string
	Bucket      string
	Key         string
	OwnerID     string
	ContentType string
	UserMetadata map[string]string
	CreatedAt   time.Time

	parts map[int]UploadPart
}

// AddPart inserts or replaces a part.
func (u *Upload) AddPart(p UploadPart) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.parts[p.PartNumber] = p
}

// SortedParts returns every part in ascending part-number order.
func (u *Upload) SortedParts() []UploadPart {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]UploadPart, 0, len(u.parts))
	for _, p := range u.parts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PartNumber < out[j].PartNumber })
	return out
}

const shardCount = 16

type shard struct {
	mu      sync.RWMutex
	uploads map[string]*Upload
}

// Manager is the concurrent multipart-upload registry. It shards by a
// hash of the upload id so concurrent uploads rarely contend on the
// same lock, without pulling in a full concurrent-map dependency.
type Manager struct {
	shards [shardCount]*shard
}

// New builds an empty Manager.
func New() *Manager {
	m := &Manager{}
	for i := range m.shards {
		m.shards[i] = &shard{uploads: make(map[string]*Upload)}
	}
	return m
}

func (m *Manager) shardFor(uploadID string) *shard {
	sum := sha256.Sum256([]byte(uploadID))
	idx := binary.BigEndian.Uint32(sum[:4]) % shardCount
	return m.shards[idx]
}

// CreateWithMetadata starts a new upload and returns its generated id.
func (m *Manager) CreateWithMetadata(bucket, key, ownerID, contentType string, meta map[string]string) *Upload {
	u := &Upload{
		UploadID:     uuid.NewString(),
		Bucket:       bucket,
		Key:          key,
		OwnerID:      ownerID,
		ContentType:  contentType,
		UserMetadata: meta,
		CreatedAt:    time.Now().UTC(),
		parts:        make(map[int]UploadPart),
	}
	s := m.shardFor(u.UploadID)
	s.mu.Lock()
	s.uploads[u.UploadID] = u
	s.mu.Unlock()
	return u
}

// Get returns the upload for id, or ErrNotFound.
func (m *Manager) Get(id string) (*Upload, error) {
	s := m.shardFor(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.uploads[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

// CheckBucketKey validates that an existing upload's bucket/key matches
// the request's, used on every part/complete/abort/list-parts call.
func CheckBucketKey(u *Upload, bucket, key string) error {
	if u.Bucket != bucket || u.Key != key {
		return ErrBucketKeyMismatch
	}
	return nil
}

// AddPart validates the part number and appends the part to id's
// upload.
func (m *Manager) AddPart(id string, p UploadPart) error {
	if p.PartNumber < MinPartNumber || p.PartNumber > MaxPartNumber {
		return ErrInvalidPartNumber
	}
	u, err := m.Get(id)
	if err != nil {
		return err
	}
	u.AddPart(p)
	return nil
}

// Complete atomically removes and returns the upload for id, for the
// caller to assemble into a final object. Returns ErrNoParts if no
// part was ever uploaded; the upload is removed in that case too.
func (m *Manager) Complete(id string) (*Upload, error) {
	s := m.shardFor(id)
	s.mu.Lock()
	u, ok := s.uploads[id]
	if ok {
		delete(s.uploads, id)
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	if len(u.parts) == 0 {
		return nil, ErrNoParts
	}
	return u, nil
}

// Abort atomically removes and returns the upload for id.
func (m *Manager) Abort(id string) (*Upload, error) {
	s := m.shardFor(id)
	s.mu.Lock()
	u, ok := s.uploads[id]
	if ok {
		delete(s.uploads, id)
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

// ListByBucket returns every live upload for bucket, sorted by key then
// upload id for deterministic ListMultipartUploads responses.
func (m *Manager) ListByBucket(bucket string) []*Upload {
	var out []*Upload
	for _, s := range m.shards {
		s.mu.RLock()
		for _, u := range s.uploads {
			if u.Bucket == bucket {
				out = append(out, u)
			}
		}
		s.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].UploadID < out[j].UploadID
	})
	return out
}

// ListParts returns id's parts in ascending order.
func (m *Manager) ListParts(id string) ([]UploadPart, error) {
	u, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return u.SortedParts(), nil
}

// CleanupExpired removes every upload older than maxAge and returns the
// count removed. Called by a periodic background task so that an
// upload a client never completes or aborts doesn't linger forever.
func (m *Manager) CleanupExpired(maxAge time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxAge)
	removed := 0
	for _, s := range m.shards {
		s.mu.Lock()
		for id, u := range s.uploads {
			if u.CreatedAt.Before(cutoff) {
				delete(s.uploads, id)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}
