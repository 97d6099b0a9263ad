// Package bucketmgr implements the bucket-registry collaborator that
// sits on top of the blockstore.BlockStore interface
// (open/create/delete/list/flush/load/persist). The upstream crate
// that plays this role in the Rust gateway this system descends from
// is not reusable here; this package is the Go-native stand-in the
// gateway needs in order to run standalone, grounded on the shapes
// the Rust handlers actually call
// (open_bucket_for_user/create_bucket_for_user/... in the reference
// object-store handlers). Per-user bucket sets and per-bucket object
// graphs are kept in github.com/ryszard/goskiplist skiplists rather
// than plain maps, so every listing operation walks already-sorted
// keys instead of collecting and sorting them per call.
package bucketmgr

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ryszard/goskiplist/skiplist"

	"github.com/functionland/fula-gateway/internal/blockstore"
)

// MaxBucketsPerUser bounds the number of buckets a single user may
// hold. Exceeding it is reported as a plain 400 rather than the
// conflict-family 409; this package only returns the sentinel, the
// HTTP mapping lives in internal/gwerror.
const MaxBucketsPerUser = 1000

var (
	ErrBucketAlreadyExists = errors.New("bucketmgr: bucket already exists")
	ErrInvalidBucketName   = errors.New("bucketmgr: invalid bucket name")
	ErrBucketNotEmpty      = errors.New("bucketmgr: bucket not empty")
	ErrNoSuchBucket        = errors.New("bucketmgr: no such bucket")
	ErrNoSuchKey           = errors.New("bucketmgr: no such key")
	ErrTooManyBuckets      = errors.New("bucketmgr: too many buckets")
)

// bucketState is the live, mutable in-memory state for one
// (hashedUserID, bucketName) pair. objects is a skiplist.SkipList
// (string key -> ObjectMetadata) rather than a plain map so that
// ListObjects can walk keys in sorted order directly instead of
// collecting and sorting them on every call.
type bucketState struct {
	mu        sync.RWMutex
	name      string
	createdAt time.Time
	owner     Owner
	rootCID   string
	objects   *skiplist.SkipList
}

// Registry is the in-memory map[user] -> (bucket name -> *bucketState)
// that the registry pointer CID names. The per-user bucket set is a
// skiplist.SkipList, the same ordered-map structure gofakes3's own
// go.mod depends on, so ListBucketsForUser never needs to sort.
type Registry struct {
	mu    sync.RWMutex
	users map[string]*skiplist.SkipList
}

func newRegistry() *Registry {
	return &Registry{users: make(map[string]*skiplist.SkipList)}
}

// BucketManager is the single shared instance every handler borrows
// from; it owns the registry for every user and bucket the gateway
// knows about.
type BucketManager struct {
	store        blockstore.BlockStore
	registryPath string
	reg          *Registry
	persistMu    sync.Mutex
}

// New builds a BucketManager with no durable registry pointer; mutations
// stay in memory for the life of the process.
func New(store blockstore.BlockStore) *BucketManager {
	return &BucketManager{store: store, reg: newRegistry()}
}

// WithPersistence builds a BucketManager that persists its registry CID
// to registryPath on every PersistRegistry call and can reload it via
// LoadRegistry.
func WithPersistence(store blockstore.BlockStore, registryPath string) *BucketManager {
	return &BucketManager{store: store, reg: newRegistry(), registryPath: registryPath}
}

// CreateBucketForUser validates name and inserts an empty bucket into
// the caller's namespace.
func (m *BucketManager) CreateBucketForUser(hashedUserID, name string, owner Owner) error {
	if !ValidateBucketName(name) {
		return ErrInvalidBucketName
	}

	m.reg.mu.Lock()
	defer m.reg.mu.Unlock()

	buckets, ok := m.reg.users[hashedUserID]
	if !ok {
		buckets = skiplist.NewStringMap()
		m.reg.users[hashedUserID] = buckets
	}
	if _, exists := buckets.Get(name); exists {
		return ErrBucketAlreadyExists
	}
	if buckets.Len() >= MaxBucketsPerUser {
		return ErrTooManyBuckets
	}

	buckets.Set(name, &bucketState{
		name:      name,
		createdAt: time.Now().UTC(),
		owner:     owner,
		objects:   skiplist.NewStringMap(),
	})
	return nil
}

// DeleteBucketForUser removes an empty bucket from the caller's
// namespace.
func (m *BucketManager) DeleteBucketForUser(hashedUserID, name string) error {
	m.reg.mu.Lock()
	defer m.reg.mu.Unlock()

	buckets, ok := m.reg.users[hashedUserID]
	if !ok {
		return ErrNoSuchBucket
	}
	v, ok := buckets.Get(name)
	if !ok {
		return ErrNoSuchBucket
	}
	b := v.(*bucketState)

	b.mu.RLock()
	empty := b.objects.Len() == 0
	b.mu.RUnlock()
	if !empty {
		return ErrBucketNotEmpty
	}

	buckets.Delete(name)
	return nil
}

// BucketExistsForUser reports whether name exists in the caller's
// namespace.
func (m *BucketManager) BucketExistsForUser(hashedUserID, name string) bool {
	m.reg.mu.RLock()
	defer m.reg.mu.RUnlock()
	buckets, ok := m.reg.users[hashedUserID]
	if !ok {
		return false
	}
	_, ok = buckets.Get(name)
	return ok
}

// ListBucketsForUser returns every bucket owned by hashedUserID. The
// skiplist already iterates in ascending key order, so no separate
// sort is needed for deterministic responses.
func (m *BucketManager) ListBucketsForUser(hashedUserID string) []Bucket {
	m.reg.mu.RLock()
	defer m.reg.mu.RUnlock()

	buckets, ok := m.reg.users[hashedUserID]
	if !ok {
		return nil
	}
	out := make([]Bucket, 0, buckets.Len())
	it := buckets.Iterator()
	defer it.Close()
	for it.Next() {
		b := it.Value().(*bucketState)
		b.mu.RLock()
		out = append(out, Bucket{Name: b.name, CreatedAt: b.createdAt, Owner: b.owner})
		b.mu.RUnlock()
	}
	return out
}

// OpenBucketForUser returns a handle scoped to hashedUserID's copy of
// name. No handler may use a handle obtained from one session against
// another user's namespace — this is the sole gate that user isolation
// relies on.
func (m *BucketManager) OpenBucketForUser(_ context.Context, hashedUserID, name string) (*BucketHandle, error) {
	m.reg.mu.RLock()
	buckets, ok := m.reg.users[hashedUserID]
	if !ok {
		m.reg.mu.RUnlock()
		return nil, ErrNoSuchBucket
	}
	v, ok := buckets.Get(name)
	m.reg.mu.RUnlock()
	if !ok {
		return nil, ErrNoSuchBucket
	}
	return &BucketHandle{state: v.(*bucketState), store: m.store}, nil
}

// readPointerFile reads and whitespace-trims the registry pointer file,
// returning "" when the file is absent or empty — an empty file means
// an empty registry, not an error.
func readPointerFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
