package bucketmgr

import "time"

// StorageClass mirrors S3's per-object storage-class field; this
// gateway only ever produces STANDARD, but keeps the type so a future
// backing store can report something else without an API change.
type StorageClass string

const StorageStandard StorageClass = "STANDARD"

func (s StorageClass) String() string {
	if s == "" {
		return string(StorageStandard)
	}
	return string(s)
}

// Owner identifies the account behind a bucket or multipart upload.
type Owner struct {
	ID          string
	DisplayName string
}

// ObjectMetadata is the per-key record describing one stored object,
// kept inside the bucket graph.
type ObjectMetadata struct {
	CID                string
	Size               int64
	ETag               string
	LastModified       time.Time
	ContentType        string
	ContentEncoding    string
	ContentDisposition string
	CacheControl       string
	VersionID          string
	StorageClass       StorageClass
	// UserMetadata holds x-amz-meta-* values keyed by the header
	// suffix in canonical header casing (e.g. "Foo-Bar")
	UserMetadata   map[string]string
	OwnerID        string
	IsDeleteMarker bool
}

// Clone returns a deep-enough copy for safe handoff across a flush
// boundary (CopyObject mutates LastModified/OwnerID on a copy of the
// source's metadata without touching the source).
func (m ObjectMetadata) Clone() ObjectMetadata {
	cp := m
	if m.UserMetadata != nil {
		cp.UserMetadata = make(map[string]string, len(m.UserMetadata))
		for k, v := range m.UserMetadata {
			cp.UserMetadata[k] = v
		}
	}
	return cp
}

// Bucket is the directory-level record a listing or lookup resolves to.
type Bucket struct {
	Name      string
	CreatedAt time.Time
	Owner     Owner
}
