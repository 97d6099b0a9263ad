// Package blockstore implements the narrow block-store collaborator
// the gateway depends on: PutBlock/GetBlock/PutIPLD/Pin/IsPersistent
// against either a Kubo-compatible IPFS HTTP API or an in-memory
// fallback. Two concrete backends are enough; there is no need for a
// plugin registry here.
package blockstore

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by GetBlock when the CID names no known block.
var ErrNotFound = errors.New("blockstore: block not found")

// BlockStore is the full capability set the gateway requires of its
// backing store.
type BlockStore interface {
	// PutBlock stores data verbatim and returns its CID.
	PutBlock(ctx context.Context, data []byte) (string, error)
	// GetBlock fetches the bytes behind cid.
	GetBlock(ctx context.Context, cid string) ([]byte, error)
	// PutIPLD serializes v as JSON and stores it as a DAG node, returning its CID.
	PutIPLD(ctx context.Context, v interface{}) (string, error)
	// Pin requests the store retain cid indefinitely under an optional name.
	Pin(ctx context.Context, cid string, name string) error
	// IsPersistent reports whether blocks survive process restart.
	IsPersistent() bool
}

// MarshalIPLD is shared by every BlockStore implementation's PutIPLD:
// the gateway's structured DAG nodes (the unified multipart-file
// object, plus the bucketmgr registry and bucket-graph documents) are
// all its own JSON shapes, so a plain JSON encoding (rather than a full
// IPLD codec) is sufficient — the gateway never reads these blocks back
// as anything other than opaque bytes or those same JSON shapes.
func MarshalIPLD(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}
