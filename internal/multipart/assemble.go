package multipart

import (
	"context"
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"

	"github.com/functionland/fula-gateway/internal/blockstore"
)

// multipartFileDoc is the unified DAG node a completed multipart
// upload is represented by: a small JSON object listing the part
// CIDs in order. The gateway never concatenates the part bytes
// themselves.
type multipartFileDoc struct {
	Type  string   `json:"type"`
	Parts []string `json:"parts"`
}

// AssembleResult is the outcome of assembling a completed upload's
// parts into a final content-addressed object.
type AssembleResult struct {
	CID       string
	ETag      string
	TotalSize int64
}

// Assemble computes the final CID and ETag for u's parts (already
// removed from the Manager by Complete) and, for more than one part,
// writes the unified DAG node to store. A single-part upload's final
// CID is simply that part's CID.
func Assemble(ctx context.Context, store blockstore.BlockStore, u *Upload) (AssembleResult, error) {
	parts := u.SortedParts()
	if len(parts) == 0 {
		return AssembleResult{}, ErrNoParts
	}

	var totalSize int64
	cids := make([]string, len(parts))
	for i, p := range parts {
		cids[i] = p.CID
		totalSize += p.Size
	}

	var finalCID string
	if len(parts) == 1 {
		finalCID = parts[0].CID
	} else {
		cid, err := store.PutIPLD(ctx, multipartFileDoc{Type: "fula-multipart-file", Parts: cids})
		if err != nil {
			return AssembleResult{}, fmt.Errorf("multipart: assemble dag node: %w", err)
		}
		finalCID = cid
	}

	etag := ComputeETag(cids)
	return AssembleResult{CID: finalCID, ETag: etag, TotalSize: totalSize}, nil
}

// ComputeETag implements multipart ETag formula:
// hex(BLAKE3(concat(part_cid_strings_in_ascending_order))[0..16]) +
// "-" + part_count.
func ComputeETag(partCIDsAscending []string) string {
	h := blake3.New(32, nil)
	for _, c := range partCIDsAscending {
		h.Write([]byte(c))
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16]) + "-" + fmt.Sprint(len(partCIDsAscending))
}
