package blockstore

import (
	"encoding/base32"

	"lukechampine.com/blake3"
)

// multihash/CID prefix bytes for a CIDv1, raw codec, blake3-256 digest:
// <cidv1=0x01><codec=raw=0x55><mh-code=blake3=0x1e><mh-len=0x20>.
var cidPrefix = []byte{0x01, 0x55, 0x1e, 0x20}

var base32Lower = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// CIDForBytes computes the stable, printable content identifier this
// gateway uses to name a block: an opaque string naming a block in the
// external store, stable and printable across backends. It is
// deliberately shaped like a real IPFS CIDv1 (the "b" multibase prefix
// plus base32-lower body) so that objects written through the
// in-memory fallback store remain indistinguishable from ones written
// through a real Kubo node — the gateway must not depend on
// IPFS-specific behavior at runtime.
func CIDForBytes(data []byte) string {
	sum := blake3.Sum256(data)
	buf := make([]byte, 0, len(cidPrefix)+len(sum))
	buf = append(buf, cidPrefix...)
	buf = append(buf, sum[:]...)
	return "b" + base32Lower.EncodeToString(buf)
}
