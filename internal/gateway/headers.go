package gateway

import (
	"net/http"
	"strings"
)

const metaPrefix = "X-Amz-Meta-"

// collectUserMetadata gathers every x-amz-meta-* header into a map
// keyed by the suffix left after the prefix is stripped, in Go's
// canonical header casing (x-amz-meta-foo-bar is keyed "Foo-Bar"); the
// client's original casing is not preserved.
func collectUserMetadata(h http.Header) map[string]string {
	meta := make(map[string]string)
	for k, v := range h {
		if len(v) == 0 {
			continue
		}
		canon := http.CanonicalHeaderKey(k)
		if !strings.HasPrefix(canon, metaPrefix) {
			continue
		}
		name := strings.TrimPrefix(canon, metaPrefix)
		meta[name] = v[0]
	}
	return meta
}

// applyUserMetadataHeaders writes meta back out as x-amz-meta-* headers
// on a GetObject/HeadObject response.
func applyUserMetadataHeaders(w http.ResponseWriter, meta map[string]string) {
	for k, v := range meta {
		w.Header().Set(metaPrefix+k, v)
	}
}
