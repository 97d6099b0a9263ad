package gateway

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// byteRange is an inclusive, already-clamped [Start, End] range into an
// object of a known size.
type byteRange struct {
	Start, End int64
}

// parseRange implements three range forms (`a-b`, `a-`,
// `-n`), rejecting overlap and out-of-bounds starts and clamping the
// end to size-1. A missing or malformed header yields ok=false, which
// callers treat as "serve the whole object".
func parseRange(header string, size int64) (br byteRange, ok bool) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return byteRange{}, false
	}
	spec := strings.TrimPrefix(header, prefix)
	// Only the first range is honored; multi-range requests are not
	// supported.
	spec = strings.SplitN(spec, ",", 2)[0]

	dash := strings.Index(spec, "-")
	if dash < 0 {
		return byteRange{}, false
	}
	startStr, endStr := spec[:dash], spec[dash+1:]

	var start, end int64
	switch {
	case startStr == "" && endStr != "":
		// "-n": last n bytes.
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return byteRange{}, false
		}
		start = size - n
		if start < 0 {
			start = 0
		}
		end = size - 1
	case startStr != "" && endStr == "":
		// "a-": from a to end.
		s, err := strconv.ParseInt(startStr, 10, 64)
		if err != nil || s < 0 {
			return byteRange{}, false
		}
		start = s
		end = size - 1
	case startStr != "" && endStr != "":
		s, err1 := strconv.ParseInt(startStr, 10, 64)
		e, err2 := strconv.ParseInt(endStr, 10, 64)
		if err1 != nil || err2 != nil || s < 0 || e < 0 {
			return byteRange{}, false
		}
		start, end = s, e
	default:
		return byteRange{}, false
	}

	if start > end || start >= size {
		return byteRange{}, false
	}
	if end > size-1 {
		end = size - 1
	}
	return byteRange{Start: start, End: end}, true
}

// ContentRangeHeader formats the Content-Range header value for br
// against an object of the given total size.
func (br byteRange) ContentRangeHeader(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", br.Start, br.End, size)
}

// Len returns the number of bytes the range covers.
func (br byteRange) Len() int64 { return br.End - br.Start + 1 }

// evaluateConditionalGet implements the short-circuit conditional
// check order: If-None-Match first, then If-Modified-Since. Returns
// true when the response should be a bare 304.
func evaluateConditionalGet(r *http.Request, etag string, lastModified time.Time) bool {
	if inm := r.Header.Get("If-None-Match"); inm != "" {
		if inm == "*" || inm == `"`+etag+`"` || inm == etag {
			return true
		}
	}
	if ims := r.Header.Get("If-Modified-Since"); ims != "" {
		if since, err := time.Parse(time.RFC1123, ims); err == nil {
			if !lastModified.After(since) {
				return true
			}
		}
	}
	return false
}

// httpTimeFormat renders t as an RFC 1123 HTTP-date.
func httpTimeFormat(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}
