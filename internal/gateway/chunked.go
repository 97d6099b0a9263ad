package gateway

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
)

// isChunkedBody reports whether buffered body/headers indicate
// aws-chunked framing, checking the decoded-content-length header,
// the Content-Encoding header, and finally sniffing the body itself.
func isChunkedBody(r *http.Request, body []byte) bool {
	if r.Header.Get("x-amz-decoded-content-length") != "" {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Encoding"), "aws-chunked") {
		return true
	}
	return sniffChunkSizeLine(body) != -1
}

// sniffChunkSizeLine looks for a CRLF within the first 100 bytes of
// body whose preceding text parses as a chunk size line
// (hex_size[;chunk-signature=…]); returns the index just past the
// CRLF, or -1 if none is found.
func sniffChunkSizeLine(body []byte) int {
	limit := len(body)
	if limit > 100 {
		limit = 100
	}
	idx := bytes.Index(body[:limit], []byte("\r\n"))
	if idx < 0 {
		return -1
	}
	line := string(body[:idx])
	sizeField := strings.SplitN(line, ";", 2)[0]
	if sizeField == "" {
		return -1
	}
	if _, err := strconv.ParseInt(sizeField, 16, 64); err != nil {
		return -1
	}
	return idx + 2
}

// decodeChunkedBody strips aws-chunked framing from body. Malformed
// framing or an empty decode returns ok=false, and the caller should
// fall back to treating body as raw.
func decodeChunkedBody(body []byte) (decoded []byte, ok bool) {
	var out bytes.Buffer
	remaining := body

	for {
		limit := len(remaining)
		if limit > 100 {
			limit = 100
		}
		crlf := bytes.Index(remaining[:limit], []byte("\r\n"))
		if crlf < 0 {
			return nil, false
		}

		sizeField := strings.SplitN(string(remaining[:crlf]), ";", 2)[0]
		chunkSize, err := strconv.ParseInt(sizeField, 16, 64)
		if err != nil || chunkSize < 0 {
			return nil, false
		}

		remaining = remaining[crlf+2:]
		if chunkSize == 0 {
			break
		}
		if int64(len(remaining)) < chunkSize {
			return nil, false
		}

		out.Write(remaining[:chunkSize])
		remaining = remaining[chunkSize:]
		if bytes.HasPrefix(remaining, []byte("\r\n")) {
			remaining = remaining[2:]
		}
	}

	if out.Len() == 0 {
		return nil, false
	}
	return out.Bytes(), true
}

// maybeDecodeChunked applies decodeChunkedBody when the request
// indicates aws-chunked framing, otherwise returns body unchanged.
func maybeDecodeChunked(r *http.Request, body []byte) []byte {
	if !isChunkedBody(r, body) {
		return body
	}
	if decoded, ok := decodeChunkedBody(body); ok {
		return decoded
	}
	return body
}
