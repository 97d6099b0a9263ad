package blockstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// IPFSStore talks to a Kubo-compatible IPFS HTTP API, the only
// transport the gateway needs from its backing store. It is a plain
// net/http client, in gofakes3's own style: that codebase never
// reaches for an HTTP client framework, only the standard library's
// http.Client.
type IPFSStore struct {
	baseURL string
	client  *http.Client
}

// NewIPFSStore builds a store against the Kubo RPC API at baseURL
// (e.g. "http://127.0.0.1:5001"). It does not itself verify
// connectivity; callers should make one PutBlock/identity call to
// confirm the node is reachable before trusting IsPersistent().
func NewIPFSStore(baseURL string) *IPFSStore {
	return &IPFSStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Ping confirms the node is reachable by calling /api/v0/id.
func (s *IPFSStore) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v0/id", nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ipfs: id check failed with status %d", resp.StatusCode)
	}
	return nil
}

func (s *IPFSStore) multipartPost(ctx context.Context, apiPath string, query url.Values, data []byte) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "block")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	u := s.baseURL + apiPath
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ipfs: %s returned status %d: %s", apiPath, resp.StatusCode, string(out))
	}
	return out, nil
}

// PutBlock stores a raw block via /api/v0/block/put, using the same
// blake3-derived CID scheme as the in-memory store so the gateway's
// persisted data remains addressable identically regardless of which
// backend produced it.
func (s *IPFSStore) PutBlock(ctx context.Context, data []byte) (string, error) {
	cid := CIDForBytes(data)
	q := url.Values{}
	q.Set("cid-codec", "raw")
	q.Set("mhtype", "blake3")
	q.Set("pin", "false")
	if _, err := s.multipartPost(ctx, "/api/v0/block/put", q, data); err != nil {
		return "", err
	}
	return cid, nil
}

// GetBlock fetches a raw block via /api/v0/block/get.
func (s *IPFSStore) GetBlock(ctx context.Context, cid string) ([]byte, error) {
	u := fmt.Sprintf("%s/api/v0/block/get?arg=%s", s.baseURL, url.QueryEscape(cid))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusInternalServerError {
		return nil, ErrNotFound
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ipfs: block/get returned status %d", resp.StatusCode)
	}
	return data, nil
}

// PutIPLD stores v (marshaled to JSON) as a dag-json node via
// /api/v0/dag/put.
func (s *IPFSStore) PutIPLD(ctx context.Context, v interface{}) (string, error) {
	data, err := MarshalIPLD(v)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("store-codec", "dag-json")
	q.Set("input-codec", "dag-json")
	q.Set("pin", "false")
	out, err := s.multipartPost(ctx, "/api/v0/dag/put", q, data)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Cid struct {
			Slash string `json:"/"`
		} `json:"Cid"`
	}
	if err := json.Unmarshal(out, &parsed); err != nil {
		return "", fmt.Errorf("ipfs: malformed dag/put response: %w", err)
	}
	if parsed.Cid.Slash == "" {
		return "", fmt.Errorf("ipfs: dag/put response missing Cid")
	}
	return parsed.Cid.Slash, nil
}

// Pin requests the node retain cid indefinitely.
func (s *IPFSStore) Pin(ctx context.Context, cid string, name string) error {
	q := url.Values{}
	q.Set("arg", cid)
	if name != "" {
		q.Set("name", name)
	}
	u := s.baseURL + "/api/v0/pin/add?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ipfs: pin/add returned status %d: %s", resp.StatusCode, string(out))
	}
	return nil
}

func (s *IPFSStore) IsPersistent() bool { return true }
