package bucketmgr

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ryszard/goskiplist/skiplist"
)

// bucketGraphDoc is the IPLD node shape for a single bucket's object
// graph, referenced by a bucketEntryDoc.RootCID.
type bucketGraphDoc struct {
	Objects map[string]ObjectMetadata `json:"objects"`
}

// bucketEntryDoc is one bucket's record inside the registry document.
type bucketEntryDoc struct {
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	OwnerID       string    `json:"owner_id"`
	OwnerDisplay  string    `json:"owner_display_name"`
	RootCID       string    `json:"root_cid"`
}

// registryDoc is the top-level IPLD node the registry pointer file's
// CID names: map[hashedUserID] -> bucket name -> entry.
type registryDoc struct {
	Users map[string]map[string]bucketEntryDoc `json:"users"`
}

// PersistRegistry flushes every open bucket, builds the registry
// document, writes it as a new IPLD node, and atomically rewrites the
// registry pointer file to the resulting CID. Called after every
// mutating request and on graceful shutdown.
func (m *BucketManager) PersistRegistry(ctx context.Context) error {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.reg.mu.RLock()
	type pending struct {
		user, name string
		state      *bucketState
	}
	var all []pending
	for user, buckets := range m.reg.users {
		it := buckets.Iterator()
		for it.Next() {
			all = append(all, pending{user, it.Key().(string), it.Value().(*bucketState)})
		}
		it.Close()
	}
	m.reg.mu.RUnlock()

	doc := registryDoc{Users: make(map[string]map[string]bucketEntryDoc)}
	for _, p := range all {
		h := &BucketHandle{state: p.state, store: m.store}
		cid, err := h.Flush(ctx)
		if err != nil {
			return fmt.Errorf("bucketmgr: flush %s/%s: %w", p.user, p.name, err)
		}

		p.state.mu.RLock()
		entry := bucketEntryDoc{
			Name:         p.state.name,
			CreatedAt:    p.state.createdAt,
			OwnerID:      p.state.owner.ID,
			OwnerDisplay: p.state.owner.DisplayName,
			RootCID:      cid,
		}
		p.state.mu.RUnlock()

		if doc.Users[p.user] == nil {
			doc.Users[p.user] = make(map[string]bucketEntryDoc)
		}
		doc.Users[p.user][p.name] = entry
	}

	cid, err := m.store.PutIPLD(ctx, doc)
	if err != nil {
		return fmt.Errorf("bucketmgr: persist registry document: %w", err)
	}

	if m.registryPath == "" {
		return nil
	}
	return writePointerFileAtomic(m.registryPath, cid)
}

// LoadRegistry reads the registry pointer file, fetches the registry
// document it names, and hydrates every bucket's object graph into
// memory. It returns the number of buckets loaded. An empty or absent
// pointer file yields an empty registry, not an error.
func (m *BucketManager) LoadRegistry(ctx context.Context) (int, error) {
	if m.registryPath == "" {
		return 0, nil
	}

	pointer, err := readPointerFile(m.registryPath)
	if err != nil {
		return 0, fmt.Errorf("bucketmgr: read registry pointer: %w", err)
	}
	if pointer == "" {
		m.reg.mu.Lock()
		m.reg.users = make(map[string]*skiplist.SkipList)
		m.reg.mu.Unlock()
		return 0, nil
	}

	docBytes, err := m.store.GetBlock(ctx, pointer)
	if err != nil {
		return 0, fmt.Errorf("bucketmgr: fetch registry document %s: %w", pointer, err)
	}

	var doc registryDoc
	if err := json.Unmarshal(docBytes, &doc); err != nil {
		return 0, fmt.Errorf("bucketmgr: malformed registry document: %w", err)
	}

	users := make(map[string]*skiplist.SkipList, len(doc.Users))
	count := 0
	for user, buckets := range doc.Users {
		loaded := skiplist.NewStringMap()
		for name, entry := range buckets {
			objects, err := m.loadBucketGraph(ctx, entry.RootCID)
			if err != nil {
				return 0, fmt.Errorf("bucketmgr: load bucket graph for %s/%s: %w", user, name, err)
			}
			loaded.Set(name, &bucketState{
				name:      entry.Name,
				createdAt: entry.CreatedAt,
				owner:     Owner{ID: entry.OwnerID, DisplayName: entry.OwnerDisplay},
				rootCID:   entry.RootCID,
				objects:   objects,
			})
			count++
		}
		users[user] = loaded
	}

	m.reg.mu.Lock()
	m.reg.users = users
	m.reg.mu.Unlock()
	return count, nil
}

// loadBucketGraph hydrates a bucket's object skiplist from its IPLD
// node, keyed and ordered the same way the live in-memory graph is.
func (m *BucketManager) loadBucketGraph(ctx context.Context, rootCID string) (*skiplist.SkipList, error) {
	sl := skiplist.NewStringMap()
	if rootCID == "" {
		return sl, nil
	}
	data, err := m.store.GetBlock(ctx, rootCID)
	if err != nil {
		return nil, err
	}
	var graph bucketGraphDoc
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, err
	}
	for k, v := range graph.Objects {
		sl.Set(k, v)
	}
	return sl, nil
}

// writePointerFileAtomic writes cid to path via a temp file + rename so
// a concurrent reader (the registry watcher, possibly in another
// process) never observes a partial write.
func writePointerFileAtomic(path, cid string) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(cid+"\n"), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
