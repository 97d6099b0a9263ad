package gateway

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/functionland/fula-gateway/internal/blockstore"
	"github.com/functionland/fula-gateway/internal/bucketmgr"
	"github.com/functionland/fula-gateway/internal/config"
	"github.com/functionland/fula-gateway/internal/gwlog"
	"github.com/functionland/fula-gateway/internal/multipart"
)

// State is the single long-lived container every handler borrows from:
// block store, bucket manager, multipart manager, and config are each
// owned by this one instance. Its lifetime is the process.
type State struct {
	Config    config.Config
	Store     blockstore.BlockStore
	Buckets   *bucketmgr.BucketManager
	Multipart *multipart.Manager
	Log       gwlog.Logger
}

// NewState builds a State, connecting to IPFS with a fall back to an
// in-memory store on failure, then loading the registry. A registry
// load failure is fatal only when a pointer path was configured and
// the pointer file already held content — an absent or never-written
// pointer file is a legitimate empty registry, not a reason to refuse
// to boot.
func NewState(ctx context.Context, cfg config.Config, log gwlog.Logger) (*State, error) {
	store := connectStore(ctx, cfg, log)

	var mgr *bucketmgr.BucketManager
	if cfg.RegistryCIDPath != "" {
		mgr = bucketmgr.WithPersistence(store, cfg.RegistryCIDPath)
		pointerExisted := pointerFileHasContent(cfg.RegistryCIDPath)
		n, err := mgr.LoadRegistry(ctx)
		if err != nil {
			if pointerExisted {
				return nil, fmt.Errorf("gateway: registry load failed, refusing to start: %w", err)
			}
			log.WithField("error", err.Error()).Print(gwlog.LevelWarn, "registry load failed for absent pointer, starting empty")
		} else {
			log.WithField("buckets", n).Print(gwlog.LevelInfo, "registry loaded")
		}
	} else {
		mgr = bucketmgr.New(store)
	}

	return &State{
		Config:    cfg,
		Store:     store,
		Buckets:   mgr,
		Multipart: multipart.New(),
		Log:       log,
	}, nil
}

// PersistOnShutdown flushes the registry one last time before the
// process exits, mirroring the same write-after-every-mutating-op
// guarantee the pointer file gets during normal operation.
func (s *State) PersistOnShutdown(ctx context.Context) {
	if err := s.Buckets.PersistRegistry(ctx); err != nil {
		s.Log.WithField("error", err.Error()).Print(gwlog.LevelWarn, "final registry persist failed")
	}
}

func pointerFileHasContent(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) != ""
}

// connectStore attempts to reach the configured IPFS node; on failure
// it logs a warning and falls back to an in-memory store.
func connectStore(ctx context.Context, cfg config.Config, log gwlog.Logger) blockstore.BlockStore {
	ipfs := blockstore.NewIPFSStore(cfg.IPFSURL)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := ipfs.Ping(pingCtx); err != nil {
		log.WithField("ipfs_url", cfg.IPFSURL).
			WithField("error", err.Error()).
			Print(gwlog.LevelWarn, "ipfs connect failed, falling back to in-memory store")
		return blockstore.NewMemoryStore()
	}
	return ipfs
}

// persistBestEffort runs BucketManager.PersistRegistry and logs rather
// than propagates failure: a persistence failure after a mutation has
// already succeeded should not turn into an error response.
func (s *State) persistBestEffort(ctx context.Context) {
	if err := s.Buckets.PersistRegistry(ctx); err != nil {
		s.Log.WithField("error", err.Error()).Print(gwlog.LevelWarn, "registry persist failed")
	}
}

// doFlushAndPersist flushes h, persists the registry, and fires off an
// advisory pin of the new bucket root — in that order, since the
// registry persist must happen after the bucket flush it references.
// The pin is named "bucket:"+name.
func (s *State) doFlushAndPersist(ctx context.Context, h *bucketmgr.BucketHandle, bucketName string) {
	rootCID, err := h.Flush(ctx)
	if err != nil {
		s.Log.WithField("bucket", bucketName).WithField("error", err.Error()).Print(gwlog.LevelWarn, "bucket flush failed")
		return
	}
	s.persistBestEffort(ctx)
	s.pinFireAndForget(rootCID, "bucket:"+bucketName)
}

// pinFireAndForget requests the store pin cid under name without
// blocking the response path. The pin is explicitly leaked past
// process shutdown; that's acceptable since pins are always advisory.
func (s *State) pinFireAndForget(cid, name string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Store.Pin(ctx, cid, name); err != nil {
			s.Log.WithField("cid", cid).WithField("error", err.Error()).Print(gwlog.LevelWarn, "pin failed")
		}
	}()
}

// RunRegistryWatcher polls the registry pointer file every 30 seconds
// and reloads the registry when its trimmed contents change. It
// returns when ctx is cancelled.
func (s *State) RunRegistryWatcher(ctx context.Context) {
	if s.Config.RegistryCIDPath == "" {
		return
	}

	last, _ := readTrimmed(s.Config.RegistryCIDPath)
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current, err := readTrimmed(s.Config.RegistryCIDPath)
			if err != nil {
				s.Log.WithField("error", err.Error()).Print(gwlog.LevelError, "registry watcher read failed")
				continue
			}
			if current == last {
				continue
			}
			last = current
			if _, err := s.Buckets.LoadRegistry(ctx); err != nil {
				s.Log.WithField("error", err.Error()).Print(gwlog.LevelError, "registry watcher reload failed")
			}
		}
	}
}

func readTrimmed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// RunMultipartExpiry periodically sweeps expired multipart uploads.
func (s *State) RunMultipartExpiry(ctx context.Context) {
	if s.Config.MultipartExpirySecs <= 0 {
		return
	}
	maxAge := time.Duration(s.Config.MultipartExpirySecs) * time.Second
	ticker := time.NewTicker(maxAge / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Multipart.CleanupExpired(maxAge); n > 0 {
				s.Log.WithField("count", n).Print(gwlog.LevelInfo, "expired multipart uploads swept")
			}
		}
	}
}
