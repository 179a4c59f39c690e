package fs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/mirrorfs/mirrorfs/pkg/types"
)

// MountConfig holds the kernel-facing mount parameters.
type MountConfig struct {
	MountPoint    string
	FsName        string        // filesystem name tag shown in mount tables
	AllowOther    bool          // let users other than the mounter access the tree
	Debug         bool          // kernel protocol tracing
	MaxBackground int           // concurrency degree for queued kernel requests
	AttrTimeout   time.Duration // how long the kernel may cache attributes
}

// Mount ties a MirrorFS to a mount point for the lifetime of a Run call.
type Mount struct {
	mfs     *MirrorFS
	cfg     *MountConfig
	server  *fuse.Server
	mounted atomic.Bool
	mu      sync.Mutex
}

// NewMount creates a Mount. The mount point must be set; everything else
// has a usable zero value.
func NewMount(mfs *MirrorFS, cfg *MountConfig) (*Mount, error) {
	if cfg.MountPoint == "" {
		return nil, types.ErrInvalidMountPoint
	}
	return &Mount{mfs: mfs, cfg: cfg}, nil
}

// Run mounts the filesystem and blocks until the context is cancelled,
// then unmounts. The mount is read-write; write operations are simply
// not implemented by the node tree.
func (mt *Mount) Run(ctx context.Context) error {
	root := &mirrorDir{
		mirrorNode: mirrorNode{
			mfs:         mt.mfs,
			virtualPath: "/",
		},
	}

	ttl := mt.cfg.AttrTimeout
	opts := &fs.Options{
		AttrTimeout:  &ttl,
		EntryTimeout: &ttl,
		MountOptions: fuse.MountOptions{
			AllowOther:    mt.cfg.AllowOther,
			FsName:        mt.cfg.FsName,
			Name:          mt.cfg.FsName,
			Debug:         mt.cfg.Debug,
			MaxBackground: mt.cfg.MaxBackground,
		},
	}

	server, err := fs.Mount(mt.cfg.MountPoint, root, opts)
	if err != nil {
		return err
	}

	mt.mu.Lock()
	mt.server = server
	mt.mounted.Store(true)
	mt.mu.Unlock()

	mt.mfs.Init()

	<-ctx.Done()

	if err := server.Unmount(); err != nil {
		return err
	}
	mt.mounted.Store(false)
	mt.mfs.Destroy()

	return ctx.Err()
}

// IsMounted returns true while the filesystem is mounted.
func (mt *Mount) IsMounted() bool {
	return mt.mounted.Load()
}
