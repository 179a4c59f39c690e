// Package fs implements a passthrough filesystem that mirrors a source
// directory: every operation is translated to a raw OS call against the
// real tree, so clients of the mount observe the same behavior they would
// get accessing the source directly.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/mirrorfs/mirrorfs/internal/attr"
	"github.com/mirrorfs/mirrorfs/internal/sysgate"
	"github.com/mirrorfs/mirrorfs/pkg/types"
)

// MirrorFS dispatches filesystem operations against the source root.
// The source root is fixed at construction and never mutated, so
// concurrent operations need no coordination at this layer.
type MirrorFS struct {
	sourceRoot string
	log        *zap.Logger
}

// New creates a MirrorFS exposing sourceRoot. The logger is optional;
// a nil logger disables diagnostics.
func New(sourceRoot string, logger *zap.Logger) (*MirrorFS, error) {
	if sourceRoot == "" {
		return nil, types.ErrInvalidSourceRoot
	}
	info, err := os.Stat(sourceRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, types.ErrInvalidSourceRoot
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MirrorFS{
		sourceRoot: sourceRoot,
		log:        logger,
	}, nil
}

// SourceRoot returns the real directory being mirrored.
func (m *MirrorFS) SourceRoot() string {
	return m.sourceRoot
}

// RealPath maps a virtual path, as presented by the mount driver, to the
// corresponding path under the source root. Virtual paths are always
// absolute; a relative input is a contract violation by the caller, not a
// runtime error.
func (m *MirrorFS) RealPath(virtual string) string {
	if !strings.HasPrefix(virtual, "/") {
		panic(fmt.Sprintf("virtual path %q is not absolute", virtual))
	}
	return filepath.Join(m.sourceRoot, virtual[1:])
}

// Init is the one-time readiness hook invoked after the mount is
// established. No state is prepared at this layer.
func (m *MirrorFS) Init() {
	m.log.Info("init", zap.String("sourceroot", m.sourceRoot))
}

// Destroy is the teardown hook invoked after unmount. There are no
// resources to release at this layer.
func (m *MirrorFS) Destroy() {
	m.log.Info("destroy")
}

// GetAttr returns the attributes for a virtual path. If an open handle is
// supplied the lookup goes through the descriptor; otherwise the path is
// stat'ed without following a trailing symlink.
func (m *MirrorFS) GetAttr(path string, h *Handle) (types.FileAttributes, syscall.Errno) {
	m.log.Debug("getattr", zap.String("path", path))
	var (
		st  *unix.Stat_t
		err error
	)
	if h != nil {
		st, err = sysgate.Fstat(h.Fd())
	} else {
		st, err = sysgate.Lstat(m.RealPath(path))
	}
	if err != nil {
		m.log.Error("getattr", zap.String("path", path), zap.Error(err))
		return types.FileAttributes{}, sysgate.Errno(err)
	}
	return attr.StatToAttributes(st), 0
}

// StatFS queries capacity information for the filesystem backing the
// source tree.
func (m *MirrorFS) StatFS(path string) (types.FilesystemStats, syscall.Errno) {
	m.log.Debug("statfs", zap.String("path", path))
	st, err := sysgate.Statfs(m.RealPath(path))
	if err != nil {
		m.log.Error("statfs", zap.String("path", path), zap.Error(err))
		return types.FilesystemStats{}, sysgate.Errno(err)
	}
	return attr.StatfsToStats(st), 0
}

// OpenDir acknowledges a directory open. Listing is stateless here, so no
// real resource is acquired and the call always succeeds.
func (m *MirrorFS) OpenDir(path string) syscall.Errno {
	m.log.Debug("opendir", zap.String("path", path), zap.String("real", m.RealPath(path)))
	return 0
}

// ReleaseDir is the counterpart of OpenDir; nothing was acquired, so
// nothing is released.
func (m *MirrorFS) ReleaseDir(path string) syscall.Errno {
	m.log.Debug("releasedir", zap.String("path", path))
	return 0
}

// ReadDir lists the entries of a virtual directory, each classified by
// type. The listing fails atomically: an error opening the directory or
// stat'ing any entry fails the whole call with no partial results.
func (m *MirrorFS) ReadDir(path string) ([]types.DirEntry, syscall.Errno) {
	real := m.RealPath(path)
	m.log.Debug("readdir", zap.String("path", path), zap.String("real", real))
	entries, err := listEntries(real)
	if err != nil {
		m.log.Error("readdir", zap.String("path", path), zap.Error(err))
		return nil, sysgate.Errno(err)
	}
	return entries, 0
}

// ReadLink resolves the target of a symbolic link.
func (m *MirrorFS) ReadLink(path string) (string, syscall.Errno) {
	m.log.Debug("readlink", zap.String("path", path))
	target, err := os.Readlink(m.RealPath(path))
	if err != nil {
		m.log.Error("readlink", zap.String("path", path), zap.Error(err))
		return "", sysgate.Errno(err)
	}
	return target, 0
}

// Open opens the real file behind a virtual path with the caller's flags
// forwarded verbatim, and returns the handle owning the new descriptor
// along with the echoed flags.
func (m *MirrorFS) Open(path string, flags int) (*Handle, int, syscall.Errno) {
	real := m.RealPath(path)
	m.log.Debug("open", zap.String("path", path), zap.String("real", real), zap.Int("flags", flags))
	fd, err := sysgate.Open(real, flags)
	if err != nil {
		m.log.Error("open", zap.String("path", path), zap.Error(err))
		return nil, 0, sysgate.Errno(err)
	}
	return newHandle(fd, path), flags, 0
}

// Release closes the handle's descriptor. The descriptor is closed at
// most once regardless of how often Release is called; a repeated release
// reports EBADF without touching the OS.
func (m *MirrorFS) Release(h *Handle) syscall.Errno {
	m.log.Debug("release", zap.String("path", h.Path()))
	if err := h.close(); err != nil {
		m.log.Error("release", zap.String("path", h.Path()), zap.Error(err))
		return sysgate.Errno(err)
	}
	return 0
}

// Read reads up to size bytes from the handle at the given absolute
// offset. The result may be shorter than requested at end-of-file; that
// is not an error. A failed read aborts only this request and leaves the
// handle valid for subsequent ones.
func (m *MirrorFS) Read(h *Handle, offset int64, size int) ([]byte, syscall.Errno) {
	m.log.Debug("read",
		zap.String("path", h.Path()),
		zap.Int64("offset", offset),
		zap.Int("size", size))
	buf := make([]byte, size)
	n, err := h.readAt(buf, offset)
	if err != nil {
		m.log.Error("read",
			zap.String("path", h.Path()),
			zap.Int64("offset", offset),
			zap.Error(err))
		return nil, sysgate.Errno(err)
	}
	return buf[:n], 0
}
