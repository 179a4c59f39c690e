package fs

import (
	"sync/atomic"
	"syscall"

	"github.com/mirrorfs/mirrorfs/internal/sysgate"
)

// Handle owns one raw descriptor for the duration of an open → read* →
// release sequence. The descriptor outlives every individual read call
// made on it, so nothing on the read path may own it: reads go straight
// through the stateless syscall gateway, never through an os.File or any
// other wrapper whose cleanup would close the descriptor. Only an
// explicit release closes it, exactly once.
type Handle struct {
	fd       uint64
	path     string // virtual path, for diagnostics
	released atomic.Bool
}

func newHandle(fd uint64, path string) *Handle {
	return &Handle{fd: fd, path: path}
}

// Fd returns the raw descriptor.
func (h *Handle) Fd() uint64 {
	return h.fd
}

// Path returns the virtual path the handle was opened for.
func (h *Handle) Path() string {
	return h.path
}

// readAt seeks the descriptor to the absolute offset and reads up to
// len(buf) bytes. A short or zero-length read at end-of-file is success.
// A failed seek or read fails this request only; the descriptor stays
// valid for subsequent requests.
func (h *Handle) readAt(buf []byte, offset int64) (int, error) {
	if h.released.Load() {
		return 0, syscall.EBADF
	}
	if err := sysgate.Seek(h.fd, offset); err != nil {
		return 0, err
	}
	return sysgate.Read(h.fd, buf)
}

// close releases the descriptor. The swap guarantees close(2) runs at
// most once per handle; the OS may reissue the integer to a new file the
// moment it is closed.
func (h *Handle) close() error {
	if !h.released.CompareAndSwap(false, true) {
		return syscall.EBADF
	}
	return sysgate.Close(h.fd)
}
