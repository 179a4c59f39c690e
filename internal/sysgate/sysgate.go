// Package sysgate wraps the raw OS calls the mirror filesystem forwards to.
// Each wrapper either returns a fully populated structure or the OS error;
// partially populated output is never handed to callers.
package sysgate

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/mirrorfs/mirrorfs/pkg/types"
)

// Lstat stats a path without following a trailing symlink.
func Lstat(path string) (*unix.Stat_t, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return nil, &types.PathError{Op: "lstat", Path: path, Err: err}
	}
	return &st, nil
}

// Stat stats a path, following symlinks.
func Stat(path string) (*unix.Stat_t, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, &types.PathError{Op: "stat", Path: path, Err: err}
	}
	return &st, nil
}

// Fstat stats an open descriptor.
func Fstat(fd uint64) (*unix.Stat_t, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(fd), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Statfs queries capacity information for the filesystem containing path.
func Statfs(path string) (*unix.Statfs_t, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return nil, &types.PathError{Op: "statfs", Path: path, Err: err}
	}
	return &st, nil
}

// Open opens path with the caller-supplied flags forwarded verbatim and
// returns the new raw descriptor as an opaque 64-bit handle.
func Open(path string, flags int) (uint64, error) {
	fd, err := unix.Open(path, flags, 0)
	if err != nil {
		return 0, &types.PathError{Op: "open", Path: path, Err: err}
	}
	return uint64(fd), nil
}

// Close releases a raw descriptor. Calling it twice on the same value is
// undefined: the OS may have reissued the integer to a new file. Callers
// must guarantee a single release.
func Close(fd uint64) error {
	return unix.Close(int(fd))
}

// Seek repositions the descriptor to an absolute offset.
func Seek(fd uint64, offset int64) error {
	_, err := unix.Seek(int(fd), offset, 0)
	return err
}

// Read reads from the descriptor's current position into buf, returning
// the number of bytes read. A zero count with a nil error is end-of-file.
func Read(fd uint64, buf []byte) (int, error) {
	return unix.Read(int(fd), buf)
}

// Errno extracts the POSIX error code from err. When no code can be
// retrieved the result defaults to ENOENT rather than inventing a new
// taxonomy value.
func Errno(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return syscall.ENOENT
}
