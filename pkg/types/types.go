// Package types defines the core domain types for the mirror filesystem.
package types

import (
	"time"
)

// FileType classifies a filesystem object, derived from the format bits
// of a stat mode field.
type FileType int

const (
	TypeDirectory FileType = iota
	TypeRegularFile
	TypeSymlink
	TypeBlockDevice
	TypeCharDevice
	TypeNamedPipe
	TypeSocket
)

// String returns a human-readable name for the file type.
func (t FileType) String() string {
	switch t {
	case TypeDirectory:
		return "directory"
	case TypeRegularFile:
		return "file"
	case TypeSymlink:
		return "symlink"
	case TypeBlockDevice:
		return "blockdev"
	case TypeCharDevice:
		return "chardev"
	case TypeNamedPipe:
		return "fifo"
	case TypeSocket:
		return "socket"
	default:
		return "unknown"
	}
}

// FileAttributes is the metadata record for a single filesystem object,
// translated from the OS stat structure. It is recomputed on every request;
// the real filesystem stays the single source of truth.
type FileAttributes struct {
	Size   uint64
	Blocks uint64
	Atime  time.Time
	Mtime  time.Time
	Ctime  time.Time
	Crtime time.Time // not available from stat; always the epoch
	Type   FileType
	Perm   uint16 // low 12 bits of the mode
	Nlink  uint32
	UID    uint32
	GID    uint32
	Rdev   uint32
	Flags  uint32
}

// FilesystemStats is the capacity record for the filesystem backing the
// source tree, translated from the OS statfs structure.
type FilesystemStats struct {
	Blocks  uint64 // total data blocks
	Bfree   uint64 // free blocks
	Bavail  uint64 // free blocks available to unprivileged users
	Files   uint64 // total inodes
	Ffree   uint64 // free inodes
	Bsize   uint32 // block size
	NameLen uint32 // maximum filename length
	Frsize  uint32 // fragment size
}

// DirEntry is one entry of a directory listing: the entry name and its
// resolved file type. Entries are produced transiently and not retained.
type DirEntry struct {
	Name string
	Type FileType
}
