// Package attr translates raw OS stat and statfs structures into the
// attribute records the mount driver consumes.
package attr

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/mirrorfs/mirrorfs/pkg/types"
)

// permMask selects the permission and sticky/setuid/setgid bits of a mode.
const permMask = 0o7777

// ModeToType classifies a stat mode by its format bits. The OS contract
// guarantees one of the seven known formats; anything else signals an
// ABI mismatch upstream, so the call panics instead of guessing.
func ModeToType(mode uint32) types.FileType {
	switch mode & unix.S_IFMT {
	case unix.S_IFDIR:
		return types.TypeDirectory
	case unix.S_IFREG:
		return types.TypeRegularFile
	case unix.S_IFLNK:
		return types.TypeSymlink
	case unix.S_IFBLK:
		return types.TypeBlockDevice
	case unix.S_IFCHR:
		return types.TypeCharDevice
	case unix.S_IFIFO:
		return types.TypeNamedPipe
	case unix.S_IFSOCK:
		return types.TypeSocket
	default:
		panic(fmt.Sprintf("unknown file type in mode %#o", mode))
	}
}

// StatToAttributes converts a raw stat structure into a FileAttributes
// record. The mode field encodes both the kind and the permissions.
// Creation time is not available from this stat form and is reported as
// the epoch origin.
func StatToAttributes(st *unix.Stat_t) types.FileAttributes {
	return types.FileAttributes{
		Size:   uint64(st.Size),
		Blocks: uint64(st.Blocks),
		Atime:  time.Unix(st.Atim.Unix()),
		Mtime:  time.Unix(st.Mtim.Unix()),
		Ctime:  time.Unix(st.Ctim.Unix()),
		Crtime: time.Unix(0, 0),
		Type:   ModeToType(st.Mode),
		Perm:   uint16(st.Mode & permMask),
		Nlink:  uint32(st.Nlink),
		UID:    st.Uid,
		GID:    st.Gid,
		Rdev:   uint32(st.Rdev),
		Flags:  0,
	}
}

// StatfsToStats converts a raw statfs structure into a FilesystemStats
// record, coercing the platform-sized fields to the exposed widths.
func StatfsToStats(st *unix.Statfs_t) types.FilesystemStats {
	return types.FilesystemStats{
		Blocks:  st.Blocks,
		Bfree:   st.Bfree,
		Bavail:  st.Bavail,
		Files:   st.Files,
		Ffree:   st.Ffree,
		Bsize:   uint32(st.Bsize),
		NameLen: uint32(st.Namelen),
		Frsize:  uint32(st.Frsize),
	}
}
