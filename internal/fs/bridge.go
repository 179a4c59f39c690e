package fs

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/mirrorfs/mirrorfs/pkg/types"
)

// mirrorNode is the state shared by every node of the mounted tree: the
// dispatcher and the virtual path the node represents.
type mirrorNode struct {
	fs.Inode
	mfs         *MirrorFS
	virtualPath string
}

// virtualPathFor returns the virtual path of a child entry.
func (n *mirrorNode) virtualPathFor(name string) string {
	if n.virtualPath == "/" {
		return "/" + name
	}
	return n.virtualPath + "/" + name
}

// Getattr implements fs.NodeGetattrer. A supplied file handle routes the
// lookup through the open descriptor; otherwise the path is used.
func (n *mirrorNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	var h *Handle
	if mfh, ok := fh.(*mirrorFileHandle); ok {
		h = mfh.h
	}
	attrs, errno := n.mfs.GetAttr(n.virtualPath, h)
	if errno != 0 {
		return errno
	}
	fillAttr(attrs, &out.Attr)
	return fs.OK
}

// Statfs implements fs.NodeStatfser.
func (n *mirrorNode) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	stats, errno := n.mfs.StatFS(n.virtualPath)
	if errno != 0 {
		return errno
	}
	fillStatfs(stats, out)
	return fs.OK
}

// mirrorDir is a directory of the mounted tree. The mount root is a
// mirrorDir with virtual path "/".
type mirrorDir struct {
	mirrorNode
}

var _ = (fs.NodeGetattrer)((*mirrorDir)(nil))
var _ = (fs.NodeStatfser)((*mirrorDir)(nil))
var _ = (fs.NodeLookuper)((*mirrorDir)(nil))
var _ = (fs.NodeOpendirer)((*mirrorDir)(nil))
var _ = (fs.NodeReaddirer)((*mirrorDir)(nil))

// Lookup implements fs.NodeLookuper.
func (d *mirrorDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	virtualPath := d.virtualPathFor(name)

	attrs, errno := d.mfs.GetAttr(virtualPath, nil)
	if errno != 0 {
		return nil, errno
	}
	fillAttr(attrs, &out.Attr)

	var child fs.InodeEmbedder
	switch attrs.Type {
	case types.TypeDirectory:
		child = &mirrorDir{mirrorNode: mirrorNode{mfs: d.mfs, virtualPath: virtualPath}}
	case types.TypeSymlink:
		child = &mirrorSymlink{mirrorNode: mirrorNode{mfs: d.mfs, virtualPath: virtualPath}}
	default:
		child = &mirrorFile{mirrorNode: mirrorNode{mfs: d.mfs, virtualPath: virtualPath}}
	}

	return d.NewInode(ctx, child, fs.StableAttr{Mode: typeToMode(attrs.Type)}), fs.OK
}

// Opendir implements fs.NodeOpendirer.
func (d *mirrorDir) Opendir(ctx context.Context) syscall.Errno {
	return d.mfs.OpenDir(d.virtualPath)
}

// Readdir implements fs.NodeReaddirer.
func (d *mirrorDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries, errno := d.mfs.ReadDir(d.virtualPath)
	if errno != 0 {
		return nil, errno
	}

	result := make([]fuse.DirEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, fuse.DirEntry{
			Name: entry.Name,
			Mode: typeToMode(entry.Type),
		})
	}

	return &dirStream{
		DirStream: fs.NewListDirStream(result),
		mfs:       d.mfs,
		path:      d.virtualPath,
	}, fs.OK
}

// dirStream wraps the listing stream so the dispatcher's ReleaseDir runs
// when the kernel closes the directory.
type dirStream struct {
	fs.DirStream
	mfs  *MirrorFS
	path string
}

func (s *dirStream) Close() {
	s.mfs.ReleaseDir(s.path)
	s.DirStream.Close()
}

// mirrorFile is a non-directory, non-symlink node of the mounted tree.
type mirrorFile struct {
	mirrorNode
}

var _ = (fs.NodeGetattrer)((*mirrorFile)(nil))
var _ = (fs.NodeStatfser)((*mirrorFile)(nil))
var _ = (fs.NodeOpener)((*mirrorFile)(nil))

// Open implements fs.NodeOpener.
func (f *mirrorFile) Open(ctx context.Context, flags uint32) (fh fs.FileHandle, fuseFlags uint32, errno syscall.Errno) {
	h, _, errno := f.mfs.Open(f.virtualPath, int(flags))
	if errno != 0 {
		return nil, 0, errno
	}
	return &mirrorFileHandle{mfs: f.mfs, h: h}, 0, fs.OK
}

// mirrorFileHandle is the mount driver's view of one open → read* →
// release bracket. It holds the owning Handle; every operation delegates
// to the dispatcher, which is the only code that ever closes the
// descriptor.
type mirrorFileHandle struct {
	mfs *MirrorFS
	h   *Handle
}

var _ = (fs.FileReader)((*mirrorFileHandle)(nil))
var _ = (fs.FileReleaser)((*mirrorFileHandle)(nil))
var _ = (fs.FileGetattrer)((*mirrorFileHandle)(nil))

// Read implements fs.FileReader.
func (fh *mirrorFileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, errno := fh.mfs.Read(fh.h, off, len(dest))
	if errno != 0 {
		return nil, errno
	}
	return fuse.ReadResultData(data), fs.OK
}

// Release implements fs.FileReleaser.
func (fh *mirrorFileHandle) Release(ctx context.Context) syscall.Errno {
	return fh.mfs.Release(fh.h)
}

// Getattr implements fs.FileGetattrer.
func (fh *mirrorFileHandle) Getattr(ctx context.Context, out *fuse.AttrOut) syscall.Errno {
	attrs, errno := fh.mfs.GetAttr(fh.h.Path(), fh.h)
	if errno != 0 {
		return errno
	}
	fillAttr(attrs, &out.Attr)
	return fs.OK
}

// mirrorSymlink is a symbolic link of the mounted tree.
type mirrorSymlink struct {
	mirrorNode
}

var _ = (fs.NodeGetattrer)((*mirrorSymlink)(nil))
var _ = (fs.NodeReadlinker)((*mirrorSymlink)(nil))

// Readlink implements fs.NodeReadlinker.
func (s *mirrorSymlink) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	target, errno := s.mfs.ReadLink(s.virtualPath)
	if errno != 0 {
		return nil, errno
	}
	return []byte(target), fs.OK
}

// typeToMode maps a file type back to the stat format bits the kernel
// protocol expects.
func typeToMode(t types.FileType) uint32 {
	switch t {
	case types.TypeDirectory:
		return fuse.S_IFDIR
	case types.TypeRegularFile:
		return fuse.S_IFREG
	case types.TypeSymlink:
		return fuse.S_IFLNK
	case types.TypeBlockDevice:
		return syscall.S_IFBLK
	case types.TypeCharDevice:
		return syscall.S_IFCHR
	case types.TypeNamedPipe:
		return syscall.S_IFIFO
	case types.TypeSocket:
		return syscall.S_IFSOCK
	default:
		return 0
	}
}

// fillAttr copies a FileAttributes record into the kernel attribute
// structure.
func fillAttr(a types.FileAttributes, out *fuse.Attr) {
	out.Mode = typeToMode(a.Type) | uint32(a.Perm)
	out.Size = a.Size
	out.Blocks = a.Blocks
	out.Atime = uint64(a.Atime.Unix())
	out.Atimensec = uint32(a.Atime.Nanosecond())
	out.Mtime = uint64(a.Mtime.Unix())
	out.Mtimensec = uint32(a.Mtime.Nanosecond())
	out.Ctime = uint64(a.Ctime.Unix())
	out.Ctimensec = uint32(a.Ctime.Nanosecond())
	out.Nlink = a.Nlink
	out.Owner = fuse.Owner{Uid: a.UID, Gid: a.GID}
	out.Rdev = a.Rdev
}

// fillStatfs copies a FilesystemStats record into the kernel statfs
// structure.
func fillStatfs(s types.FilesystemStats, out *fuse.StatfsOut) {
	out.Blocks = s.Blocks
	out.Bfree = s.Bfree
	out.Bavail = s.Bavail
	out.Files = s.Files
	out.Ffree = s.Ffree
	out.Bsize = s.Bsize
	out.NameLen = s.NameLen
	out.Frsize = s.Frsize
}
