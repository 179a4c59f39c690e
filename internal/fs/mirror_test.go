package fs

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/mirrorfs/mirrorfs/pkg/types"
)

func newTestFS(t *testing.T) *MirrorFS {
	t.Helper()
	mfs, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return mfs
}

func writeSourceFile(t *testing.T, mfs *MirrorFS, name, content string) string {
	t.Helper()
	path := filepath.Join(mfs.SourceRoot(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestNew_MissingSourceRoot(t *testing.T) {
	_, err := New("/nonexistent/path/that/does/not/exist", nil)
	if err == nil {
		t.Error("New with a missing source root should fail")
	}
}

func TestNew_EmptySourceRoot(t *testing.T) {
	_, err := New("", nil)
	if err != types.ErrInvalidSourceRoot {
		t.Errorf("expected ErrInvalidSourceRoot, got: %v", err)
	}
}

func TestNew_SourceRootIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := New(path, nil)
	if err != types.ErrInvalidSourceRoot {
		t.Errorf("expected ErrInvalidSourceRoot, got: %v", err)
	}
}

func TestMirrorFS_RealPath(t *testing.T) {
	mfs := newTestFS(t)
	root := mfs.SourceRoot()

	cases := []struct {
		virtual string
		want    string
	}{
		{"/", root},
		{"/notes.txt", filepath.Join(root, "notes.txt")},
		{"/a/b/c", filepath.Join(root, "a", "b", "c")},
	}
	for _, c := range cases {
		if got := mfs.RealPath(c.virtual); got != c.want {
			t.Errorf("RealPath(%q) = %q, want %q", c.virtual, got, c.want)
		}
	}
}

func TestMirrorFS_RealPath_RelativeInputPanics(t *testing.T) {
	mfs := newTestFS(t)
	defer func() {
		if recover() == nil {
			t.Error("RealPath with a relative input should panic")
		}
	}()
	mfs.RealPath("notes.txt")
}

func TestMirrorFS_GetAttr_RoundTrip(t *testing.T) {
	mfs := newTestFS(t)
	real := writeSourceFile(t, mfs, "notes.txt", "0123456789012345678901234567890123456789ab")

	attrs, errno := mfs.GetAttr("/notes.txt", nil)
	if errno != 0 {
		t.Fatalf("GetAttr: %v", errno)
	}
	if attrs.Type != types.TypeRegularFile {
		t.Errorf("Type = %v, want regular file", attrs.Type)
	}
	if attrs.Size != 42 {
		t.Errorf("Size = %d, want 42", attrs.Size)
	}

	// Perm must equal the low 12 bits of the real file's mode
	var st unix.Stat_t
	if err := unix.Lstat(real, &st); err != nil {
		t.Fatalf("lstat %s: %v", real, err)
	}
	if uint32(attrs.Perm) != st.Mode&0o7777 {
		t.Errorf("Perm = %#o, want %#o", attrs.Perm, st.Mode&0o7777)
	}
}

func TestMirrorFS_GetAttr_Missing(t *testing.T) {
	mfs := newTestFS(t)
	_, errno := mfs.GetAttr("/missing", nil)
	if errno != syscall.ENOENT {
		t.Errorf("GetAttr on a missing path = %v, want ENOENT", errno)
	}
}

func TestMirrorFS_GetAttr_DoesNotFollowSymlinks(t *testing.T) {
	mfs := newTestFS(t)
	writeSourceFile(t, mfs, "target.txt", "content")
	if err := os.Symlink("target.txt", filepath.Join(mfs.SourceRoot(), "link")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	attrs, errno := mfs.GetAttr("/link", nil)
	if errno != 0 {
		t.Fatalf("GetAttr: %v", errno)
	}
	if attrs.Type != types.TypeSymlink {
		t.Errorf("Type = %v, want symlink", attrs.Type)
	}
}

func TestMirrorFS_GetAttr_ViaHandle(t *testing.T) {
	mfs := newTestFS(t)
	writeSourceFile(t, mfs, "notes.txt", "hello")

	h, _, errno := mfs.Open("/notes.txt", os.O_RDONLY)
	if errno != 0 {
		t.Fatalf("Open: %v", errno)
	}
	defer mfs.Release(h)

	attrs, errno := mfs.GetAttr("/notes.txt", h)
	if errno != 0 {
		t.Fatalf("GetAttr via handle: %v", errno)
	}
	if attrs.Size != 5 {
		t.Errorf("Size = %d, want 5", attrs.Size)
	}
}

func TestMirrorFS_StatFS(t *testing.T) {
	mfs := newTestFS(t)

	stats, errno := mfs.StatFS("/")
	if errno != 0 {
		t.Fatalf("StatFS: %v", errno)
	}
	if stats.Blocks == 0 {
		t.Error("Blocks = 0, want the backing filesystem's capacity")
	}
	if stats.Bsize == 0 {
		t.Error("Bsize = 0, want the backing filesystem's block size")
	}
	if stats.Bfree < stats.Bavail {
		t.Errorf("Bfree (%d) < Bavail (%d)", stats.Bfree, stats.Bavail)
	}
}

func TestMirrorFS_OpenDirReleaseDir_AlwaysSucceed(t *testing.T) {
	mfs := newTestFS(t)
	// Listing is stateless; even a missing path is accepted here
	if errno := mfs.OpenDir("/no/such/dir"); errno != 0 {
		t.Errorf("OpenDir = %v, want 0", errno)
	}
	if errno := mfs.ReleaseDir("/no/such/dir"); errno != 0 {
		t.Errorf("ReleaseDir = %v, want 0", errno)
	}
}

func TestMirrorFS_ReadDir_ClassifiesEntries(t *testing.T) {
	mfs := newTestFS(t)
	writeSourceFile(t, mfs, "file.txt", "data")
	if err := os.Mkdir(filepath.Join(mfs.SourceRoot(), "subdir"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.Symlink("file.txt", filepath.Join(mfs.SourceRoot(), "link")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	entries, errno := mfs.ReadDir("/")
	if errno != 0 {
		t.Fatalf("ReadDir: %v", errno)
	}
	if len(entries) != 3 {
		t.Fatalf("ReadDir returned %d entries, want 3", len(entries))
	}

	// Order is unspecified
	got := make(map[string]types.FileType, len(entries))
	for _, e := range entries {
		got[e.Name] = e.Type
	}
	if got["file.txt"] != types.TypeRegularFile {
		t.Errorf("file.txt classified as %v, want regular file", got["file.txt"])
	}
	if got["subdir"] != types.TypeDirectory {
		t.Errorf("subdir classified as %v, want directory", got["subdir"])
	}
	if got["link"] != types.TypeSymlink {
		t.Errorf("link classified as %v, want symlink", got["link"])
	}
}

func TestMirrorFS_ReadDir_Missing(t *testing.T) {
	mfs := newTestFS(t)
	_, errno := mfs.ReadDir("/missing")
	if errno != syscall.ENOENT {
		t.Errorf("ReadDir on a missing directory = %v, want ENOENT", errno)
	}
}

func TestMirrorFS_ReadLink(t *testing.T) {
	mfs := newTestFS(t)
	if err := os.Symlink("/some/target", filepath.Join(mfs.SourceRoot(), "link")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	target, errno := mfs.ReadLink("/link")
	if errno != 0 {
		t.Fatalf("ReadLink: %v", errno)
	}
	if target != "/some/target" {
		t.Errorf("ReadLink = %q, want %q", target, "/some/target")
	}
}

func TestMirrorFS_Open_Missing(t *testing.T) {
	mfs := newTestFS(t)
	_, _, errno := mfs.Open("/missing", os.O_RDONLY)
	if errno != syscall.ENOENT {
		t.Errorf("Open on a missing path = %v, want ENOENT", errno)
	}
}

func TestMirrorFS_Open_EchoesFlags(t *testing.T) {
	mfs := newTestFS(t)
	writeSourceFile(t, mfs, "notes.txt", "hello")

	h, flags, errno := mfs.Open("/notes.txt", os.O_RDONLY)
	if errno != 0 {
		t.Fatalf("Open: %v", errno)
	}
	defer mfs.Release(h)

	if flags != os.O_RDONLY {
		t.Errorf("echoed flags = %#x, want %#x", flags, os.O_RDONLY)
	}
}
