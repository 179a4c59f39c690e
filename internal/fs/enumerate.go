package fs

import (
	"os"
	"path/filepath"

	"github.com/mirrorfs/mirrorfs/internal/attr"
	"github.com/mirrorfs/mirrorfs/internal/sysgate"
	"github.com/mirrorfs/mirrorfs/pkg/types"
)

// listEntries enumerates a real directory and classifies each entry by
// type. The directory-listing primitive does not reliably report type,
// so every entry is lstat'ed individually. Entries come back in readdir
// order, which is unspecified. Any failure aborts the whole listing.
func listEntries(realPath string) ([]types.DirEntry, error) {
	dir, err := os.Open(realPath)
	if err != nil {
		return nil, err
	}
	defer dir.Close()

	names, err := dir.Readdirnames(-1)
	if err != nil {
		return nil, err
	}

	entries := make([]types.DirEntry, 0, len(names))
	for _, name := range names {
		st, err := sysgate.Lstat(filepath.Join(realPath, name))
		if err != nil {
			return nil, err
		}
		entries = append(entries, types.DirEntry{
			Name: name,
			Type: attr.ModeToType(st.Mode),
		})
	}
	return entries, nil
}
