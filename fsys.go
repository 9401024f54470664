package jaudio

import (
	"fmt"
	"path/filepath"

	"codeberg.org/go-mmap/mmap"
)

// FileSystem is the two-root collaborator described in §6: an archive
// path (opened directly by internal/aaf) and a directory of raw `.aw`
// sample files, read lazily as the wavesystem parser resolves each
// wave. It implements wsys.AWSource, mapping each `.aw` file through
// codeberg.org/go-mmap/mmap the same way internal/aaf maps the archive
// itself and the teacher's internal/mul.Reader maps its `.mul`/`.idx`
// pair (DESIGN.md).
type FileSystem struct {
	ArchivePath string
	WavesDir    string
}

// NewFileSystem binds an archive file and the directory containing its
// sibling `.aw` files (§6 "File system").
func NewFileSystem(archivePath, wavesDir string) *FileSystem {
	return &FileSystem{ArchivePath: archivePath, WavesDir: wavesDir}
}

// ReadAt mmaps name under the waves directory and reads size bytes
// starting at offset, satisfying wsys.AWSource.
func (fs *FileSystem) ReadAt(name string, offset int64, size int) ([]byte, error) {
	path := filepath.Join(fs.WavesDir, name)
	f, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("jaudio: open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, size)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("jaudio: read %s at %d: %w", path, offset, err)
	}
	return buf, nil
}
