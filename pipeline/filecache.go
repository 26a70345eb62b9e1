package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// FileCache is the optional on-disk image cache, organized by gallery title
// and item index. It lets a partially downloaded gallery resume across
// process restarts; it is a resumability aid, not authoritative state.
type FileCache struct {
	root string
}

// NewFileCache roots a cache at dir.
func NewFileCache(dir string) *FileCache {
	return &FileCache{root: dir}
}

func (fc *FileCache) path(gallery string, index int) string {
	return filepath.Join(fc.root, gallery, fmt.Sprintf("%d", index))
}

// Prepare creates the per-gallery directory.
func (fc *FileCache) Prepare(gallery string) error {
	return os.MkdirAll(filepath.Join(fc.root, gallery), 0o755)
}

// Get returns the cached bytes for one item, if present.
func (fc *FileCache) Get(gallery string, index int) ([]byte, bool) {
	data, err := os.ReadFile(fc.path(gallery, index))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put stores the bytes for one item. An existing file is left untouched.
func (fc *FileCache) Put(gallery string, index int, data []byte) {
	path := fc.path(gallery, index)
	if _, err := os.Stat(path); err == nil {
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to write image cache file")
	}
}
