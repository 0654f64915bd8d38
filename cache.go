package vhttpd

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/puzpuzpuz/xsync/v3"
)

// CachedFile is a served file's extension and text content.
type CachedFile struct {
	Ext     string
	Content string
}

// FileCache memoizes file contents by resolved path for the life of the
// process. Entries are never invalidated, so edits on disk are not picked up.
// The map is sharded internally and safe for concurrent use.
type FileCache struct {
	files *xsync.MapOf[string, CachedFile]
}

func NewFileCache() *FileCache {
	return &FileCache{
		files: xsync.NewMapOf[string, CachedFile](),
	}
}

func (c *FileCache) Get(path string) (CachedFile, bool) {
	return c.files.Load(path)
}

// GetOrLoad returns the cached entry for path or reads root/path from disk and
// caches it. Failures are not cached.
func (c *FileCache) GetOrLoad(root, path string) (CachedFile, error) {
	if file, ok := c.files.Load(path); ok {
		return file, nil
	}

	file, err := loadFile(root, path)
	if err != nil {
		return CachedFile{}, err
	}

	// a concurrent loader may have won; both read the same bytes
	actual, _ := c.files.LoadOrStore(path, file)
	return actual, nil
}

func (c *FileCache) Len() int {
	return c.files.Size()
}

// loadFile reads root/path. Any open or read failure is a not-found; content
// that is not UTF-8 is invalid data.
func loadFile(root, path string) (CachedFile, error) {
	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
	if err != nil {
		return CachedFile{}, Wrapf(err, ErrNotFound, "cannot read %s", path)
	}
	if !utf8.Valid(content) {
		return CachedFile{}, Newf(ErrInvalidData, "%s is not valid UTF-8", path)
	}
	return CachedFile{
		Ext:     fileExtension(path),
		Content: string(content),
	}, nil
}

func fileExtension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
