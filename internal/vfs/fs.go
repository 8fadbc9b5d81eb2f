package vfs

import (
	"bytes"
	"io/fs"
	"path"
	"path/filepath"
	"time"

	"github.com/ossyrian/mixvfs/internal/format"
)

// FS returns a read-only io/fs view of the registry. Files are served as raw bytes,
// resolved with the same precedence as Open.
func (r *Registry) FS() fs.FS {
	return registryFS{r: r}
}

type registryFS struct {
	r *Registry
}

func (f registryFS) Open(name string) (fs.File, error) {
	data, err := f.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return &memFile{
		Reader: bytes.NewReader(data),
		info:   fileInfo{name: path.Base(name), size: int64(len(data))},
	}, nil
}

func (f registryFS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) || name == "." {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	file, ok, err := f.r.Open(filepath.FromSlash(name), format.Unknown)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	raw, ok := file.(*RawFile)
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrTypeMismatch}
	}
	return raw.Data, nil
}

func (f registryFS) Stat(name string) (fs.FileInfo, error) {
	file, err := f.Open(name)
	if err != nil {
		return nil, err
	}
	return file.Stat()
}

type memFile struct {
	*bytes.Reader
	info fileInfo
}

func (m *memFile) Stat() (fs.FileInfo, error) { return m.info, nil }
func (m *memFile) Close() error               { return nil }

type fileInfo struct {
	name string
	size int64
}

func (fi fileInfo) Name() string       { return fi.name }
func (fi fileInfo) Size() int64        { return fi.size }
func (fi fileInfo) Mode() fs.FileMode  { return 0o444 }
func (fi fileInfo) ModTime() time.Time { return time.Time{} }
func (fi fileInfo) IsDir() bool        { return false }
func (fi fileInfo) Sys() any           { return nil }
