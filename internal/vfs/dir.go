package vfs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/ossyrian/mixvfs/internal/format"
)

// DirArchive serves loose files from a directory.
type DirArchive struct {
	fs   afero.Fs
	root string
	cfg  archiveConfig
}

// NewDirArchive returns an archive over root. It never fails: a missing or empty
// directory simply contains nothing.
func NewDirArchive(fsys afero.Fs, root string, opts ...ArchiveOption) *DirArchive {
	return &DirArchive{
		fs:   fsys,
		root: root,
		cfg:  newArchiveConfig(opts),
	}
}

func (a *DirArchive) Name() string { return a.root }

// resolve finds the on-disk path of name, matching the base name case-insensitively
// when there is no exact match. Names that leave the root are never found.
func (a *DirArchive) resolve(name string) (string, bool) {
	local := filepath.FromSlash(name)
	if !filepath.IsLocal(local) {
		return "", false
	}

	p := filepath.Join(a.root, local)
	if fi, err := a.fs.Stat(p); err == nil {
		return p, !fi.IsDir()
	}

	dir, base := filepath.Split(p)
	infos, err := afero.ReadDir(a.fs, dir)
	if err != nil {
		return "", false
	}
	for _, fi := range infos {
		if !fi.IsDir() && strings.EqualFold(fi.Name(), base) {
			return filepath.Join(dir, fi.Name()), true
		}
	}
	return "", false
}

func (a *DirArchive) Contains(name string) bool {
	_, ok := a.resolve(name)
	return ok
}

func (a *DirArchive) Open(name string, hint format.Tag) (File, bool, error) {
	p, ok := a.resolve(name)
	if !ok {
		return nil, false, nil
	}

	data, err := afero.ReadFile(a.fs, p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", p, err)
	}

	src := io.NewSectionReader(bytes.NewReader(data), 0, int64(len(data)))
	f, err := a.cfg.decode(name, hint, src)
	if err != nil {
		return nil, false, err
	}
	return f, true, nil
}

// Entries lists the regular files directly inside the directory.
func (a *DirArchive) Entries() []string {
	infos, err := afero.ReadDir(a.fs, a.root)
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		if !fi.IsDir() {
			names = append(names, fi.Name())
		}
	}
	return names
}

func (a *DirArchive) Close() error { return nil }
