package vfs

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/bodgit/sevenzip"

	"github.com/ossyrian/mixvfs/internal/format"
)

// SevenZipExtension marks packed mod overlays.
const SevenZipExtension = ".7z"

// SevenZipArchive serves the files of a 7z mod pack. Entries are decompressed
// on every Open.
type SevenZipArchive struct {
	name   string
	closer io.Closer
	files  map[string]*sevenzip.File
	bases  map[string]*sevenzip.File // first file per base name
	cfg    archiveConfig
}

// NewSevenZipArchive reads the directory of the 7z archive held in the first size
// bytes of src. closer behaves as for NewMixArchive.
func NewSevenZipArchive(name string, src io.ReaderAt, size int64, closer io.Closer, opts ...ArchiveOption) (*SevenZipArchive, error) {
	r, err := sevenzip.NewReader(src, size)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, fmt.Errorf("open 7z archive: %w", err)
	}

	a := &SevenZipArchive{
		name:   name,
		closer: closer,
		files:  make(map[string]*sevenzip.File, len(r.File)),
		bases:  make(map[string]*sevenzip.File, len(r.File)),
		cfg:    newArchiveConfig(opts),
	}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		k := key7z(f.Name)
		a.files[k] = f
		if _, seen := a.bases[path.Base(k)]; !seen {
			a.bases[path.Base(k)] = f
		}
	}

	a.cfg.logger.Debug("opened 7z archive", "name", name, "entries", len(a.files))
	return a, nil
}

// key7z normalizes a name for lookup. Packs are usually flat, so names are also
// reachable without their directory.
func key7z(name string) string {
	return strings.ToLower(path.Clean(strings.ReplaceAll(name, "\\", "/")))
}

func (a *SevenZipArchive) lookup(name string) (*sevenzip.File, bool) {
	if f, ok := a.files[key7z(name)]; ok {
		return f, true
	}

	f, ok := a.bases[path.Base(key7z(name))]
	return f, ok
}

func (a *SevenZipArchive) Name() string { return a.name }

func (a *SevenZipArchive) Contains(name string) bool {
	_, ok := a.lookup(name)
	return ok
}

func (a *SevenZipArchive) Open(name string, hint format.Tag) (File, bool, error) {
	f, ok := a.lookup(name)
	if !ok {
		return nil, false, nil
	}

	rc, err := f.Open()
	if err != nil {
		return nil, false, fmt.Errorf("open %s in 7z: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, fmt.Errorf("read %s in 7z: %w", f.Name, err)
	}

	decoded, err := a.cfg.decode(name, hint, io.NewSectionReader(bytes.NewReader(data), 0, int64(len(data))))
	if err != nil {
		return nil, false, err
	}
	return decoded, true, nil
}

// Entries lists the files in the archive, sorted.
func (a *SevenZipArchive) Entries() []string {
	names := make([]string, 0, len(a.files))
	for _, f := range a.files {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func (a *SevenZipArchive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
