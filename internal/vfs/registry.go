// Package vfs resolves asset names across an ordered list of mounted archives.
//
// The first mounted archive that contains a name supplies it, so overrides must be
// mounted before the archives they shadow.
package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/spf13/afero"

	"github.com/ossyrian/mixvfs/internal/format"
	"github.com/ossyrian/mixvfs/internal/mix"
)

// Registry is an ordered mount table.
//
// Lookups read an immutable snapshot of the table and never block. Mounts are
// serialized with each other and publish a new snapshot.
type Registry struct {
	fs       afero.Fs
	logger   *slog.Logger
	decoders Decoders
	idFunc   mix.IDFunc

	mu     sync.Mutex
	mounts atomic.Pointer[[]Archive]
}

// Option configures a Registry.
type Option func(*Registry)

// WithFs sets the filesystem mount paths are resolved on. The default is the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(r *Registry) {
		r.fs = fsys
	}
}

// WithLogger sets the logger of the registry and the archives it mounts.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDecoders replaces the whole decoder table.
func WithDecoders(d Decoders) Option {
	return func(r *Registry) {
		r.decoders = d.clone()
	}
}

// WithDecoder installs fn as the decoder for tag, on top of the current table.
func WithDecoder(tag format.Tag, fn DecodeFunc) Option {
	return func(r *Registry) {
		r.decoders[tag] = fn
	}
}

// WithNameIDs selects how mounted containers derive entry keys from names.
func WithNameIDs(fn mix.IDFunc) Option {
	return func(r *Registry) {
		r.idFunc = fn
	}
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		fs:       afero.NewOsFs(),
		logger:   slog.Default(),
		decoders: DefaultDecoders(),
		idFunc:   mix.ID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) archiveOptions() []ArchiveOption {
	return []ArchiveOption{
		WithArchiveLogger(r.logger),
		WithArchiveDecoders(r.decoders),
		WithIDFunc(r.idFunc),
	}
}

func (r *Registry) snapshot() []Archive {
	if p := r.mounts.Load(); p != nil {
		return *p
	}
	return nil
}

// MountArchive appends an already opened archive to the mount table.
// The registry takes ownership and closes it on Close.
func (r *Registry) MountArchive(a Archive) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.snapshot()
	next := make([]Archive, len(old), len(old)+1)
	copy(next, old)
	next = append(next, a)
	r.mounts.Store(&next)
}

// Mount classifies path and appends the matching archive:
//   - an existing directory is served as loose files
//   - an existing file with a container extension is parsed as a container
//   - an existing .7z file is served as a packed mod overlay
//   - a path missing on disk but reachable through the mounted archives is opened
//     as a nested container
//
// Mounting the same path twice appends it twice. Failures are *MountError and leave
// the table unchanged.
func (r *Registry) Mount(path string) error {
	a, err := r.load(path)
	if err != nil {
		return &MountError{Path: path, Err: err}
	}

	r.MountArchive(a)
	r.logger.Debug("mounted archive", "path", path, "kind", fmt.Sprintf("%T", a))
	return nil
}

func (r *Registry) load(path string) (Archive, error) {
	fi, err := r.fs.Stat(path)
	switch {
	case err == nil && fi.IsDir():
		return NewDirArchive(r.fs, path, r.archiveOptions()...), nil

	case err == nil && format.IsContainer(path):
		f, err := r.fs.Open(path)
		if err != nil {
			return nil, err
		}
		return NewMixArchive(path, f, fi.Size(), f, r.archiveOptions()...)

	case err == nil && strings.EqualFold(filepath.Ext(path), SevenZipExtension):
		f, err := r.fs.Open(path)
		if err != nil {
			return nil, err
		}
		return NewSevenZipArchive(path, f, fi.Size(), f, r.archiveOptions()...)

	case err == nil:
		return nil, fmt.Errorf("%w: unrecognized extension %q", ErrNotMountable, filepath.Ext(path))

	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	// not on disk: maybe a container inside an already mounted archive
	f, ok, err := r.Open(path, format.Container)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no such file or entry", ErrNotMountable)
	}

	a, ok := f.(Archive)
	if !ok {
		return nil, fmt.Errorf("%w: %s decoded as %T", ErrTypeMismatch, path, f)
	}
	return a, nil
}

// Exists reports whether any mounted archive contains name.
func (r *Registry) Exists(name string) bool {
	_, ok := r.SourceOf(name)
	return ok
}

// SourceOf returns the archive that supplies name.
func (r *Registry) SourceOf(name string) (Archive, bool) {
	for _, a := range r.snapshot() {
		if a.Contains(name) {
			return a, true
		}
	}
	return nil, false
}

// Open decodes name from the first archive that contains it, using hint or, when hint is
// format.None, the format guessed from the name. Absence is (nil, false, nil).
func (r *Registry) Open(name string, hint format.Tag) (File, bool, error) {
	for _, a := range r.snapshot() {
		if !a.Contains(name) {
			continue
		}

		f, ok, err := a.Open(name, hint)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return f, true, nil
		}
	}
	return nil, false, nil
}

// OpenAs is Open for callers that need a specific decoded type. The hint, or the guessed
// format, selects the decoder; a result that is not a T is reported as ErrTypeMismatch.
func OpenAs[T File](r *Registry, name string, hint format.Tag) (T, bool, error) {
	var zero T

	f, ok, err := r.Open(name, hint)
	if err != nil || !ok {
		return zero, ok, err
	}

	t, ok := f.(T)
	if !ok {
		return zero, false, fmt.Errorf("%w: %s decoded as %T (%s), want %T",
			ErrTypeMismatch, name, f, f.Format(), zero)
	}
	return t, true, nil
}

// Archives returns the mount table in precedence order.
func (r *Registry) Archives() []Archive {
	snap := r.snapshot()
	out := make([]Archive, len(snap))
	copy(out, snap)
	return out
}

// Len returns the number of mounted archives.
func (r *Registry) Len() int {
	return len(r.snapshot())
}

// Close empties the mount table and closes every archive.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.snapshot()
	r.mounts.Store(nil)

	var errs []error
	for i := len(snap) - 1; i >= 0; i-- {
		if err := snap[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", snap[i].Name(), err))
		}
	}

	r.logger.Debug("closed registry", "archives", len(snap))
	return errors.Join(errs...)
}
