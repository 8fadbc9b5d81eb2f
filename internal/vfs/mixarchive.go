package vfs

import (
	"errors"
	"fmt"
	"io"

	"github.com/ossyrian/mixvfs/internal/format"
	"github.com/ossyrian/mixvfs/internal/mix"
	"github.com/ossyrian/mixvfs/internal/parser"
)

// MixArchive serves the entries of a parsed container.
// It is also a File, the result of opening a container inside another archive.
type MixArchive struct {
	name   string
	src    io.ReaderAt
	closer io.Closer
	index  *mix.Index
	cfg    archiveConfig
}

// NewMixArchive parses the container held in the first size bytes of src.
//
// closer releases src and may be nil when someone else owns it. It is called when
// parsing fails, and otherwise by Close.
func NewMixArchive(name string, src io.ReaderAt, size int64, closer io.Closer, opts ...ArchiveOption) (*MixArchive, error) {
	cfg := newArchiveConfig(opts)

	index, err := parser.Parse(src, size, cfg.logger.With("container", name))
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		if errors.Is(err, parser.ErrMalformed) {
			return nil, &FormatError{Name: name, Format: format.Container, Err: err}
		}
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	cfg.logger.Debug("opened container",
		"name", name,
		"generation", index.Generation,
		"entries", len(index.Entries),
	)

	return &MixArchive{
		name:   name,
		src:    src,
		closer: closer,
		index:  index,
		cfg:    cfg,
	}, nil
}

func (a *MixArchive) Name() string       { return a.name }
func (a *MixArchive) Format() format.Tag { return format.Container }

// Len returns the number of distinct entries. Names are not stored, so the
// container cannot list them.
func (a *MixArchive) Len() int { return len(a.index.Entries) }

// Generation returns the header layout the container was stored with.
func (a *MixArchive) Generation() mix.Generation { return a.index.Generation }

func (a *MixArchive) entry(name string) (mix.Entry, bool) {
	e, ok := a.index.Entries[a.cfg.idFunc(name)]
	return e, ok
}

func (a *MixArchive) Contains(name string) bool {
	_, ok := a.entry(name)
	return ok
}

func (a *MixArchive) Open(name string, hint format.Tag) (File, bool, error) {
	e, ok := a.entry(name)
	if !ok {
		return nil, false, nil
	}

	src := io.NewSectionReader(a.src, a.index.Header.BodyOffset+int64(e.Offset), int64(e.Size))
	f, err := a.cfg.decode(name, hint, src)
	if err != nil {
		return nil, false, err
	}
	return f, true, nil
}

func (a *MixArchive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
