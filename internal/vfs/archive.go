package vfs

import (
	"errors"
	"io"
	"log/slog"

	"github.com/ossyrian/mixvfs/internal/format"
	"github.com/ossyrian/mixvfs/internal/mix"
)

// Archive is a source of named assets.
//
// Open reports absence with ok == false and a nil error. Decoding failures are
// returned as *FormatError.
type Archive interface {
	Name() string
	Contains(name string) bool
	Open(name string, hint format.Tag) (f File, ok bool, err error)
	Close() error
}

// Lister is implemented by archives that know the names of their entries.
type Lister interface {
	Entries() []string
}

// ArchiveOption configures an archive.
type ArchiveOption func(*archiveConfig)

type archiveConfig struct {
	logger   *slog.Logger
	decoders Decoders
	idFunc   mix.IDFunc
}

func newArchiveConfig(opts []ArchiveOption) archiveConfig {
	cfg := archiveConfig{
		logger:   slog.Default(),
		decoders: DefaultDecoders(),
		idFunc:   mix.ID,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// options turns cfg back into options, so nested archives inherit it.
func (c archiveConfig) options() []ArchiveOption {
	return []ArchiveOption{
		WithArchiveLogger(c.logger),
		WithArchiveDecoders(c.decoders),
		WithIDFunc(c.idFunc),
	}
}

// WithArchiveLogger sets the logger of an archive.
func WithArchiveLogger(logger *slog.Logger) ArchiveOption {
	return func(c *archiveConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithArchiveDecoders replaces the decoder table of an archive.
func WithArchiveDecoders(d Decoders) ArchiveOption {
	return func(c *archiveConfig) {
		if d != nil {
			c.decoders = d
		}
	}
}

// WithIDFunc selects how container archives derive entry keys from names.
// The default is mix.ID.
func WithIDFunc(fn mix.IDFunc) ArchiveOption {
	return func(c *archiveConfig) {
		if fn != nil {
			c.idFunc = fn
		}
	}
}

// decode dispatches src to the decoder for hint, or for the tag guessed from name
// when hint is format.None.
func (c archiveConfig) decode(name string, hint format.Tag, src *io.SectionReader) (File, error) {
	tag := hint
	if tag == format.None {
		tag = format.Guess(name)
	}

	fn, ok := c.decoders[tag]
	switch {
	case ok:
	case tag == format.Container:
		fn = c.decodeContainer
	default:
		fn = rawDecoder(tag)
	}

	f, err := fn(name, src)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, &FormatError{Name: name, Format: tag, Err: err}
	}

	c.logger.Debug("decoded file", "name", name, "format", tag, "size", src.Size())
	return f, nil
}

// decodeContainer opens a container held inside another archive.
// The outer archive owns the bytes, so the nested one has nothing to close.
func (c archiveConfig) decodeContainer(name string, src *io.SectionReader) (File, error) {
	return NewMixArchive(name, src, src.Size(), nil, c.options()...)
}
