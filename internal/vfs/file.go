package vfs

import (
	"fmt"
	"image/color"
	"io"

	"gopkg.in/ini.v1"

	"github.com/ossyrian/mixvfs/internal/format"
)

// File is a decoded asset.
type File interface {
	Name() string
	Format() format.Tag
}

// DecodeFunc decodes the bytes of one asset.
// Errors are reported to callers as *FormatError.
type DecodeFunc func(name string, src *io.SectionReader) (File, error)

// Decoders maps a format tag to its decoder. Tags without an entry decode to *RawFile,
// except format.Container, which decodes to a nested *MixArchive.
type Decoders map[format.Tag]DecodeFunc

// DefaultDecoders returns the decoders built into the package.
func DefaultDecoders() Decoders {
	return Decoders{
		format.Config:      DecodeIni,
		format.MissionList: iniDecoder(format.MissionList),
		format.Palette:     DecodePalette,
	}
}

// clone returns a copy of d that can be extended without touching d.
func (d Decoders) clone() Decoders {
	out := make(Decoders, len(d))
	for tag, fn := range d {
		out[tag] = fn
	}
	return out
}

// RawFile is an asset without a dedicated decoder: its bytes and the tag it was opened as.
type RawFile struct {
	name string
	tag  format.Tag
	Data []byte
}

// NewRawFile wraps already loaded bytes.
func NewRawFile(name string, tag format.Tag, data []byte) *RawFile {
	return &RawFile{name: name, tag: tag, Data: data}
}

func (f *RawFile) Name() string       { return f.name }
func (f *RawFile) Format() format.Tag { return f.tag }

// rawDecoder returns a decoder that loads the bytes of an asset as-is.
func rawDecoder(tag format.Tag) DecodeFunc {
	return func(name string, src *io.SectionReader) (File, error) {
		data := make([]byte, src.Size())
		if _, err := src.ReadAt(data, 0); err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read %d bytes: %w", len(data), err)
		}
		return NewRawFile(name, tag, data), nil
	}
}

// IniFile is a decoded configuration file (rules, art, mission lists, ...).
type IniFile struct {
	name string
	tag  format.Tag
	*ini.File
}

func (f *IniFile) Name() string       { return f.name }
func (f *IniFile) Format() format.Tag { return f.tag }

// DecodeIni parses Westwood-style INI text.
func DecodeIni(name string, src *io.SectionReader) (File, error) {
	return iniDecoder(format.Config)(name, src)
}

func iniDecoder(tag format.Tag) DecodeFunc {
	return func(name string, src *io.SectionReader) (File, error) {
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, fmt.Errorf("failed to read ini: %w", err)
		}

		cfg, err := ini.LoadSources(ini.LoadOptions{
			Insensitive:             true,
			IgnoreContinuation:      true,
			AllowShadows:            true,
			SkipUnrecognizableLines: true,
		}, data)
		if err != nil {
			return nil, err
		}

		return &IniFile{name: name, tag: tag, File: cfg}, nil
	}
}

// PaletteSize is the size of a palette file: 256 colours of three 6-bit components.
const PaletteSize = 256 * 3

// Palette is a decoded 256 colour palette.
type Palette struct {
	name   string
	Colors color.Palette
}

func (p *Palette) Name() string       { return p.name }
func (p *Palette) Format() format.Tag { return format.Palette }

// DecodePalette expands the 6-bit components of a palette file to 8 bits. The upper
// two bits of each component are ignored.
func DecodePalette(name string, src *io.SectionReader) (File, error) {
	if src.Size() != PaletteSize {
		return nil, fmt.Errorf("expected %d bytes, got %d", PaletteSize, src.Size())
	}

	data := make([]byte, PaletteSize)
	if _, err := io.ReadFull(src, data); err != nil {
		return nil, fmt.Errorf("failed to read palette: %w", err)
	}

	p := &Palette{name: name, Colors: make(color.Palette, 256)}
	for i := range p.Colors {
		rgb := data[i*3 : i*3+3]
		p.Colors[i] = color.RGBA{R: rgb[0] << 2, G: rgb[1] << 2, B: rgb[2] << 2, A: 0xFF}
	}
	return p, nil
}
