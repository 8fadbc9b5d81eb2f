// Package mixtest builds in-memory containers for tests.
package mixtest

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"

	"github.com/ossyrian/mixvfs/internal/mix"
)

// File is one named blob to pack.
type File struct {
	Name string
	Data []byte
}

// Options controls the layout of the built container.
type Options struct {
	Generation mix.Generation
	Checksum   bool
	IDFunc     mix.IDFunc // defaults to mix.ID

	// KeySource seals encrypted indexes; a fixed pattern is used when empty.
	KeySource []byte
}

// DefaultKeySource is the key source used when Options.KeySource is empty.
func DefaultKeySource() []byte {
	ks := make([]byte, mix.KeySourceSize)
	for i := range ks {
		ks[i] = byte(i*7 + 3)
	}
	// keep each little-endian block below the modulus
	ks[39], ks[79] = 0x11, 0x11
	return ks
}

// Build packs files into a container. Entries keep the order of files, so a
// repeated name produces a duplicate index record.
func Build(files []File, opts Options) []byte {
	if len(files) > mix.MaxEntries {
		panic("mixtest: too many files for one container")
	}

	idOf := opts.IDFunc
	if idOf == nil {
		idOf = mix.ID
	}

	body := new(bytes.Buffer)
	index := new(bytes.Buffer)
	binary.Write(index, binary.LittleEndian, uint16(len(files)))
	bodySizeAt := index.Len()
	binary.Write(index, binary.LittleEndian, uint32(0))

	for _, f := range files {
		binary.Write(index, binary.LittleEndian, mix.Entry{
			ID:     idOf(f.Name),
			Offset: uint32(body.Len()),
			Size:   uint32(len(f.Data)),
		})
		body.Write(f.Data)
	}
	idx := index.Bytes()
	binary.LittleEndian.PutUint32(idx[bodySizeAt:], uint32(body.Len()))

	var flags uint32
	if opts.Checksum {
		flags |= mix.FlagChecksum
	}

	out := new(bytes.Buffer)
	switch opts.Generation {
	case mix.GenerationClassic:
		out.Write(idx)

	case mix.GenerationExtended:
		binary.Write(out, binary.LittleEndian, flags)
		out.Write(idx)

	case mix.GenerationEncrypted:
		flags |= mix.FlagEncrypted
		binary.Write(out, binary.LittleEndian, flags)

		ks := opts.KeySource
		if len(ks) == 0 {
			ks = DefaultKeySource()
		}
		out.Write(ks)

		c, err := mix.NewIndexCipher(ks)
		if err != nil {
			panic(err)
		}
		sealed := make([]byte, mix.SealedIndexSize(len(files)))
		copy(sealed, idx)
		mix.EncryptBlocks(c, sealed)
		out.Write(sealed)
	}

	out.Write(body.Bytes())
	if opts.Checksum {
		sum := sha1.Sum(body.Bytes())
		out.Write(sum[:])
	}

	return out.Bytes()
}
