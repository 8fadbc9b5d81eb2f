package parser

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ossyrian/mixvfs/internal/mix"
)

// ErrMalformed is wrapped by every error caused by the container bytes themselves,
// as opposed to I/O failures of the backing source.
var ErrMalformed = errors.New("malformed container")

// MixReader reads the index of a container.
type MixReader struct {
	file   io.ReadSeeker
	src    io.ReaderAt
	size   int64
	logger *slog.Logger
	header *mix.Header

	generation mix.Generation

	// sealed holds the decrypted index of encrypted containers, header pair included.
	sealed []byte
}

// NewMixReader returns a reader over the first size bytes of src.
func NewMixReader(src io.ReaderAt, size int64, logger *slog.Logger) *MixReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &MixReader{
		file:   io.NewSectionReader(src, 0, size),
		src:    src,
		size:   size,
		logger: logger,
	}
}

// DetectFormat determines the header generation from the first word.
// Classic containers open with a non-zero file count; extended ones open with a
// flags word whose low half is always zero.
func (r *MixReader) DetectFormat() (gen mix.Generation, err error) {
	defer func() {
		if _, seekErr := r.file.Seek(0, io.SeekStart); seekErr != nil && err == nil {
			err = fmt.Errorf("failed to seek back to start: %w", seekErr)
		}
	}()

	var first uint16
	if err := binary.Read(r.file, binary.LittleEndian, &first); err != nil {
		return 0, fmt.Errorf("%w: failed to read first word: %v", ErrMalformed, err)
	}

	if first != 0 {
		r.logger.Debug("detected classic header", "file_count", first)
		return mix.GenerationClassic, nil
	}

	var flags uint16
	if err := binary.Read(r.file, binary.LittleEndian, &flags); err != nil {
		return 0, fmt.Errorf("%w: failed to read flags: %v", ErrMalformed, err)
	}

	if (uint32(flags)<<16)&mix.FlagEncrypted != 0 {
		r.logger.Debug("detected encrypted index")
		return mix.GenerationEncrypted, nil
	}

	r.logger.Debug("detected extended header", "flags", uint32(flags)<<16)
	return mix.GenerationExtended, nil
}

// ReadHeader reads the container header and positions the reader on the first entry.
// For encrypted containers the whole index is unsealed here.
func (r *MixReader) ReadHeader() (*mix.Header, error) {
	gen, err := r.DetectFormat()
	if err != nil {
		return nil, err
	}
	r.generation = gen

	h := &mix.Header{}

	switch gen {
	case mix.GenerationClassic:
		if err := mix.ReadIndexHeader(r.file, h); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		h.BodyOffset = mix.HeaderSize + int64(h.FileCount)*mix.EntrySize

	case mix.GenerationExtended:
		if err := binary.Read(r.file, binary.LittleEndian, &h.Flags); err != nil {
			return nil, fmt.Errorf("%w: failed to read flags: %v", ErrMalformed, err)
		}
		if err := mix.ReadIndexHeader(r.file, h); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		h.BodyOffset = mix.FlagsSize + mix.HeaderSize + int64(h.FileCount)*mix.EntrySize

	case mix.GenerationEncrypted:
		if err := binary.Read(r.file, binary.LittleEndian, &h.Flags); err != nil {
			return nil, fmt.Errorf("%w: failed to read flags: %v", ErrMalformed, err)
		}
		if err := r.unseal(h); err != nil {
			return nil, err
		}
		h.BodyOffset = mix.FlagsSize + mix.KeySourceSize + int64(len(r.sealed))
	}

	r.logger.Debug("header is valid",
		"generation", gen,
		"flags", h.Flags,
		"file_count", h.FileCount,
		"body_size", h.BodySize,
		"body_offset", h.BodyOffset,
	)

	r.header = h
	return h, nil
}

// unseal reads the key source and decrypts the index that follows it.
func (r *MixReader) unseal(h *mix.Header) error {
	keySource := make([]byte, mix.KeySourceSize)
	if _, err := io.ReadFull(r.file, keySource); err != nil {
		return fmt.Errorf("%w: failed to read key source: %v", ErrMalformed, err)
	}

	c, err := mix.NewIndexCipher(keySource)
	if err != nil {
		return err
	}

	// the first block carries the header pair, which sizes the rest of the index
	first := make([]byte, c.BlockSize())
	if _, err := io.ReadFull(r.file, first); err != nil {
		return fmt.Errorf("%w: failed to read index: %v", ErrMalformed, err)
	}
	mix.DecryptBlocks(c, first)

	count := binary.LittleEndian.Uint16(first)
	sealedSize := mix.SealedIndexSize(int(count))

	pos := int64(mix.FlagsSize + mix.KeySourceSize)
	if pos+int64(sealedSize) > r.size {
		return fmt.Errorf("%w: index of %d entries ends at %d, past end of source (%d bytes)",
			ErrMalformed, count, pos+int64(sealedSize), r.size)
	}

	r.sealed = make([]byte, sealedSize)
	copy(r.sealed, first)
	if _, err := io.ReadFull(r.file, r.sealed[len(first):]); err != nil {
		return fmt.Errorf("%w: failed to read index: %v", ErrMalformed, err)
	}
	mix.DecryptBlocks(c, r.sealed[len(first):])

	h.FileCount = count
	h.BodySize = binary.LittleEndian.Uint32(r.sealed[2:])
	return nil
}

// ReadIndex reads every entry announced by the header and checks that the
// header agrees with the size of the backing source.
func (r *MixReader) ReadIndex() (map[uint32]mix.Entry, error) {
	if r.header == nil {
		return nil, errors.New("ReadIndex called before ReadHeader")
	}
	h := r.header

	if err := r.checkBounds(); err != nil {
		return nil, err
	}

	entries := make(map[uint32]mix.Entry, h.FileCount)

	if r.generation == mix.GenerationEncrypted {
		var sealedHeader mix.Header
		if err := mix.ParseSealedIndex(r.sealed, &sealedHeader, entries); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	} else if err := mix.ReadEntries(r.file, int(h.FileCount), entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	for _, e := range entries {
		if e.End() > uint64(h.BodySize) {
			return nil, fmt.Errorf("%w: entry %08X spans [%d, %d), past body size %d",
				ErrMalformed, e.ID, e.Offset, e.End(), h.BodySize)
		}
	}

	r.logger.Debug("read index",
		"file_count", h.FileCount,
		"unique_entries", len(entries),
	)

	return entries, nil
}

// checkBounds rejects headers whose index and body do not fit the source.
func (r *MixReader) checkBounds() error {
	h := r.header

	end := h.BodyOffset + int64(h.BodySize)
	if h.Checksummed() {
		end += mix.ChecksumSize
	}
	if end > r.size {
		return fmt.Errorf("%w: %d entries and body of %d bytes need %d bytes, source has %d",
			ErrMalformed, h.FileCount, h.BodySize, end, r.size)
	}
	return nil
}

// VerifyChecksum compares the SHA-1 trailer of a checksummed container with its body.
// Containers without the checksum flag always verify.
func (r *MixReader) VerifyChecksum() error {
	if r.header == nil {
		return errors.New("VerifyChecksum called before ReadHeader")
	}
	h := r.header
	if !h.Checksummed() {
		return nil
	}
	if err := r.checkBounds(); err != nil {
		return err
	}

	digest := sha1.New()
	if _, err := io.Copy(digest, io.NewSectionReader(r.src, h.BodyOffset, int64(h.BodySize))); err != nil {
		return fmt.Errorf("failed to hash body: %w", err)
	}

	want := make([]byte, mix.ChecksumSize)
	if _, err := r.src.ReadAt(want, h.BodyOffset+int64(h.BodySize)); err != nil {
		return fmt.Errorf("failed to read checksum: %w", err)
	}

	if got := digest.Sum(nil); !bytes.Equal(got, want) {
		return fmt.Errorf("%w: checksum mismatch: body hashes to %x, trailer holds %x",
			ErrMalformed, got, want)
	}
	return nil
}

// Parse reads the header and index of the container held in the first size bytes of src.
func Parse(src io.ReaderAt, size int64, logger *slog.Logger) (*mix.Index, error) {
	return parse(src, size, logger, false)
}

// Verify is Parse followed by a check of the checksum trailer, if any.
func Verify(src io.ReaderAt, size int64, logger *slog.Logger) (*mix.Index, error) {
	return parse(src, size, logger, true)
}

func parse(src io.ReaderAt, size int64, logger *slog.Logger, verify bool) (*mix.Index, error) {
	reader := NewMixReader(src, size, logger)

	h, err := reader.ReadHeader()
	if err != nil {
		return nil, err
	}

	entries, err := reader.ReadIndex()
	if err != nil {
		return nil, err
	}

	if verify {
		if err := reader.VerifyChecksum(); err != nil {
			return nil, err
		}
	}

	return &mix.Index{
		Header:     *h,
		Generation: reader.generation,
		Entries:    entries,
	}, nil
}
