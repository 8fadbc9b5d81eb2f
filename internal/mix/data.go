package mix

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// ReadIndexHeader reads the file count and body size that open every index.
//
// Layout (little-endian):
//   - uint16 file count
//   - uint32 body size
func ReadIndexHeader(r io.Reader, h *Header) error {
	if err := binary.Read(r, binary.LittleEndian, &h.FileCount); err != nil {
		return fmt.Errorf("failed to read file count: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.BodySize); err != nil {
		return fmt.Errorf("failed to read body size: %w", err)
	}
	return nil
}

// ReadEntries reads count index records from r into dst.
// A record whose ID was already seen replaces the earlier one.
//
// Layout of one record (little-endian):
//   - uint32 id
//   - uint32 offset (relative to the body)
//   - uint32 size
func ReadEntries(r io.Reader, count int, dst map[uint32]Entry) error {
	for i := 0; i < count; i++ {
		var e Entry
		if err := binary.Read(r, binary.LittleEndian, &e); err != nil {
			return fmt.Errorf("failed to read entry %d: %w", i, err)
		}
		dst[e.ID] = e
	}
	return nil
}

// ParseSealedIndex decodes a decrypted index block: the header pair followed by entries.
// Trailing padding up to the cipher block size is ignored.
func ParseSealedIndex(plain []byte, h *Header, dst map[uint32]Entry) error {
	r := bytes.NewReader(plain)
	if err := ReadIndexHeader(r, h); err != nil {
		return err
	}
	if need := HeaderSize + int(h.FileCount)*EntrySize; need > len(plain) {
		return fmt.Errorf("sealed index too short: %d entries need %d bytes, have %d",
			h.FileCount, need, len(plain))
	}
	return ReadEntries(r, int(h.FileCount), dst)
}
