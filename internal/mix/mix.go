package mix

// Generation identifies the header layout of a container.
type Generation int

const (
	// GenerationClassic containers start directly with the file count.
	GenerationClassic Generation = iota
	// GenerationExtended containers start with a flags word followed by a plain index.
	GenerationExtended
	// GenerationEncrypted containers start with a flags word, a key source and a sealed index.
	GenerationEncrypted
)

func (g Generation) String() string {
	switch g {
	case GenerationClassic:
		return "classic"
	case GenerationExtended:
		return "extended"
	case GenerationEncrypted:
		return "encrypted"
	default:
		return "unknown"
	}
}

// Header is the header of a container.
type Header struct {
	Flags     uint32 // zero for classic containers
	FileCount uint16
	BodySize  uint32 // size of the data section that follows the index

	// BodyOffset is where the data section starts; entry offsets are relative to it.
	BodyOffset int64
}

// Encrypted reports whether the index was sealed.
func (h *Header) Encrypted() bool { return h.Flags&FlagEncrypted != 0 }

// Checksummed reports whether a SHA-1 trailer follows the body.
func (h *Header) Checksummed() bool { return h.Flags&FlagChecksum != 0 }

// Entry is one index record. Names are not stored, only their ID.
type Entry struct {
	ID     uint32
	Offset uint32 // relative to Header.BodyOffset
	Size   uint32
}

// End returns the body-relative end of the entry's span.
func (e Entry) End() uint64 {
	return uint64(e.Offset) + uint64(e.Size)
}

// Index is a parsed container index.
type Index struct {
	Header     Header
	Generation Generation
	Entries    map[uint32]Entry
}
