package mix

import "math/big"

// Flags stored in the first word of an extended-generation header.
const (
	// FlagChecksum marks a container with a SHA-1 digest of its body appended after the body.
	FlagChecksum uint32 = 0x00010000
	// FlagEncrypted marks a container whose index is sealed with Blowfish.
	FlagEncrypted uint32 = 0x00020000
)

const (
	// KeySourceSize is the size of the RSA-sealed key source preceding an encrypted index.
	KeySourceSize = 80

	// BlowfishKeySize is the number of key bytes fed to Blowfish.
	BlowfishKeySize = 56

	// EntrySize is the on-disk size of one index entry (id, offset, size).
	EntrySize = 12

	// ChecksumSize is the size of the SHA-1 trailer of checksummed containers.
	ChecksumSize = 20

	// HeaderSize is the size of the count/body-size pair that precedes every index.
	HeaderSize = 6

	// FlagsSize is the size of the flags word of extended-generation containers.
	FlagsSize = 4

	// MaxEntries bounds FileCount; the count is stored as a uint16.
	MaxEntries = 0xFFFF
)

// The key source is processed in 40-byte little-endian blocks, each yielding 39 key bytes.
const (
	rsaCipherBlock = 40
	rsaPlainBlock  = 39
)

// publicModulus is the Westwood public key that unseals key sources.
// It is the 320-bit integer stored base64-encoded in the game executables as
// "AihRvNoIbTn85FZRYNZRcT+i6KpU+maCsEqr3Q5q+LDB5tH7Tz2qQ38V".
var publicModulus, _ = new(big.Int).SetString(
	"51bcda086d39fce4565160d651713fa2e8aa54fa6682b04aabdd0e6af8b0c1e6d1fb4f3daa437f15", 16)

var publicExponent = big.NewInt(0x10001)
