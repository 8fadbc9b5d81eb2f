package mix

import (
	"crypto/cipher"
	"fmt"
	"hash/crc32"
	"math/big"
	"math/bits"
	"strings"

	"golang.org/x/crypto/blowfish"
)

// IDFunc derives the index key of an entry from its name.
type IDFunc func(name string) uint32

// ID computes the index key used by Tiberian Sun and Red Alert 2 containers.
//
// The algorithm:
//  1. Upper-case the name
//  2. If its length is not a multiple of 4, append one byte holding (length mod 4),
//     then repeat the first byte of the last partial word until the length is aligned
//  3. Return the standard CRC-32 (IEEE) of the padded bytes
func ID(name string) uint32 {
	buf := []byte(strings.ToUpper(name))

	if rem := len(buf) & 3; rem != 0 {
		aligned := len(buf) &^ 3
		buf = append(buf, byte(rem))
		for i := 0; i < 3-rem; i++ {
			buf = append(buf, buf[aligned])
		}
	}

	return crc32.ChecksumIEEE(buf)
}

// ClassicID computes the index key used by Tiberian Dawn and Red Alert containers.
//
// The upper-cased name is consumed in 4-byte little-endian words (the last one
// zero-filled); each word is added to the running key after rotating it left by one.
func ClassicID(name string) uint32 {
	s := strings.ToUpper(name)

	var id uint32
	for i := 0; i < len(s); {
		var word uint32
		for j := 0; j < 4; j++ {
			word >>= 8
			if i < len(s) {
				word += uint32(s[i]) << 24
			}
			i++
		}
		id = bits.RotateLeft32(id, 1) + word
	}

	return id
}

// BlowfishKey unseals the 56-byte Blowfish key from an 80-byte key source.
//
// The key source holds two 40-byte blocks. Each block is read as a little-endian
// integer c and opened with the Westwood public key: m = c^0x10001 mod n. The low
// 39 bytes of each m, little-endian, are concatenated and the first 56 bytes
// form the key.
func BlowfishKey(keySource []byte) ([]byte, error) {
	if len(keySource) != KeySourceSize {
		return nil, fmt.Errorf("invalid key source length: expected %d, got %d",
			KeySourceSize, len(keySource))
	}

	key := make([]byte, 0, 2*rsaPlainBlock)
	for off := 0; off < KeySourceSize; off += rsaCipherBlock {
		c := bigFromLittleEndian(keySource[off : off+rsaCipherBlock])
		m := c.Exp(c, publicExponent, publicModulus)

		// m < n < 2^320, so it always fits the cipher block width
		plain := m.FillBytes(make([]byte, rsaCipherBlock))
		reverse(plain)
		key = append(key, plain[:rsaPlainBlock]...)
	}

	return key[:BlowfishKeySize], nil
}

// NewIndexCipher returns the Blowfish cipher that opens the index sealed by keySource.
func NewIndexCipher(keySource []byte) (cipher.Block, error) {
	key, err := BlowfishKey(keySource)
	if err != nil {
		return nil, err
	}

	c, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create blowfish cipher: %w", err)
	}
	return c, nil
}

// DecryptBlocks decrypts buf in place in ECB mode.
// len(buf) must be a multiple of the cipher's block size.
func DecryptBlocks(c cipher.Block, buf []byte) {
	bs := c.BlockSize()
	for i := 0; i+bs <= len(buf); i += bs {
		c.Decrypt(buf[i:i+bs], buf[i:i+bs])
	}
}

// EncryptBlocks is the inverse of DecryptBlocks.
func EncryptBlocks(c cipher.Block, buf []byte) {
	bs := c.BlockSize()
	for i := 0; i+bs <= len(buf); i += bs {
		c.Encrypt(buf[i:i+bs], buf[i:i+bs])
	}
}

// SealedIndexSize returns the on-disk size of an encrypted index holding count entries,
// rounded up to the Blowfish block size.
func SealedIndexSize(count int) int {
	n := HeaderSize + count*EntrySize
	return (n + blowfish.BlockSize - 1) &^ (blowfish.BlockSize - 1)
}

func bigFromLittleEndian(b []byte) *big.Int {
	be := make([]byte, len(b))
	copy(be, b)
	reverse(be)
	return new(big.Int).SetBytes(be)
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
