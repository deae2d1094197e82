// Package feltpack packs raw bytes into the native chain's prime-field
// element representation: groups of little-endian uint32 "felts", eight
// per 32-byte word.
package feltpack

import (
	"encoding/binary"

	"github.com/holiman/uint256"
)

// Felt is a single native chain field element. The gateway never performs
// field arithmetic on it; it only ever packs and forwards bytes, so a
// plain uint32 is a faithful enough representation.
type Felt = uint32

// FeltsPerWord is the number of felts a 32-byte word packs into.
const FeltsPerWord = 8

// BytesToFelts packs data into little-endian uint32 felts, four bytes per
// felt. A final partial group is zero-padded on its high end.
func BytesToFelts(data []byte) []Felt {
	n := (len(data) + 3) / 4
	felts := make([]Felt, n)
	for i := 0; i < n; i++ {
		var buf [4]byte
		copy(buf[:], data[i*4:])
		felts[i] = binary.LittleEndian.Uint32(buf[:])
	}
	return felts
}

// U256ToFelts packs value's little-endian byte representation into the
// fixed 8-felt group a 32-byte word occupies.
func U256ToFelts(value *uint256.Int) [FeltsPerWord]Felt {
	bytes := value.Bytes32()
	// Bytes32 is big-endian; the native chain packs little-endian, so the
	// array must be reversed before packing.
	for i, j := 0, len(bytes)-1; i < j; i, j = i+1, j-1 {
		bytes[i], bytes[j] = bytes[j], bytes[i]
	}
	var felts [FeltsPerWord]Felt
	packed := BytesToFelts(bytes[:])
	copy(felts[:], packed)
	return felts
}

// FixedBytesToFelts packs a fixed-size byte array (e.g. one 32-byte
// Merkle-path element) into its 8-felt group.
func FixedBytesToFelts(value [32]byte) [FeltsPerWord]Felt {
	var felts [FeltsPerWord]Felt
	copy(felts[:], BytesToFelts(value[:]))
	return felts
}

// TruncateMetadata packs an arbitrary-length metadata payload into a
// fixed 8-felt group, truncating input longer than 32 bytes. It reports
// whether truncation occurred so callers can log a notice.
func TruncateMetadata(data []byte) (felts [FeltsPerWord]Felt, truncated bool) {
	limit := len(data)
	if limit > 32 {
		limit = 32
		truncated = true
	}
	copy(felts[:], BytesToFelts(data[:limit]))
	return felts, truncated
}
