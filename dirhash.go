// Label hashing for the open-addressed label directory.
//
// Adapted from jpl-au/folio's hash.go: same two external algorithms
// (xxh3 default, blake2b alternate), but hashing a uint64 label straight
// to a bucket index rather than formatting a hex document ID.
package hnsw

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"
)

// hashLabel returns a 64-bit digest of label under the configured
// algorithm. The directory reduces this modulo its bucket count.
func hashLabel(label uint64, alg HashAlgorithm) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], label)

	switch alg {
	case HashBlake2b:
		h, _ := blake2b.New(8, nil)
		h.Write(buf[:])
		return binary.BigEndian.Uint64(h.Sum(nil))
	case HashXXHash3:
		fallthrough
	default:
		return xxh3.Hash(buf[:])
	}
}
