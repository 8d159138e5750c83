// Binary file header.
//
// Adapted from jpl-au/folio's header.go: same fixed-size-at-offset-0,
// crash-flag-at-a-known-byte design, but encoded as packed binary fields
// instead of padded JSON — a vector index's header is small and fixed
// enough that a byte-offset layout needs no parser, and natefinch/atomic
// gives the same "never leave a torn header on disk" guarantee folio's
// own write-then-rename achieves by hand elsewhere in that package.
package hnsw

import (
	"bytes"
	"io"

	natomic "github.com/natefinch/atomic"
)

const headerMagic = "HNSWIDX1"
const headerSize = 128
const headerVersion = 1

// dirtyOffset is the byte offset of the crash-flag within the header,
// analogous to folio's header.go dirty() writing byte offset 13 directly
// rather than re-encoding the whole header.
const dirtyOffset = 64

type fileHeader struct {
	Version       uint32
	Dirty         uint8
	Metric        uint8
	HashAlgorithm uint8
	Dim           uint32
	M             uint32
	Capacity      uint32
	NextSlot      uint32
	HasEntry      uint8
	EntrySlot     uint32
	EntryLevel    uint32
	PageSize      uint32
	Seed          int64
}

func (h *fileHeader) encode() []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:8], headerMagic)
	byteOrder.PutUint32(buf[8:12], h.Version)
	buf[12] = h.Metric
	buf[13] = h.HashAlgorithm
	byteOrder.PutUint32(buf[16:20], h.Dim)
	byteOrder.PutUint32(buf[20:24], h.M)
	byteOrder.PutUint32(buf[24:28], h.Capacity)
	byteOrder.PutUint32(buf[28:32], h.NextSlot)
	buf[32] = h.HasEntry
	byteOrder.PutUint32(buf[36:40], h.EntrySlot)
	byteOrder.PutUint32(buf[40:44], h.EntryLevel)
	byteOrder.PutUint32(buf[44:48], h.PageSize)
	byteOrder.PutUint64(buf[48:56], uint64(h.Seed))
	buf[dirtyOffset] = h.Dirty
	return buf
}

func decodeHeader(buf []byte) (*fileHeader, error) {
	if len(buf) < headerSize {
		return nil, ErrFormatMismatch
	}
	if !bytes.Equal(buf[0:8], []byte(headerMagic)) {
		return nil, ErrFormatMismatch
	}
	h := &fileHeader{}
	h.Version = byteOrder.Uint32(buf[8:12])
	if h.Version != headerVersion {
		return nil, ErrVersionMismatch
	}
	h.Metric = buf[12]
	h.HashAlgorithm = buf[13]
	h.Dim = byteOrder.Uint32(buf[16:20])
	h.M = byteOrder.Uint32(buf[20:24])
	h.Capacity = byteOrder.Uint32(buf[24:28])
	h.NextSlot = byteOrder.Uint32(buf[28:32])
	h.HasEntry = buf[32]
	h.EntrySlot = byteOrder.Uint32(buf[36:40])
	h.EntryLevel = byteOrder.Uint32(buf[40:44])
	h.PageSize = byteOrder.Uint32(buf[44:48])
	h.Seed = int64(byteOrder.Uint64(buf[48:56]))
	h.Dirty = buf[dirtyOffset]
	return h, nil
}

// writeHeaderAtomic writes the header via a temp-file-plus-rename so a
// crash mid-write never leaves a torn header, the same guarantee
// folio's db.go gets from its os.Rename-based persistence path elsewhere
// in that package.
func writeHeaderAtomic(path string, h *fileHeader) error {
	return natomic.WriteFile(path, bytes.NewReader(h.encode()))
}

// markHeaderDirty flips just the crash-flag byte in place via a direct
// WriteAt, mirroring folio's header.go dirty() helper rather than
// re-encoding and atomically replacing the whole header for a 1-byte
// change on every write.
func markHeaderDirty(w io.WriterAt, dirty bool) error {
	b := byte(0)
	if dirty {
		b = 1
	}
	_, err := w.WriteAt([]byte{b}, dirtyOffset)
	return err
}
