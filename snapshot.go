// Snapshot export/import: a single portable file bundling the header,
// record table, original-vector table, and link arena, compressed.
//
// Grounded on jpl-au/folio's compress.go: the same shared
// package-level zstd encoder/decoder (construction is expensive, reused
// across calls), at the same SpeedFastest trade-off since a snapshot is
// typically produced far more often than it is restored. Unlike
// compress.go this package writes zstd frames directly to a file rather
// than ascii85-encoding into a JSON string field — a snapshot is its own
// file, not a value embedded inside a line-delimited record.
package hnsw

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zstd"
)

var (
	snapshotEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	snapshotDecoder, _ = zstd.NewReader(nil)
)

const snapshotMagic = "HNSWSNAP"

// Snapshot writes a compressed, self-contained copy of the index's
// current state to w. The index remains usable during and after the
// call; Snapshot takes a consistent read-locked copy of each section.
func (idx *Index) Snapshot(w io.Writer) error {
	idx.mu.RLock()
	hdr := &fileHeader{
		Version:       headerVersion,
		Metric:        uint8(idx.cfg.Metric),
		HashAlgorithm: uint8(idx.cfg.HashAlgorithm),
		Dim:           uint32(idx.cfg.Dim),
		M:             uint32(idx.cfg.M),
		Capacity:      uint32(idx.store.capacity),
		NextSlot:      idx.directory.nextSlot,
		HasEntry:      boolByte(idx.graph.hasEntry),
		EntrySlot:     idx.graph.entry,
		EntryLevel:    uint32(idx.graph.entryLevel),
		PageSize:      uint32(idx.cfg.PageSize),
		Seed:          idx.cfg.Seed,
	}
	table := append([]byte(nil), idx.store.table...)
	var original []byte
	if idx.store.original != nil {
		original = append([]byte(nil), idx.store.original...)
	}
	linkBytes := idx.graph.links.encode()
	idx.mu.RUnlock()

	var buf bytes.Buffer
	buf.WriteString(snapshotMagic)
	buf.Write(hdr.encode())
	writeSection(&buf, table)
	writeSection(&buf, original)
	writeSection(&buf, linkBytes)

	compressed := snapshotEncoder.EncodeAll(buf.Bytes(), nil)
	_, err := w.Write(compressed)
	if err != nil {
		return ErrIO
	}
	return nil
}

func writeSection(buf *bytes.Buffer, data []byte) {
	var lenBytes [4]byte
	binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(data)))
	buf.Write(lenBytes[:])
	buf.Write(data)
}

func readSection(r *bytes.Reader) ([]byte, error) {
	var lenBytes [4]byte
	if _, err := io.ReadFull(r, lenBytes[:]); err != nil {
		return nil, ErrFormatMismatch
	}
	n := binary.LittleEndian.Uint32(lenBytes[:])
	data := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, ErrFormatMismatch
		}
	}
	return data, nil
}

// RestoreSnapshot builds a fresh in-memory Index from a Snapshot-produced
// stream. The returned index is not associated with any on-disk
// directory; call Open separately and copy data across if a persisted
// copy is needed.
func RestoreSnapshot(r io.Reader) (*Index, error) {
	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrIO
	}
	raw, err := snapshotDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, ErrFormatMismatch
	}

	br := bytes.NewReader(raw)
	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(br, magic); err != nil || string(magic) != snapshotMagic {
		return nil, ErrFormatMismatch
	}

	hdrBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(br, hdrBytes); err != nil {
		return nil, ErrFormatMismatch
	}
	hdr, err := decodeHeader(hdrBytes)
	if err != nil {
		return nil, err
	}

	table, err := readSection(br)
	if err != nil {
		return nil, err
	}
	original, err := readSection(br)
	if err != nil {
		return nil, err
	}
	linkBytes, err := readSection(br)
	if err != nil {
		return nil, err
	}

	cfg := Config{
		Dim:           int(hdr.Dim),
		Metric:        Metric(hdr.Metric),
		M:             int(hdr.M),
		Capacity:      int(hdr.Capacity),
		HashAlgorithm: HashAlgorithm(hdr.HashAlgorithm),
		PageSize:      int(hdr.PageSize),
		Seed:          hdr.Seed,
	}.withDefaults()

	idx, err := New(cfg)
	if err != nil {
		return nil, err
	}
	copy(idx.store.table, table)
	if idx.store.original != nil {
		copy(idx.store.original, original)
	}
	links, err := decodeLinkArena(linkBytes)
	if err != nil {
		return nil, err
	}
	idx.graph.links = links
	idx.graph.hasEntry = hdr.HasEntry != 0
	idx.graph.entry = hdr.EntrySlot
	idx.graph.entryLevel = int(hdr.EntryLevel)

	// Every slot below NextSlot gets rebound, soft-deleted or not — a
	// label binding is permanent once made (spec.md §3).
	for slot := uint32(0); slot < hdr.NextSlot; slot++ {
		idx.directory.bind(idx.store.getLabel(slot), slot)
	}
	idx.directory.nextSlot = hdr.NextSlot

	return idx, nil
}

