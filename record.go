// Record format and layout.
//
// The record table (data_level0.bin, §6) holds one fixed-size record per
// slot: the vector, the level-0 adjacency list, the external label, the
// deleted flag, and the node's level count. Layer 0 is kept fixed-size and
// inline because every live node has a layer-0 list; levels above 0 are
// comparatively rare (geometric decay per mL) and variable-length, so they
// live in a separate link-list arena (linklist.go) rather than bloating
// every record to accommodate the tallest possible node.
//
// Within a record, fields sit at fixed byte offsets so record(slot) can be
// addressed in O(1) without parsing — the same design note jpl-au/folio's
// record.go makes for its own fixed-prefix JSON lines, adapted here from a
// text scan to direct binary offsets.
package hnsw

import "encoding/binary"

var byteOrder = binary.LittleEndian

// adjacency list physical capacities. Per spec.md §3/§9 these are double
// the logical trim threshold (capAt), giving slack for the temporary
// overflow a node accumulates before heuristic trimming runs.
func (c Config) level0PhysCap() int { return 2 * c.m0() }
func (c Config) levelPhysCap() int  { return 2 * c.M }

// capAt returns the logical neighbor cap enforced by trimming at layer
// level: M0 at layer 0, M above it.
func (c Config) capAt(level int) int {
	if level == 0 {
		return c.m0()
	}
	return c.M
}

// vectorWidth returns the per-component byte width: 1 for the integer L2
// metric, 4 (float32) otherwise.
func (c Config) vectorWidth() int {
	if c.Metric == L2Int {
		return 1
	}
	return 4
}

func (c Config) vectorBytes() int {
	return c.Dim * c.vectorWidth()
}

// Byte layout of a level-0 record:
//
//	[0:vectorBytes)              vector (working copy; normalized if metric normalizes)
//	[vectorBytes:+4)             level-0 adjacency count (uint32)
//	[+4:+4*level0PhysCap)        level-0 adjacency entries (uint32 slot indices)
//	[...:+8)                     label (uint64)
//	[...:+1)                     deleted flag (0 or 1)
//	[...:+1)                     level count L (uint8)
const (
	labelFieldBytes = 8
	deletedBytes    = 1
	levelFieldBytes = 1
)

func (c Config) adj0CountOffset() int   { return c.vectorBytes() }
func (c Config) adj0EntriesOffset() int { return c.adj0CountOffset() + 4 }
func (c Config) adj0Bytes() int         { return 4 + 4*c.level0PhysCap() }
func (c Config) labelOffset() int       { return c.vectorBytes() + c.adj0Bytes() }
func (c Config) deletedOffset() int     { return c.labelOffset() + labelFieldBytes }
func (c Config) levelOffset() int       { return c.deletedOffset() + deletedBytes }

// stride is the fixed size in bytes of one level-0 record.
func (c Config) stride() int {
	return c.levelOffset() + levelFieldBytes
}

// originalVectorBytes returns the per-slot size of the parallel
// original-vector table, or 0 when the metric does not normalize (the
// working vector already equals the caller's input, so no second copy is
// needed).
func (c Config) originalVectorBytes() int {
	if c.Metric.normalizes() {
		return c.vectorBytes()
	}
	return 0
}
