// Manifest: a human-readable JSON summary of an index's configuration
// and size, built from an open Index for introspection tooling
// (cmd/hnsw-bench does not print it).
//
// Grounded on jpl-au/folio's use of github.com/goccy/go-json in
// header.go for its (JSON-encoded) on-disk header — this package's own
// on-disk header is binary (header.go), but the same fast JSON library
// is the natural fit for an auxiliary, purely diagnostic document.
package hnsw

import (
	json "github.com/goccy/go-json"
)

// Manifest summarizes an Index's configuration and live size.
type Manifest struct {
	Dim            int    `json:"dim"`
	Metric         string `json:"metric"`
	M              int    `json:"m"`
	EfConstruction int    `json:"ef_construction"`
	Ef             int    `json:"ef"`
	Capacity       int    `json:"capacity"`
	Count          int    `json:"count"`
	HashAlgorithm  string `json:"hash_algorithm"`
	PageSize       int    `json:"page_size"`
}

func (a HashAlgorithm) String() string {
	switch a {
	case HashBlake2b:
		return "blake2b"
	default:
		return "xxh3"
	}
}

// Manifest builds a snapshot of the index's current configuration and
// size, suitable for JSON encoding.
func (idx *Index) Manifest() Manifest {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return Manifest{
		Dim:            idx.cfg.Dim,
		Metric:         idx.cfg.Metric.String(),
		M:              idx.cfg.M,
		EfConstruction: idx.cfg.EfConstruction,
		Ef:             idx.cfg.Ef,
		Capacity:       idx.store.capacity,
		Count:          idx.liveCount(),
		HashAlgorithm:  idx.cfg.HashAlgorithm.String(),
		PageSize:       idx.cfg.PageSize,
	}
}

// MarshalJSON encodes a Manifest via goccy/go-json, the same
// high-throughput JSON implementation the teacher lineage of this
// package uses for its own on-disk header.
func (m Manifest) MarshalJSON() ([]byte, error) {
	type alias Manifest
	return json.Marshal(alias(m))
}
