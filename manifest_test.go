package hnsw_test

import (
	"strings"
	"testing"

	"github.com/chroma-core/hnswindex"
)

func TestManifestReflectsConfigAndCount(t *testing.T) {
	idx, err := hnsw.New(hnsw.Config{Dim: 4, M: 12, Metric: hnsw.Cosine})
	if err != nil {
		t.Fatal(err)
	}
	idx.Add(1, vec(1, 0, 0, 0))
	idx.Add(2, vec(0, 1, 0, 0))

	m := idx.Manifest()
	if m.Dim != 4 {
		t.Errorf("Manifest().Dim = %d, want 4", m.Dim)
	}
	if m.M != 12 {
		t.Errorf("Manifest().M = %d, want 12", m.M)
	}
	if m.Metric != "cosine" {
		t.Errorf("Manifest().Metric = %q, want cosine", m.Metric)
	}
	if m.Count != 2 {
		t.Errorf("Manifest().Count = %d, want 2", m.Count)
	}

	data, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if !strings.Contains(string(data), `"metric":"cosine"`) {
		t.Errorf("MarshalJSON() = %s, want metric field", data)
	}
}

func TestHashAlgorithmString(t *testing.T) {
	if got := hnsw.HashXXHash3.String(); got != "xxh3" {
		t.Errorf("HashXXHash3.String() = %q, want xxh3", got)
	}
	if got := hnsw.HashBlake2b.String(); got != "blake2b" {
		t.Errorf("HashBlake2b.String() = %q, want blake2b", got)
	}
}
