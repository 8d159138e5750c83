package hnsw_test

import (
	"math/rand"
	"testing"

	"github.com/chroma-core/hnswindex"
)

func randomVectors(n, dim int, seed int64) [][]float32 {
	rng := rand.New(rand.NewSource(seed))
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, dim)
		for j := range v {
			v[j] = rng.Float32()
		}
		out[i] = v
	}
	return out
}

func BenchmarkAdd(b *testing.B) {
	idx, err := hnsw.New(hnsw.Config{Dim: 128, M: 16, EfConstruction: 100, Ef: 20, Capacity: b.N + 1, AutoResize: true})
	if err != nil {
		b.Fatal(err)
	}
	vectors := randomVectors(b.N, 128, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.Add(uint64(i), vectors[i])
	}
}

func BenchmarkSearchKNN(b *testing.B) {
	idx, err := hnsw.New(hnsw.Config{Dim: 128, M: 16, EfConstruction: 100, Ef: 20, Capacity: 10000, AutoResize: true})
	if err != nil {
		b.Fatal(err)
	}
	vectors := randomVectors(10000, 128, 2)
	for i, v := range vectors {
		idx.Add(uint64(i), v)
	}
	queries := randomVectors(b.N, 128, 3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := idx.SearchKNN(queries[i%len(queries)], 10, nil); err != nil {
			b.Fatal(err)
		}
	}
}
