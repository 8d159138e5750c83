package hnsw_test

import (
	"sync"
	"testing"

	"github.com/chroma-core/hnswindex"
)

func TestConcurrentAddSearchDelete(t *testing.T) {
	idx, err := hnsw.New(hnsw.Config{Dim: 4, M: 8, EfConstruction: 40, Ef: 16, AutoResize: true})
	if err != nil {
		t.Fatal(err)
	}

	const n = 200
	var wg sync.WaitGroup

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			label := uint64(i)
			idx.Add(label, vec(float32(i), float32(i%7), float32(i%13), 1))
		}(i)
	}
	wg.Wait()

	if got := idx.Count(); got != n {
		t.Errorf("Count() after concurrent Add = %d, want %d", got, n)
	}

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := idx.SearchKNN(vec(float32(i), float32(i%7), float32(i%13), 1), 5, nil)
			if err != nil {
				t.Errorf("SearchKNN() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	wg.Add(n / 2)
	for i := 0; i < n/2; i++ {
		go func(i int) {
			defer wg.Done()
			idx.Delete(uint64(i))
		}(i)
	}
	wg.Wait()

	if got := idx.Count(); got != n-n/2 {
		t.Errorf("Count() after concurrent Delete = %d, want %d", got, n-n/2)
	}
	if err := idx.ValidateIntegrity(); err != nil {
		t.Errorf("ValidateIntegrity() after concurrent ops = %v", err)
	}
}

func TestConcurrentAddSameLabelSerializes(t *testing.T) {
	idx, err := hnsw.New(hnsw.Config{Dim: 2, M: 8})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx.Add(1, vec(float32(i), float32(i)))
		}(i)
	}
	wg.Wait()

	if idx.Count() != 1 {
		t.Errorf("Count() = %d, want 1 (concurrent updates of same label must not create duplicates)", idx.Count())
	}
}
