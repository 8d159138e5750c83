// Command hnsw-bench seeds an index with random vectors and reports
// build time, query throughput, and recall against a brute-force ground
// truth.
//
// Flag handling follows calvinalkan-agent-task's ls.go/create.go: pflag
// instead of the standard library's flag package, a small options struct
// parsed once at the top of main.
package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/chroma-core/hnswindex"
)

type options struct {
	dim            int
	count          int
	queries        int
	k              int
	m              int
	efConstruction int
	ef             int
	seed           int64
	metric         string
}

func parseFlags() options {
	var o options
	flag.IntVar(&o.dim, "dim", 128, "vector dimension")
	flag.IntVar(&o.count, "count", 10000, "number of vectors to index")
	flag.IntVar(&o.queries, "queries", 200, "number of query vectors to evaluate recall over")
	flag.IntVar(&o.k, "k", 10, "number of neighbors per query")
	flag.IntVar(&o.m, "m", 16, "HNSW M parameter")
	flag.IntVar(&o.efConstruction, "ef-construction", 200, "construction-time candidate list width")
	flag.IntVar(&o.ef, "ef", 64, "query-time candidate list width")
	flag.Int64Var(&o.seed, "seed", 1, "RNG seed for generated vectors")
	flag.StringVar(&o.metric, "metric", "l2", "distance metric: l2, ip, cosine")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, "Usage: hnsw-bench [flags]\n\n")
		fmt.Fprint(os.Stderr, "Builds a random HNSW index and reports build time, query throughput, and recall@k.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	return o
}

func parseMetric(name string) hnsw.Metric {
	switch name {
	case "ip":
		return hnsw.InnerProduct
	case "cosine":
		return hnsw.Cosine
	default:
		return hnsw.L2
	}
}

func randomVector(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = rng.Float32()*2 - 1
	}
	return v
}

func bruteForceTruth(vectors [][]float32, labels []uint64, query []float32, k int, metric hnsw.Metric) []uint64 {
	type scored struct {
		label uint64
		dist  float32
	}
	scores := make([]scored, len(vectors))
	for i, v := range vectors {
		var d float32
		if metric == hnsw.InnerProduct || metric == hnsw.Cosine {
			// The index normalizes both sides for these metrics, so rank by
			// cosine distance.
			var dot, nv, nq float64
			for j := range v {
				dot += float64(v[j]) * float64(query[j])
				nv += float64(v[j]) * float64(v[j])
				nq += float64(query[j]) * float64(query[j])
			}
			d = float32(1 - dot/(math.Sqrt(nv)*math.Sqrt(nq)))
		} else {
			for j := range v {
				diff := v[j] - query[j]
				d += diff * diff
			}
		}
		scores[i] = scored{labels[i], d}
	}
	for i := 1; i < len(scores); i++ {
		for j := i; j > 0 && scores[j-1].dist > scores[j].dist; j-- {
			scores[j-1], scores[j] = scores[j], scores[j-1]
		}
	}
	n := k
	if n > len(scores) {
		n = len(scores)
	}
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		out[i] = scores[i].label
	}
	return out
}

func main() {
	o := parseFlags()
	rng := rand.New(rand.NewSource(o.seed))

	idx, err := hnsw.New(hnsw.Config{
		Dim:            o.dim,
		Metric:         parseMetric(o.metric),
		M:              o.m,
		EfConstruction: o.efConstruction,
		Ef:             o.ef,
		Seed:           o.seed,
		Capacity:       o.count + o.queries,
		AutoResize:     true,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	vectors := make([][]float32, o.count)
	labels := make([]uint64, o.count)

	start := time.Now()
	for i := 0; i < o.count; i++ {
		v := randomVector(rng, o.dim)
		vectors[i] = v
		labels[i] = uint64(i + 1)
		if err := idx.Add(labels[i], v); err != nil {
			fmt.Fprintln(os.Stderr, "add error:", err)
			os.Exit(1)
		}
	}
	buildElapsed := time.Since(start)

	var totalRecall float64
	queryStart := time.Now()
	for q := 0; q < o.queries; q++ {
		query := randomVector(rng, o.dim)
		got, err := idx.SearchKNN(query, o.k, nil)
		if err != nil {
			fmt.Fprintln(os.Stderr, "search error:", err)
			os.Exit(1)
		}
		truth := bruteForceTruth(vectors, labels, query, o.k, parseMetric(o.metric))

		truthSet := make(map[uint64]bool, len(truth))
		for _, t := range truth {
			truthSet[t] = true
		}
		hits := 0
		for _, n := range got {
			if truthSet[n.Label] {
				hits++
			}
		}
		if len(truth) > 0 {
			totalRecall += float64(hits) / float64(len(truth))
		}
	}
	queryElapsed := time.Since(queryStart)

	avgRecall := totalRecall / float64(o.queries)
	qps := float64(o.queries) / queryElapsed.Seconds()

	fmt.Printf("indexed %d vectors (dim=%d, metric=%s) in %s (%.0f vectors/s)\n",
		o.count, o.dim, o.metric, buildElapsed, float64(o.count)/buildElapsed.Seconds())
	fmt.Printf("ran %d queries (k=%d, ef=%d) in %s (%.0f qps)\n",
		o.queries, o.k, o.ef, queryElapsed, qps)
	fmt.Printf("recall@%d: %.4f\n", o.k, avgRecall)
}
