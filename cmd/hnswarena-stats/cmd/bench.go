package cmd

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumenvec/hnswarena/hnswarena"
)

var (
	benchCount   int
	benchQueries int
	benchEf      int
	benchSeed    int64
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Insert random vectors and measure recall against a brute-force baseline",
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := hnswarena.New(
			hnswarena.WithDimension(uint32(dimension)),
			hnswarena.WithMaxElements(uint32(benchCount)),
			hnswarena.WithHNSW(uint32(m), 0, 200),
		)
		if err != nil {
			return fmt.Errorf("building index: %w", err)
		}
		defer idx.Close()

		rng := rand.New(rand.NewSource(benchSeed))
		vectors := make([][]float32, benchCount)
		for i := range vectors {
			v := randomVector(rng, dimension)
			vectors[i] = v
			if _, err := idx.Insert(uint32(i), v); err != nil {
				return fmt.Errorf("inserting element %d: %w", i, err)
			}
		}
		logger.Info("inserted vectors", "count", benchCount)

		const k = 10
		var hits, total int
		start := time.Now()
		for q := 0; q < benchQueries; q++ {
			query := randomVector(rng, dimension)

			results, err := idx.Search(query, benchEf)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			approx := make(map[uint32]bool, k)
			for i := 0; i < len(results) && i < k; i++ {
				approx[results[i].External] = true
			}

			truth := bruteForceKNearest(vectors, query, k)
			for _, ext := range truth {
				if approx[ext] {
					hits++
				}
			}
			total += len(truth)
		}
		elapsed := time.Since(start)

		recall := 0.0
		if total > 0 {
			recall = float64(hits) / float64(total)
		}
		fmt.Printf("queries=%d k=%d ef=%d recall@%d=%.4f avg_latency=%s\n",
			benchQueries, k, benchEf, k, recall, elapsed/time.Duration(benchQueries))
		return nil
	},
}

func randomVector(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = rng.Float32()
	}
	return v
}

func bruteForceKNearest(vectors [][]float32, query []float32, k int) []uint32 {
	type scored struct {
		ext  uint32
		dist float32
	}
	scores := make([]scored, len(vectors))
	for i, v := range vectors {
		scores[i] = scored{ext: uint32(i), dist: l2(v, query)}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].dist < scores[j].dist })
	if k > len(scores) {
		k = len(scores)
	}
	out := make([]uint32, k)
	for i := 0; i < k; i++ {
		out[i] = scores[i].ext
	}
	return out
}

func l2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func init() {
	benchCmd.Flags().IntVar(&benchCount, "count", 10_000, "number of random vectors to insert")
	benchCmd.Flags().IntVar(&benchQueries, "queries", 100, "number of random query vectors")
	benchCmd.Flags().IntVar(&benchEf, "ef", 64, "search-time beam width")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", 42, "PRNG seed for generated vectors")
}
