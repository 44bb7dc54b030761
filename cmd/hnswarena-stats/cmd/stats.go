package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumenvec/hnswarena/hnswarena"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the per-layer arena layout for the configured index shape",
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := hnswarena.New(
			hnswarena.WithDimension(uint32(dimension)),
			hnswarena.WithMaxElements(uint32(maxElems)),
			hnswarena.WithHNSW(uint32(m), 0, 200),
		)
		if err != nil {
			return fmt.Errorf("building index for stats: %w", err)
		}
		defer idx.Close()

		fmt.Printf("dimension=%d max_elements=%d m=%d\n\n", dimension, maxElems, m)
		fmt.Printf("%-6s %-12s %-10s %-16s %-18s %-16s %s\n",
			"layer", "probability", "max_nbrs", "bytes/element", "est. elements", "est. bytes", "est. GB")

		var totalBytes uint64
		for _, l := range idx.Stats() {
			totalBytes += l.EstimatedBytes
			fmt.Printf("%-6d %-12.6g %-10d %-16d %-18d %-16d %.4f\n",
				l.Level, l.Probability, l.MaxNeighbors, l.BytesPerElement,
				l.EstimatedElements, l.EstimatedBytes, float64(l.EstimatedBytes)/(1<<30))
		}
		fmt.Printf("\ntotal estimated: %.4f GB\n", float64(totalBytes)/(1<<30))
		return nil
	},
}
