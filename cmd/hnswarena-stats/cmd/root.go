package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  *slog.Logger

	dimension int
	maxElems  int
	m         int
)

var rootCmd = &cobra.Command{
	Use:   "hnswarena-stats",
	Short: "Inspect and benchmark packed-arena HNSW index layouts",
	Long: `hnswarena-stats reports the per-layer byte layout an HNSW index of a
given dimension/M/capacity would use, and benchmarks recall against a
brute-force baseline on randomly generated vectors.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	},
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&dimension, "dimension", 128, "vector dimension")
	rootCmd.PersistentFlags().IntVar(&maxElems, "max-elements", 1_000_000, "maximum number of elements the index is sized for")
	rootCmd.PersistentFlags().IntVar(&m, "m", 16, "target out-degree on layers above 0 (layer 0 uses 2*m)")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(benchCmd)
}
