// Command hnswarena-stats reports the per-layer arena layout an HNSW index
// of a given shape would use, and benchmarks recall against a brute-force
// baseline on randomly generated vectors.
package main

import "github.com/lumenvec/hnswarena/cmd/hnswarena-stats/cmd"

func main() {
	cmd.Execute()
}
