package hnswarena

import "github.com/lumenvec/hnswarena/internal/index/hnsw"

// ElementID identifies an element within an Index. It is 1-based;
// NoElement (zero) means "absent".
type ElementID = hnsw.ElementID

// NoElement is the sentinel ElementID meaning "absent".
const NoElement = hnsw.NoElement

// SearchResult pairs an element with its distance to the query it was
// found for.
type SearchResult struct {
	ID       ElementID
	External uint32
	Distance float32
}

// LayerStats reports the precomputed layout and sizing estimate for one
// layer, surfaced for diagnostics (cmd/hnswarena-stats' stats subcommand).
type LayerStats struct {
	Level             int
	Probability       float64
	MaxNeighbors      int
	BytesPerElement   uint32
	EstimatedElements uint64
	EstimatedBytes    uint64
	EstimatedBlocks   uint64
}
