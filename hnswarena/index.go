package hnswarena

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumenvec/hnswarena/internal/index/hnsw"
)

// Index is a packed-arena HNSW approximate nearest-neighbor index. It is
// not safe for concurrent use; callers serialize their own access.
type Index struct {
	cfg   *Config
	store *hnsw.ElementStore
	graph *hnsw.GraphBuilder

	logger  *slog.Logger
	metrics *Metrics
}

// New builds an Index from the given options. WithDimension,
// WithMaxElements and WithHNSW are required.
func New(opts ...Option) (*Index, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.Dimension == 0 {
		return nil, fmt.Errorf("hnswarena: WithDimension is required")
	}
	if cfg.MaxElems == 0 {
		return nil, fmt.Errorf("hnswarena: WithMaxElements is required")
	}
	if cfg.M == 0 {
		return nil, fmt.Errorf("hnswarena: WithHNSW is required")
	}
	if cfg.Distance == nil {
		fn, err := GetDistanceFunc(cfg.Metric)
		if err != nil {
			return nil, err
		}
		cfg.Distance = fn
	}

	store, err := hnsw.NewElementStore(hnsw.Params{
		Dimension: cfg.Dimension,
		MaxElems:  cfg.MaxElems,
		M:         cfg.M,
		M0:        cfg.M0,
	}, cfg.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("hnswarena: %w", translateStoreErr(err))
	}

	idx := &Index{
		cfg:    cfg,
		store:  store,
		graph:  hnsw.NewGraphBuilder(store, hnsw.DistanceFunc(cfg.Distance), cfg.EfConstruction),
		logger: cfg.Logger,
	}
	if cfg.Registry != nil {
		idx.metrics = NewMetrics(cfg.Registry)
		store.OnFreeSlotReused = func(level int) {
			idx.metrics.FreeSlotReuses.Inc()
			idx.logger.Debug("reused freed slot", "level", level)
		}
		store.OnPoolExhausted = func(level int) {
			idx.metrics.PoolExhaustions.Inc()
			idx.logger.Warn("arena headroom pool exhausted", "level", level)
		}
	}
	idx.logger.Info("index created",
		"dimension", cfg.Dimension, "max_elements", cfg.MaxElems, "m", cfg.M, "m0", cfg.M0)
	return idx, nil
}

// Close releases the index's backing arena memory.
func (idx *Index) Close() error {
	return idx.store.Close()
}

// Insert adds vector, labeled externalID, as a new element and links it
// into the graph. Returns ErrDimensionMismatch if len(vector) != the
// index's configured dimension, ErrOutOfMemory if the arena has no room.
func (idx *Index) Insert(externalID uint32, vector []float32) (ElementID, error) {
	if uint32(len(vector)) != idx.cfg.Dimension {
		return NoElement, dimensionError(int(idx.cfg.Dimension), len(vector))
	}
	id, err := idx.graph.Insert(externalID, vector)
	if err != nil {
		idx.logger.Error("insert failed", "error", err)
		return NoElement, fmt.Errorf("hnswarena: insert: %w", translateStoreErr(err))
	}
	if idx.metrics != nil {
		idx.metrics.ElementInserts.Inc()
	}
	return id, nil
}

// Free removes id from the live set, recycling its record bytes into the
// free list. It does not unlink id from other elements' neighbor arrays
// (see DESIGN.md); stale outgoing links to a freed id are a known,
// inherited limitation.
func (idx *Index) Free(id ElementID) error {
	if err := idx.store.Free(id); err != nil {
		return fmt.Errorf("hnswarena: free: %w", translateStoreErr(err))
	}
	if idx.metrics != nil {
		idx.metrics.ElementFrees.Inc()
	}
	return nil
}

// Search returns up to ef elements nearest to query, nearest first.
func (idx *Index) Search(query []float32, ef int) ([]SearchResult, error) {
	if uint32(len(query)) != idx.cfg.Dimension {
		return nil, dimensionError(int(idx.cfg.Dimension), len(query))
	}
	if idx.metrics != nil {
		idx.metrics.SearchQueries.Inc()
		timer := newTimer()
		defer func() { idx.metrics.SearchLatency.Observe(timer()) }()
	}
	candidates := idx.graph.Search(query, ef)
	results := make([]SearchResult, len(candidates))
	for i, c := range candidates {
		ext, err := idx.store.ExternalIDOf(c.ID)
		if err != nil {
			return nil, fmt.Errorf("hnswarena: search: %w", translateStoreErr(err))
		}
		results[i] = SearchResult{ID: c.ID, External: ext, Distance: c.Distance}
	}
	return results, nil
}

// LevelOf returns the layer id lives at.
func (idx *Index) LevelOf(id ElementID) (int, error) {
	level, err := idx.store.LevelOf(id)
	if err != nil {
		return 0, translateStoreErr(err)
	}
	return level, nil
}

// PayloadOf returns a copy of id's stored vector.
func (idx *Index) PayloadOf(id ElementID) ([]float32, error) {
	v, err := idx.store.PayloadOf(id)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return v, nil
}

// ExternalIDOf returns the caller-supplied label id was inserted with.
func (idx *Index) ExternalIDOf(id ElementID) (uint32, error) {
	ext, err := idx.store.ExternalIDOf(id)
	if err != nil {
		return 0, translateStoreErr(err)
	}
	return ext, nil
}

// Stats reports the precomputed per-layer layout and sizing estimates,
// the data print_index_stats reported in the original prototype's CLI.
func (idx *Index) Stats() []LayerStats {
	layers := idx.store.Layers()
	out := make([]LayerStats, len(layers))
	for i, l := range layers {
		out[i] = LayerStats{
			Level:             l.Level,
			Probability:       l.Probability,
			MaxNeighbors:      l.MaxNeighbors,
			BytesPerElement:   l.BytesPerElement,
			EstimatedElements: l.EstimatedElements,
			EstimatedBytes:    l.EstimatedBytes,
			EstimatedBlocks:   l.EstimatedBlocks,
		}
	}
	return out
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, hnsw.ErrInvalidID):
		return ErrInvalidElement
	case errors.Is(err, hnsw.ErrOutOfMemory):
		return ErrOutOfMemory
	default:
		return err
	}
}

func newTimer() func() float64 {
	start := time.Now()
	return func() float64 { return time.Since(start).Seconds() }
}
