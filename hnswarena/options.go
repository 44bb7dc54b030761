package hnswarena

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lumenvec/hnswarena/internal/index/hnsw"
)

// Config is the fully-resolved configuration an Index is built from.
type Config struct {
	Dimension uint32
	MaxElems  uint32
	M         uint32
	M0        uint32

	BlockSize      uint64
	EfConstruction int
	Metric         DistanceMetric
	Distance       DistanceFunc

	Logger   *slog.Logger
	Registry prometheus.Registerer
}

// Option configures an Index at construction time.
type Option func(*Config) error

func defaultConfig() *Config {
	return &Config{
		BlockSize:      hnsw.DefaultBlockSize,
		EfConstruction: 200,
		Metric:         L2Distance,
		Logger:         slog.Default(),
	}
}

// WithDimension sets the fixed vector length every element must match.
func WithDimension(dim uint32) Option {
	return func(c *Config) error {
		if dim == 0 {
			return fmt.Errorf("hnswarena: dimension must be positive")
		}
		c.Dimension = dim
		return nil
	}
}

// WithMaxElements upper-bounds the number of simultaneously live elements.
func WithMaxElements(max uint32) Option {
	return func(c *Config) error {
		if max == 0 {
			return fmt.Errorf("hnswarena: max elements must be positive")
		}
		c.MaxElems = max
		return nil
	}
}

// WithHNSW configures the graph degree bounds and construction-time beam
// width. m0, the layer-0 degree bound, defaults to 2*m when left as 0.
func WithHNSW(m, m0 uint32, efConstruction int) Option {
	return func(c *Config) error {
		if m < 2 {
			return fmt.Errorf("hnswarena: M must be at least 2")
		}
		if efConstruction <= 0 {
			return fmt.Errorf("hnswarena: efConstruction must be positive")
		}
		if m0 == 0 {
			m0 = 2 * m
		}
		c.M = m
		c.M0 = m0
		c.EfConstruction = efConstruction
		return nil
	}
}

// WithMetric selects one of the built-in distance functions.
func WithMetric(metric DistanceMetric) Option {
	return func(c *Config) error {
		if _, err := GetDistanceFunc(metric); err != nil {
			return err
		}
		c.Metric = metric
		return nil
	}
}

// WithDistanceFunc installs a caller-supplied distance function, taking
// precedence over WithMetric.
func WithDistanceFunc(fn DistanceFunc) Option {
	return func(c *Config) error {
		if fn == nil {
			return fmt.Errorf("hnswarena: distance func cannot be nil")
		}
		c.Distance = fn
		return nil
	}
}

// WithBlockSize overrides the arena's bump-allocation block granularity.
func WithBlockSize(bytes uint64) Option {
	return func(c *Config) error {
		if bytes == 0 {
			return fmt.Errorf("hnswarena: block size must be positive")
		}
		c.BlockSize = bytes
		return nil
	}
}

// WithLogger installs a structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			return fmt.Errorf("hnswarena: logger cannot be nil")
		}
		c.Logger = logger
		return nil
	}
}

// WithMetricsRegisterer enables Prometheus metrics, registered against
// reg. Metrics are disabled (c.Registry stays nil) unless this is called.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(c *Config) error {
		c.Registry = reg
		return nil
	}
}
