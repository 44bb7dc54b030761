package hnswarena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New(
		WithDimension(4),
		WithMaxElements(1024),
		WithHNSW(8, 0, 64),
		WithMetric(L2Distance),
	)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestNewRequiresDimension(t *testing.T) {
	_, err := New(WithMaxElements(10), WithHNSW(8, 0, 64))
	assert.Error(t, err)
}

func TestNewRequiresMaxElements(t *testing.T) {
	_, err := New(WithDimension(4), WithHNSW(8, 0, 64))
	assert.Error(t, err)
}

func TestNewDefaultsM0ToTwiceM(t *testing.T) {
	idx := newTestIndex(t)
	assert.Equal(t, uint32(16), idx.cfg.M0)
}

func TestInsertRejectsWrongDimension(t *testing.T) {
	idx := newTestIndex(t)
	_, err := idx.Insert(1, []float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestInsertAndSearchRoundTrip(t *testing.T) {
	idx := newTestIndex(t)
	type labeled struct {
		ext uint32
		vec []float32
	}
	points := []labeled{
		{1, []float32{0, 0, 0, 0}},
		{2, []float32{10, 10, 10, 10}},
		{3, []float32{0.1, 0.1, 0.1, 0.1}},
		{4, []float32{5, 5, 5, 5}},
	}
	for _, p := range points {
		_, err := idx.Insert(p.ext, p.vec)
		require.NoError(t, err)
	}

	results, err := idx.Search([]float32{0, 0, 0, 0}, 4)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, uint32(1), results[0].External)
}

func TestFreeThenReinsertReusesSlot(t *testing.T) {
	idx := newTestIndex(t)
	id, err := idx.Insert(1, []float32{1, 1, 1, 1})
	require.NoError(t, err)
	require.NoError(t, idx.Free(id))

	reused, err := idx.Insert(2, []float32{2, 2, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, id, reused)
}

func TestFreeRejectsUnknownID(t *testing.T) {
	idx := newTestIndex(t)
	err := idx.Free(999)
	assert.ErrorIs(t, err, ErrInvalidElement)
}

func TestStatsReportsAscendingLevels(t *testing.T) {
	idx := newTestIndex(t)
	stats := idx.Stats()
	require.NotEmpty(t, stats)
	for i, s := range stats {
		assert.Equal(t, i, s.Level)
	}
}

func TestSearchRejectsWrongDimension(t *testing.T) {
	idx := newTestIndex(t)
	_, err := idx.Search([]float32{1, 2}, 5)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
