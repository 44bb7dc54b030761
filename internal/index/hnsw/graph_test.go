package hnsw

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func l2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return float32(math.Sqrt(float64(sum)))
}

func newTestGraph(t *testing.T) (*GraphBuilder, *ElementStore) {
	t.Helper()
	p := Params{Dimension: 2, MaxElems: 512, M: 8, M0: 16}
	store, err := NewElementStore(p, 4096)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewGraphBuilder(store, l2, 32), store
}

func TestFirstInsertBecomesEntrypoint(t *testing.T) {
	g, _ := newTestGraph(t)
	id, err := g.Insert(1, []float32{0, 0})
	require.NoError(t, err)

	ep, _, ok := g.EntryPoint()
	require.True(t, ok)
	assert.Equal(t, id, ep)
}

func TestSearchLayerFindsTrueNearestAmongSmallSet(t *testing.T) {
	g, _ := newTestGraph(t)
	points := [][2]float32{{0, 0}, {10, 10}, {1, 1}, {5, 5}, {0.5, 0.5}}
	for i, p := range points {
		_, err := g.Insert(uint32(i), []float32{p[0], p[1]})
		require.NoError(t, err)
	}

	ep, level, ok := g.EntryPoint()
	require.True(t, ok)
	query := []float32{0, 0}

	visited := NewVisitedSet(40)
	visited.Mark(ep)
	w := NewCandidateSet(furthestFirst)
	w.PushCandidate(Candidate{ID: ep, Distance: g.distanceTo(ep, query)})
	g.searchLayer(query, w, visited, 0, 10)
	_ = level

	best := w.PopCandidate()
	for !w.Empty() {
		c := w.PopCandidate()
		if c.Distance < best.Distance {
			best = c
		}
	}

	// brute force
	var bruteBest float32 = -1
	var bruteID ElementID
	for i, p := range points {
		d := l2(query, []float32{p[0], p[1]})
		if bruteBest < 0 || d < bruteBest {
			bruteBest = d
			bruteID = ElementID(i + 1)
		}
	}
	assert.Equal(t, bruteID, best.ID)
}

func TestLinksAreBidirectionalWhenNoShrinkNeeded(t *testing.T) {
	g, store := newTestGraph(t)
	var ids []ElementID
	for i := 0; i < 4; i++ {
		id, err := g.Insert(uint32(i), []float32{float32(i), float32(i)})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	last := ids[len(ids)-1]
	var linkedTo []ElementID
	for _, l := range store.NeighborsAt(last, 0) {
		if l.Outgoing != NoElement {
			linkedTo = append(linkedTo, l.Outgoing)
		}
	}
	require.NotEmpty(t, linkedTo)

	for _, nb := range linkedTo {
		found := false
		for _, l := range store.NeighborsAt(nb, 0) {
			if l.Outgoing == last {
				found = true
			}
		}
		assert.True(t, found, "neighbor %d has no back-link to %d", nb, last)
	}
}

func TestInsertAfterFreeReusesSlotWithoutCorruption(t *testing.T) {
	g, store := newTestGraph(t)
	id, err := g.Insert(1, []float32{0, 0})
	require.NoError(t, err)
	_, err = g.Insert(2, []float32{1, 1})
	require.NoError(t, err)

	require.NoError(t, store.Free(id))

	reused, err := g.Insert(3, []float32{2, 2})
	require.NoError(t, err)
	assert.Equal(t, id, reused)

	payload, err := store.PayloadOf(reused)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 2}, payload)
}

func TestEntrypointPromotesToHigherLevelElement(t *testing.T) {
	g, store := newTestGraph(t)
	_, err := g.Insert(1, []float32{0, 0})
	require.NoError(t, err)

	_, maxLevelSoFar, _ := g.EntryPoint()

	// Insert enough elements that eventually one samples a level above the
	// running maximum; the entrypoint must then be promoted to it.
	promoted := false
	for i := 2; i < 200; i++ {
		id, err := g.Insert(uint32(i), []float32{float32(i % 7), float32(i % 5)})
		require.NoError(t, err)
		level, err := store.LevelOf(id)
		require.NoError(t, err)
		if level > maxLevelSoFar {
			ep, epLevel, _ := g.EntryPoint()
			assert.Equal(t, id, ep)
			assert.Equal(t, level, epLevel)
			maxLevelSoFar = level
			promoted = true
		}
	}
	assert.True(t, promoted, "expected at least one element to exceed the initial entrypoint level across 200 inserts")
}
