package hnsw

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateSetNearestFirstOrder(t *testing.T) {
	cs := NewCandidateSet(nearestFirst)
	cs.PushCandidate(Candidate{ID: 1, Distance: 5})
	cs.PushCandidate(Candidate{ID: 2, Distance: 1})
	cs.PushCandidate(Candidate{ID: 3, Distance: 3})

	assert.Equal(t, ElementID(2), cs.PopCandidate().ID)
	assert.Equal(t, ElementID(3), cs.PopCandidate().ID)
	assert.Equal(t, ElementID(1), cs.PopCandidate().ID)
	assert.True(t, cs.Empty())
}

func TestCandidateSetFurthestFirstOrder(t *testing.T) {
	cs := NewCandidateSet(furthestFirst)
	cs.PushCandidate(Candidate{ID: 1, Distance: 5})
	cs.PushCandidate(Candidate{ID: 2, Distance: 1})
	cs.PushCandidate(Candidate{ID: 3, Distance: 3})

	assert.Equal(t, ElementID(1), cs.Top().ID)
	assert.Equal(t, ElementID(1), cs.PopCandidate().ID)
	assert.Equal(t, ElementID(3), cs.PopCandidate().ID)
	assert.Equal(t, ElementID(2), cs.PopCandidate().ID)
}

func TestNewCandidateSetFromRebuildsOppositeOrder(t *testing.T) {
	furthest := NewCandidateSet(furthestFirst)
	for _, d := range []float32{5, 1, 3, 9, 2} {
		furthest.PushCandidate(Candidate{Distance: d})
	}

	nearest := NewCandidateSetFrom(furthest.Backing(), nearestFirst)
	var got []float32
	for !nearest.Empty() {
		got = append(got, nearest.PopCandidate().Distance)
	}
	assert.Equal(t, []float32{1, 2, 3, 5, 9}, got)
}
