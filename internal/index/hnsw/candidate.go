package hnsw

import "container/heap"

// Candidate pairs an element with its distance to the query the set was
// built against.
type Candidate struct {
	ID       ElementID
	Distance float32
}

type candidateOrder int

const (
	nearestFirst candidateOrder = iota
	furthestFirst
)

// CandidateSet is a priority queue over Candidate, usable as either a
// min-heap (nearest-first, for the search frontier / work queue) or a
// max-heap (furthest-first, for the bounded result set W whose top is the
// one to evict when a closer candidate arrives). The source reaches for
// this duality by wrapping the same std::priority_queue with reversed
// comparators; container/heap's Less-minimal-root semantics make that an
// ordering flag rather than a second type.
type CandidateSet struct {
	items []Candidate
	order candidateOrder
}

// NewCandidateSet returns an empty set in the given order.
func NewCandidateSet(order candidateOrder) *CandidateSet {
	return &CandidateSet{order: order}
}

// NewCandidateSetFrom builds a heap of the given order directly from an
// existing backing slice (no per-element push), mirroring
// search_layer_update_nearest's construction of a nearest-first
// `candidates` queue from W's furthest-first container.
func NewCandidateSetFrom(items []Candidate, order candidateOrder) *CandidateSet {
	cs := &CandidateSet{items: append([]Candidate(nil), items...), order: order}
	heap.Init(cs)
	return cs
}

func (cs *CandidateSet) Len() int { return len(cs.items) }

func (cs *CandidateSet) Less(i, j int) bool {
	if cs.order == nearestFirst {
		return cs.items[i].Distance < cs.items[j].Distance
	}
	return cs.items[i].Distance > cs.items[j].Distance
}

func (cs *CandidateSet) Swap(i, j int) { cs.items[i], cs.items[j] = cs.items[j], cs.items[i] }

func (cs *CandidateSet) Push(x any) { cs.items = append(cs.items, x.(Candidate)) }

func (cs *CandidateSet) Pop() any {
	old := cs.items
	n := len(old)
	item := old[n-1]
	cs.items = old[:n-1]
	return item
}

// PushCandidate inserts c, maintaining the heap invariant.
func (cs *CandidateSet) PushCandidate(c Candidate) { heap.Push(cs, c) }

// PopCandidate removes and returns the root (nearest if nearestFirst,
// furthest if furthestFirst).
func (cs *CandidateSet) PopCandidate() Candidate { return heap.Pop(cs).(Candidate) }

// Top returns the root without removing it.
func (cs *CandidateSet) Top() Candidate { return cs.items[0] }

// Size returns the number of candidates currently held.
func (cs *CandidateSet) Size() int { return len(cs.items) }

// Empty reports whether the set holds no candidates.
func (cs *CandidateSet) Empty() bool { return len(cs.items) == 0 }

// Backing returns the set's underlying slice, in heap (not sorted) order.
// Callers use it to seed a new CandidateSet of the opposite order, or to
// read (not modify) the held candidates without popping them.
func (cs *CandidateSet) Backing() []Candidate { return cs.items }
