package hnsw

import "sort"

// DistanceFunc computes the distance between two vectors of equal length.
// Smaller is nearer; GraphBuilder never assumes a particular metric beyond
// that.
type DistanceFunc func(a, b []float32) float32

// GraphBuilder threads an ElementStore and a distance function together
// into the HNSW insertion algorithm (source Index::Insert, Algorithm 1).
// It holds the only piece of mutable state the search/insert algorithms
// need beyond the store itself: the current entrypoint and its level.
type GraphBuilder struct {
	Store    *ElementStore
	Distance DistanceFunc

	ef int // construction-time beam width (efConstruction)

	entrypoint    ElementID
	entryLevel    int
	hasEntryPoint bool
}

// NewGraphBuilder wires a store and distance function together.
// efConstruction is the beam width used while inserting (search_layer's W
// cap on layers below the new element's own level).
func NewGraphBuilder(store *ElementStore, distance DistanceFunc, efConstruction int) *GraphBuilder {
	return &GraphBuilder{
		Store:    store,
		Distance: distance,
		ef:       efConstruction,
	}
}

// EntryPoint returns the current entrypoint id and its level. ok is false
// before the first element has ever been inserted.
func (g *GraphBuilder) EntryPoint() (id ElementID, level int, ok bool) {
	return g.entrypoint, g.entryLevel, g.hasEntryPoint
}

// Search returns up to ef elements nearest to query, nearest first. This
// is not present in the source (deletion and query code there is
// incomplete) but is the natural query-time counterpart of search_layer:
// an ef=1 descent to layer 0 followed by one bounded beam search there,
// the same shape Insert already uses per layer. Unlike Insert, there is
// only ever one layer to search, so W and visited are local to this call.
func (g *GraphBuilder) Search(query []float32, ef int) []Candidate {
	if !g.hasEntryPoint {
		return nil
	}
	nearest := g.entrypoint
	for l := g.entryLevel; l > 0; l-- {
		nearest = g.descend(nearest, query, l)
	}

	visited := NewVisitedSet(ef * 4)
	visited.Mark(nearest)
	w := NewCandidateSet(furthestFirst)
	w.PushCandidate(Candidate{ID: nearest, Distance: g.distanceTo(nearest, query)})
	g.searchLayer(query, w, visited, 0, ef)

	results := append([]Candidate(nil), w.Backing()...)
	sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	return results
}

func (g *GraphBuilder) distanceTo(id ElementID, query []float32) float32 {
	v, err := g.Store.PayloadOf(id)
	if err != nil {
		// Store guarantees ids handed to distanceTo were just allocated or
		// read off a live element's neighbor array; a failure here means a
		// caller bug, not a runtime condition to recover from.
		panic(err)
	}
	return g.Distance(v, query)
}

// Insert allocates externalID/vector as a new element and threads it into
// the graph, faithfully reproducing Index::Insert (Algorithm 1): an ef=1
// descent from the current entrypoint down to the new element's own
// level, then a single furthest-first W and a single visited set, both
// created once here and threaded by reference through every layer from
// the new element's own level down to 0 — searchLayer and selectNeighbors
// mutate them in place rather than each layer starting over from
// scratch, exactly as Index.cpp:40-56 declares nearest_elements_furthest_
// first and visited once, outside the per-layer loop.
func (g *GraphBuilder) Insert(externalID uint32, vector []float32) (ElementID, error) {
	id, err := g.Store.Alloc(externalID, vector)
	if err != nil {
		return NoElement, err
	}
	level, err := g.Store.LevelOf(id)
	if err != nil {
		return NoElement, err
	}

	if !g.hasEntryPoint {
		g.entrypoint = id
		g.entryLevel = level
		g.hasEntryPoint = true
		return id, nil
	}

	nearest := g.entrypoint
	for l := g.entryLevel; l > level; l-- {
		nearest = g.descend(nearest, vector, l)
	}

	visited := NewVisitedSet(g.ef * 4)
	visited.Mark(nearest)
	w := NewCandidateSet(furthestFirst)
	w.PushCandidate(Candidate{ID: nearest, Distance: g.distanceTo(nearest, vector)})

	for l := min(level, g.entryLevel); l >= 0; l-- {
		g.searchLayer(vector, w, visited, l, g.ef)
		selected := g.selectNeighbors(vector, w, visited, l, g.Store.MaxNeighborsAt(l))
		g.addLinks(id, l, selected)
	}

	if level > g.entryLevel {
		g.entrypoint = id
		g.entryLevel = level
	}
	return id, nil
}

// descend performs one ef=1 greedy hop at layer l: it repeatedly scans
// every neighbor of the current nearest element, captured once at the top
// of the loop, and only restarts the scan (against a possibly-improved
// nearest) once a full pass over that captured neighbor list yields no
// closer element. This mirrors update_entrypoint_to_nearest's subtlety
// exactly: a mid-scan improvement does not short-circuit the remaining
// neighbors of the ORIGINAL capture.
func (g *GraphBuilder) descend(from ElementID, query []float32, level int) ElementID {
	nearest := from
	nearestDist := g.distanceTo(nearest, query)
	for {
		improved := false
		for _, link := range g.Store.NeighborsAt(nearest, level) {
			if link.Outgoing == NoElement {
				break
			}
			d := g.distanceTo(link.Outgoing, query)
			if d < nearestDist {
				nearestDist = d
				nearest = link.Outgoing
				improved = true
			}
		}
		if !improved {
			return nearest
		}
	}
}

// searchLayer is Algorithm 2: a bounded beam search over level. w and
// visited are both owned by the caller and threaded across every layer
// of one Insert (or, for Search, scoped to its single layer-0 call): w
// is seeded with the entry point(s) already on its way in and is updated
// in place, growing and shrinking as candidates are admitted or evicted,
// so the caller moving on to the next layer simply keeps using the same
// w rather than re-deriving a seed from it. Mirrors search_layer_update_
// nearest taking W and visited by reference (Index.cpp:40-56).
func (g *GraphBuilder) searchLayer(query []float32, w *CandidateSet, visited *VisitedSet, level int, ef int) {
	candidates := NewCandidateSetFrom(w.Backing(), nearestFirst)

	for !candidates.Empty() {
		c := candidates.PopCandidate()
		if !w.Empty() && c.Distance > w.Top().Distance {
			break
		}
		for _, link := range g.Store.NeighborsAt(c.ID, level) {
			if link.Outgoing == NoElement {
				break
			}
			if visited.Contains(link.Outgoing) {
				continue
			}
			visited.Mark(link.Outgoing)
			d := g.distanceTo(link.Outgoing, query)
			if w.Size() < ef || d < w.Top().Distance {
				candidates.PushCandidate(Candidate{ID: link.Outgoing, Distance: d})
				w.PushCandidate(Candidate{ID: link.Outgoing, Distance: d})
				if w.Size() > ef {
					w.PopCandidate()
				}
			}
		}
	}
}

// selectNeighbors is Algorithm 4's heuristic with extend-candidates and
// keep-pruned-connections always on: it always takes the single globally
// nearest candidate first, then tops the remaining budget up from the
// discard pile in nearest-first order. Because the work queue delivers
// non-decreasing distances, no later candidate is ever strictly nearer than
// the first one accepted, so the result is simply the m nearest candidates.
// visited is the same instance searchLayer just finished updating for
// this layer (and every layer above it in this Insert); every id ever
// pushed into candidates was marked there, so extend-candidates reuses
// it rather than re-deriving a fresh set from candidates' backing, the
// same single visited object select_neighbors is handed in the source
// (Index.cpp:53).
func (g *GraphBuilder) selectNeighbors(query []float32, candidates *CandidateSet, visited *VisitedSet, level, m int) []Candidate {
	workQueue := NewCandidateSetFrom(candidates.Backing(), nearestFirst)

	// extend candidates: pull in each candidate's own unvisited neighbors.
	// The visited check here tests the NEIGHBOR id, the bug fix this
	// implementation applies relative to the source's candidate-id check.
	for _, c := range candidates.Backing() {
		for _, link := range g.Store.NeighborsAt(c.ID, level) {
			if link.Outgoing == NoElement {
				break
			}
			if visited.Contains(link.Outgoing) {
				continue
			}
			visited.Mark(link.Outgoing)
			d := g.distanceTo(link.Outgoing, query)
			workQueue.PushCandidate(Candidate{ID: link.Outgoing, Distance: d})
		}
	}

	neighbors := NewCandidateSet(furthestFirst)
	var discarded []Candidate
	for !workQueue.Empty() && neighbors.Size() < m {
		cand := workQueue.PopCandidate()
		if neighbors.Empty() || cand.Distance < neighbors.Top().Distance {
			neighbors.PushCandidate(cand)
		} else {
			discarded = append(discarded, cand)
		}
	}
	for _, cand := range discarded {
		if neighbors.Size() >= m {
			break
		}
		neighbors.PushCandidate(cand)
	}
	return neighbors.Backing()
}

// addLinks installs bidirectional edges between the newly-inserted id and
// each of its selected neighbors at level, shrinking any neighbor whose
// array is already full. Mirrors Index::add_links driving
// add_link_from_element_to_neighbor and add_link_from_neighbor_to_element.
func (g *GraphBuilder) addLinks(id ElementID, level int, selected []Candidate) {
	for _, nb := range selected {
		g.linkOneWay(id, nb.ID, level)
		g.linkBack(nb.ID, id, level)
	}
}

// linkOneWay installs to as one of from's outgoing neighbors at level.
// from was just allocated so its array always has room (I3: a fresh
// record's links are all NoElement).
func (g *GraphBuilder) linkOneWay(from, to ElementID, level int) {
	idx, ok := g.Store.FirstUnusedSlot(from, level)
	if !ok {
		// Should not happen: m <= max_neighbors(level) is the precondition
		// selectNeighbors is called under.
		return
	}
	g.Store.SetSlotOutgoing(from, level, idx, to)
}

// linkBack installs newElem as one of existing's outgoing neighbors at
// level, shrinking existing's neighbor set if it is already full: the
// slot holding the element furthest from existing is evicted in favor of
// newElem, unless newElem itself is the furthest (in which case nothing
// changes).
func (g *GraphBuilder) linkBack(existing, newElem ElementID, level int) {
	if idx, ok := g.Store.FirstUnusedSlot(existing, level); ok {
		g.Store.SetSlotOutgoing(existing, level, idx, newElem)
		return
	}

	existingVec, err := g.Store.PayloadOf(existing)
	if err != nil {
		panic(err)
	}
	furthestIdx := -1
	var furthestDist float32
	for i, link := range g.Store.NeighborsAt(existing, level) {
		d := g.distanceTo(link.Outgoing, existingVec)
		if furthestIdx == -1 || d > furthestDist {
			furthestIdx = i
			furthestDist = d
		}
	}
	newDist := g.distanceTo(newElem, existingVec)
	if newDist < furthestDist {
		g.Store.SetSlotOutgoing(existing, level, furthestIdx, newElem)
	}
}
