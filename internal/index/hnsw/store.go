package hnsw

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
)

// Link is one neighbor-array entry: the outgoing edge this element holds
// toward another, plus the incoming-link thread used (in the source, and
// left as a documented gap here — see SPEC_FULL.md Open Question 2) for
// deletion-time cleanup.
type Link struct {
	Outgoing     ElementID
	IncomingNext ElementID
}

// layerState is the mutable allocation cursor and free-list head/tail for
// one layer, as opposed to Layer which is the static, precomputed layout.
type layerState struct {
	offset    uint64 // bump-pointer cursor, an arena byte offset
	freeBytes uint64

	freeHead ElementID
	freeTail ElementID
}

// ElementStore owns the arena, the id->address lookup table, and the free
// list, exclusively. GraphBuilder borrows it for the duration of one
// Insert call but never owns arena bytes itself.
type ElementStore struct {
	params Params
	layers []Layer
	states []layerState

	arena     *Arena
	blockSize uint64

	lookup []uint64 // ElementID -> arena byte offset; index 0 unused
	nextID ElementID

	globalFreeHead ElementID

	rng *rand.Rand

	// Optional observability hooks; nil is fine.
	OnPoolExhausted  func(level int)
	OnFreeSlotReused func(level int)
}

// NewElementStore builds the layer layout, mmaps the arena (with 25%
// headroom per spec.md §4.1), and prepares the id lookup table and level
// sampler. The PRNG is seeded with the fixed constant 1337, matching
// Elements::Elements's `rnd_(1337)` — determinism is a design choice, not
// an accident (spec.md §5).
func NewElementStore(p Params, blockSize uint64) (*ElementStore, error) {
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}
	layers := BuildLayers(p, blockSize)
	if len(layers) == 0 {
		return nil, fmt.Errorf("hnsw: M=%d yields no layers", p.M)
	}

	var totalEstBlocks uint64
	for _, l := range layers {
		totalEstBlocks += l.EstimatedBlocks
	}
	totalBlocks := uint64(math.Ceil(1.25 * float64(totalEstBlocks)))

	arena, err := NewArena(totalBlocks, blockSize)
	if err != nil {
		return nil, err
	}

	states := make([]layerState, len(layers))
	for level, layer := range layers {
		offset, ok := arena.reserve(layer.EstimatedBlocks)
		if !ok {
			arena.Close()
			return nil, fmt.Errorf("%w: reserving layer %d", ErrOutOfMemory, level)
		}
		states[level] = layerState{
			offset:    offset,
			freeBytes: layer.EstimatedBlocks * blockSize,
			freeHead:  NoElement,
			freeTail:  NoElement,
		}
	}

	return &ElementStore{
		params:         p,
		layers:         layers,
		states:         states,
		arena:          arena,
		blockSize:      blockSize,
		lookup:         make([]uint64, p.MaxElems+1),
		nextID:         1,
		globalFreeHead: NoElement,
		rng:            rand.New(rand.NewSource(1337)), //nolint:gosec // deterministic by design, see SPEC_FULL.md
	}, nil
}

// Close releases the arena's backing memory.
func (es *ElementStore) Close() error {
	return es.arena.Close()
}

// Layers exposes the precomputed per-layer layout, read-only, for stats
// reporting (cmd/hnswarena-stats mirrors main.cpp's print_index_stats).
func (es *ElementStore) Layers() []Layer {
	return es.layers
}

// selectLevel draws u in [0,1) and walks layers subtracting probability
// mass until it goes negative, per spec.md §4.3. If the walk exhausts (can
// happen to floating-point rounding) it returns the top layer, mirroring
// select_next_random_layer's fallthrough.
func (es *ElementStore) selectLevel() int {
	u := es.rng.Float64()
	for i, layer := range es.layers {
		if u < layer.Probability {
			return i
		}
		u -= layer.Probability
	}
	return len(es.layers) - 1
}

func (es *ElementStore) checkID(id ElementID) error {
	if id == NoElement || id >= es.nextID {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return nil
}

func (es *ElementStore) writeElement(addr uint64, level int, externalID uint32, payload []float32) {
	size := es.layers[level].BytesPerElement
	buf := es.arena.record(addr, size)
	binary.LittleEndian.PutUint32(buf[0:4], externalID)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(level))
	dataOff := headerBytes
	for i, v := range payload {
		binary.LittleEndian.PutUint32(buf[dataOff+i*4:], math.Float32bits(v))
	}
	for i := dataOff + len(payload)*4; i < len(buf); i++ {
		buf[i] = 0
	}
}

func (es *ElementStore) freeNodeAt(id ElementID) freeNode {
	return readFreeNode(es.arena.record(es.lookup[id], 16))
}

func (es *ElementStore) setFreeNodeAt(id ElementID, n freeNode) {
	writeFreeNode(es.arena.record(es.lookup[id], 16), n)
}

// popFreeSlot pops the global free-list head, if any, repairing the
// per-layer and global links. Mirrors Elements::AllocateNextElement's
// delete-list branch exactly, including the re-assignment of the next
// layer's head even when it was already correct.
func (es *ElementStore) popFreeSlot() (id ElementID, level int, ok bool) {
	if es.globalFreeHead == NoElement {
		return 0, 0, false
	}
	id = es.globalFreeHead
	node := es.freeNodeAt(id)
	level = int(node.level)
	st := &es.states[level]
	if st.freeHead == st.freeTail {
		st.freeTail = NoElement
	}
	st.freeHead = NoElement
	if node.next != NoElement {
		nn := es.freeNodeAt(node.next)
		nn.prev = NoElement
		es.setFreeNodeAt(node.next, nn)
		es.globalFreeHead = node.next
		es.states[nn.level].freeHead = node.next
	} else {
		es.globalFreeHead = NoElement
	}
	return id, level, true
}

// Alloc first consults the GLOBAL free list (any layer) and reuses its head
// slot, at that slot's own level; only when the free list is empty does it
// draw a level and fall back to a fresh bump allocation. Mirrors
// Elements::AllocateNextElement precisely: the delete list, if non-empty,
// is always consulted first, regardless of which layer the new element
// would have sampled to.
func (es *ElementStore) Alloc(externalID uint32, payload []float32) (ElementID, error) {
	if id, level, ok := es.popFreeSlot(); ok {
		addr := es.lookup[id]
		es.writeElement(addr, level, externalID, payload)
		if es.OnFreeSlotReused != nil {
			es.OnFreeSlotReused(level)
		}
		return id, nil
	}

	level := es.selectLevel()
	st := &es.states[level]
	bpe := uint64(es.layers[level].BytesPerElement)
	if st.freeBytes < bpe {
		offset, ok := es.arena.claimBlock()
		if !ok {
			if es.OnPoolExhausted != nil {
				es.OnPoolExhausted(level)
			}
			return NoElement, ErrOutOfMemory
		}
		st.offset = offset
		st.freeBytes = es.blockSize
	}
	if uint64(es.nextID) > uint64(es.params.MaxElems) {
		return NoElement, ErrOutOfMemory
	}

	id := es.nextID
	es.nextID++
	addr := st.offset
	es.lookup[id] = addr
	st.offset += bpe
	st.freeBytes -= bpe
	es.writeElement(addr, level, externalID, payload)
	return id, nil
}

// Free converts id's record bytes into a free-list node, following the
// grouping-by-layer insertion discipline of spec.md §4.2 exactly. It does
// not remove id from other elements' outgoing neighbor arrays (SPEC_FULL.md
// Open Question 2) and does not special-case the current entrypoint
// (Open Question 3) — both left exactly as under-specified in the source.
func (es *ElementStore) Free(id ElementID) error {
	if err := es.checkID(id); err != nil {
		return err
	}
	level, err := es.LevelOf(id)
	if err != nil {
		return err
	}
	st := &es.states[level]

	var next, prev ElementID = NoElement, NoElement
	if st.freeHead != NoElement {
		next = st.freeHead
		prev = es.freeNodeAt(next).prev
	} else {
		for l := level - 1; l >= 0; l-- {
			if es.states[l].freeHead != NoElement {
				next = es.states[l].freeHead
				break
			}
		}
		for l := level + 1; l < len(es.states); l++ {
			if es.states[l].freeTail != NoElement {
				prev = es.states[l].freeTail
				break
			}
		}
	}

	es.setFreeNodeAt(id, freeNode{id: id, level: uint32(level), next: next, prev: prev})
	if next != NoElement {
		nn := es.freeNodeAt(next)
		nn.prev = id
		es.setFreeNodeAt(next, nn)
	}
	if prev != NoElement {
		pn := es.freeNodeAt(prev)
		pn.next = id
		es.setFreeNodeAt(prev, pn)
	}
	if st.freeTail == NoElement {
		st.freeTail = id
	}
	st.freeHead = id
	if prev == NoElement {
		es.globalFreeHead = id
	}
	return nil
}

// LevelOf returns the layer an element lives at, read straight from its
// header.
func (es *ElementStore) LevelOf(id ElementID) (int, error) {
	if err := es.checkID(id); err != nil {
		return 0, err
	}
	buf := es.arena.record(es.lookup[id], 8)
	return int(binary.LittleEndian.Uint32(buf[4:8])), nil
}

// ExternalIDOf returns the caller-supplied label an element was allocated
// with.
func (es *ElementStore) ExternalIDOf(id ElementID) (uint32, error) {
	if err := es.checkID(id); err != nil {
		return 0, err
	}
	buf := es.arena.record(es.lookup[id], 4)
	return binary.LittleEndian.Uint32(buf[0:4]), nil
}

// PayloadOf decodes and returns a copy of an element's vector.
func (es *ElementStore) PayloadOf(id ElementID) ([]float32, error) {
	if err := es.checkID(id); err != nil {
		return nil, err
	}
	addr := es.lookup[id] + headerBytes
	buf := es.arena.record(addr, es.params.Dimension*4)
	out := make([]float32, es.params.Dimension)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out, nil
}

// NeighborsAt decodes the full, fixed-width neighbor array id holds at
// level. Unused slots (Outgoing == NoElement) always form a suffix (I3).
func (es *ElementStore) NeighborsAt(id ElementID, level int) []Link {
	addr := es.lookup[id] + uint64(es.layers[level].LinksOffset)
	maxN := es.layers[level].MaxNeighbors
	buf := es.arena.record(addr, uint32(maxN*linkBytes))
	links := make([]Link, maxN)
	for i := 0; i < maxN; i++ {
		b := buf[i*linkBytes:]
		links[i] = Link{
			Outgoing:     binary.LittleEndian.Uint32(b[0:4]),
			IncomingNext: binary.LittleEndian.Uint32(b[4:8]),
		}
	}
	return links
}

// MaxNeighborsAt returns max_neighbors(level).
func (es *ElementStore) MaxNeighborsAt(level int) int {
	return es.layers[level].MaxNeighbors
}

// FirstUnusedSlot scans id's own neighbor array at level for the first
// unused slot, returning false if the array is full.
func (es *ElementStore) FirstUnusedSlot(id ElementID, level int) (int, bool) {
	for i, l := range es.NeighborsAt(id, level) {
		if l.Outgoing == NoElement {
			return i, true
		}
	}
	return 0, false
}

// SetSlotOutgoing installs `to` as the outgoing endpoint of id's neighbor
// slot `idx` at `level`.
func (es *ElementStore) SetSlotOutgoing(id ElementID, level, idx int, to ElementID) {
	addr := es.lookup[id] + uint64(es.layers[level].LinksOffset) + uint64(idx*linkBytes)
	buf := es.arena.record(addr, 4)
	binary.LittleEndian.PutUint32(buf, to)
}
