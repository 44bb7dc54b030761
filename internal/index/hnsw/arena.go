package hnsw

import (
	"fmt"
	"syscall"
)

// DefaultBlockSize matches the block granularity main.cpp's own estimates
// are built around for large (10^9-scale) indexes.
const DefaultBlockSize = 1 << 20 // 1 MiB

// Arena is one contiguous, anonymously-mapped buffer that layers carve
// fixed-size records out of via bump-pointer allocation. It is grounded in
// the teacher's internal/memory/mmap.go, adapted from a file-backed mapping
// to an anonymous one since the arena never needs to survive the process.
type Arena struct {
	buf        []byte
	blockSize  uint64
	totalBlock uint64
	freeBlocks uint64 // blocks not yet claimed by any layer (the 25% headroom pool)
}

// NewArena mmaps enough anonymous memory for totalBlocks blocks of
// blockSize bytes each. It returns ErrOutOfMemory if the mapping fails,
// mirroring Elements::Create returning nullptr when malloc fails.
func NewArena(totalBlocks uint64, blockSize uint64) (*Arena, error) {
	if totalBlocks == 0 {
		totalBlocks = 1
	}
	size := int(totalBlocks * blockSize)
	buf, err := syscall.Mmap(-1, 0, size, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_ANON|syscall.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %d bytes: %v", ErrOutOfMemory, size, err)
	}
	return &Arena{
		buf:        buf,
		blockSize:  blockSize,
		totalBlock: totalBlocks,
		freeBlocks: totalBlocks,
	}, nil
}

// Close unmaps the arena's backing memory. Safe to call once per Arena.
func (a *Arena) Close() error {
	if a.buf == nil {
		return nil
	}
	err := syscall.Munmap(a.buf)
	a.buf = nil
	return err
}

// reserve carves reservedBlocks blocks off the high-address end of the
// arena for a layer being initialized, returning the byte offset at which
// that layer's first block begins. Mirrors Elements::Create's
// `layer_state->BlockPtr = blocks + (n_free_blocks * block_size)` carving.
func (a *Arena) reserve(reservedBlocks uint64) (offset uint64, ok bool) {
	if reservedBlocks > a.freeBlocks {
		return 0, false
	}
	a.freeBlocks -= reservedBlocks
	return a.freeBlocks * a.blockSize, true
}

// claimBlock hands a single fresh block out of the shared headroom pool to
// a layer whose own slab has been exhausted. Mirrors AllocateNextElement's
// `n_free_blocks_ -= 1; layer.BlockPtr = blocks_ + (n_free_blocks_ *
// block_size_bytes_)`.
func (a *Arena) claimBlock() (offset uint64, ok bool) {
	if a.freeBlocks == 0 {
		return 0, false
	}
	a.freeBlocks--
	return a.freeBlocks * a.blockSize, true
}

func (a *Arena) record(offset uint64, size uint32) []byte {
	return a.buf[offset : offset+uint64(size)]
}
