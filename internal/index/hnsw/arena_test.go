package hnsw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaReserveCarvesFromHighEnd(t *testing.T) {
	a, err := NewArena(4, 1024)
	require.NoError(t, err)
	defer a.Close()

	off0, ok := a.reserve(1)
	require.True(t, ok)
	off1, ok := a.reserve(1)
	require.True(t, ok)

	// Reserve carves from the high-address end downward, so the second
	// reservation lands BEFORE the first in address space.
	assert.Less(t, off1, off0)
	assert.Equal(t, uint64(2), a.freeBlocks)
}

func TestArenaReserveFailsWhenOverbooked(t *testing.T) {
	a, err := NewArena(2, 1024)
	require.NoError(t, err)
	defer a.Close()

	_, ok := a.reserve(3)
	assert.False(t, ok)
}

func TestArenaClaimBlockDrainsHeadroomPool(t *testing.T) {
	a, err := NewArena(1, 1024)
	require.NoError(t, err)
	defer a.Close()

	_, ok := a.claimBlock()
	assert.True(t, ok)
	_, ok = a.claimBlock()
	assert.False(t, ok)
}

func TestArenaRecordIsWritableView(t *testing.T) {
	a, err := NewArena(1, 1024)
	require.NoError(t, err)
	defer a.Close()

	buf := a.record(0, 8)
	buf[0] = 0xAB
	again := a.record(0, 8)
	assert.Equal(t, byte(0xAB), again[0])
}
