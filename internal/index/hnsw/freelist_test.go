package hnsw

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreeNodeRoundTrip(t *testing.T) {
	buf := make([]byte, 16)
	want := freeNode{id: 7, level: 3, next: 9, prev: NoElement}
	writeFreeNode(buf, want)
	got := readFreeNode(buf)
	assert.Equal(t, want, got)
}

func TestFreeNodeZeroValueIsNoElementLinks(t *testing.T) {
	buf := make([]byte, 16)
	got := readFreeNode(buf)
	assert.Equal(t, ElementID(NoElement), got.next)
	assert.Equal(t, ElementID(NoElement), got.prev)
}
