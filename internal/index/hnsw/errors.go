package hnsw

import "errors"

// ErrOutOfMemory is returned when the arena's backing allocation fails at
// construction time, or when every arena block is exhausted and no
// reusable free-list slot exists during alloc.
var ErrOutOfMemory = errors.New("hnsw: out of memory")

// ErrInvalidID is returned by accessors called with NoElement or an id
// outside the range of ids ever handed out by alloc.
var ErrInvalidID = errors.New("hnsw: invalid element id")
