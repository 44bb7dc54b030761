package hnsw

import "encoding/binary"

// freeNode is the shape a freed element's record bytes are reinterpreted
// as: Elements::DeleteListNode from the source, stored in place over the
// first 16 bytes of the record (well within even the smallest possible
// record, header(8)+payload(>=4)+links(>=16)).
type freeNode struct {
	id    ElementID
	level uint32
	next  ElementID
	prev  ElementID
}

func readFreeNode(buf []byte) freeNode {
	return freeNode{
		id:    binary.LittleEndian.Uint32(buf[0:4]),
		level: binary.LittleEndian.Uint32(buf[4:8]),
		next:  binary.LittleEndian.Uint32(buf[8:12]),
		prev:  binary.LittleEndian.Uint32(buf[12:16]),
	}
}

func writeFreeNode(buf []byte, n freeNode) {
	binary.LittleEndian.PutUint32(buf[0:4], n.id)
	binary.LittleEndian.PutUint32(buf[4:8], n.level)
	binary.LittleEndian.PutUint32(buf[8:12], n.next)
	binary.LittleEndian.PutUint32(buf[12:16], n.prev)
}
