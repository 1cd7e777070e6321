package base

import "strconv"

// Position is the zero-based index of a node slot in the backing store.
type Position int32

// NilPosition marks a node that has not been placed yet, the parent of the root,
// and every child slot of a leaf.
const NilPosition Position = -1

// Valid reports whether p addresses a slot.
func (p Position) Valid() bool {
	return p >= 0
}

func (p Position) String() string {
	if !p.Valid() {
		return "nil"
	}
	return strconv.Itoa(int(p))
}

// Entry is a key with its occurrence count.
type Entry struct {
	Key       uint64
	Frequency uint32
}
