package base

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

const (
	NodeHeaderSize = 9  // position(4) + entryCount(4) + isLeaf(1)
	PointerSize    = 4  // parent and child positions
	EntrySize      = 12 // key(8) + frequency(4)
	MetadataSize   = 12 // nodeCount(4) + degree(4) + keyWidth(4)

	leafFlag   byte = 1
	branchFlag byte = 0
)

// SlotSize returns the fixed width of a node slot for a tree of the given degree.
//
// NODE SLOT LAYOUT (big-endian):
// ┌─────────────────────────────────────────────────────────────────────┐
// │ Header (9 bytes)                                                    │
// │ Position(i32), EntryCount(u32), IsLeaf(u8)                          │
// ├─────────────────────────────────────────────────────────────────────┤
// │ Entry[0..n-1] (12 bytes each)                                       │
// │ Key(u64), Frequency(u32)                                            │
// ├─────────────────────────────────────────────────────────────────────┤
// │ Parent (i32)                                                        │
// ├─────────────────────────────────────────────────────────────────────┤
// │ Children[0..n] (i32 each)                                           │
// ├─────────────────────────────────────────────────────────────────────┤
// │ Zero padding up to room for 2t-1 entries and 2t children            │
// └─────────────────────────────────────────────────────────────────────┘
func SlotSize(degree int) (int, error) {
	if degree < 2 {
		return 0, errors.Wrapf(ErrInvalidDegree, "degree %d", degree)
	}
	return NodeHeaderSize + PointerSize + (2*degree-1)*EntrySize + 2*degree*PointerSize, nil
}

// Serialize encodes the node into a slot of exactly SlotSize(degree) bytes.
func (n *Node) Serialize() ([]byte, error) {
	size, err := SlotSize(n.degree)
	if err != nil {
		return nil, err
	}
	if err := n.CheckOverflow(); err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	binary.BigEndian.PutUint32(buf[0:], uint32(n.Position))
	binary.BigEndian.PutUint32(buf[4:], uint32(len(n.Entries)))
	if n.Leaf {
		buf[8] = leafFlag
	} else {
		buf[8] = branchFlag
	}

	off := NodeHeaderSize
	for _, e := range n.Entries {
		binary.BigEndian.PutUint64(buf[off:], e.Key)
		binary.BigEndian.PutUint32(buf[off+8:], e.Frequency)
		off += EntrySize
	}

	binary.BigEndian.PutUint32(buf[off:], uint32(n.Parent))
	off += PointerSize

	for _, c := range n.Children {
		binary.BigEndian.PutUint32(buf[off:], uint32(c))
		off += PointerSize
	}

	return buf, nil
}

// Deserialize decodes a slot produced by Serialize into n, replacing its contents.
// n must have been created for the degree the slot was written with.
func (n *Node) Deserialize(data []byte) error {
	size, err := SlotSize(n.degree)
	if err != nil {
		return err
	}
	if len(data) != size {
		return errors.Wrapf(ErrInvalidLength, "node slot is %d bytes, want %d", len(data), size)
	}

	count := binary.BigEndian.Uint32(data[4:])
	if count > uint32(n.MaxEntries()) {
		return errors.Wrapf(ErrCorruption, "entry count %d exceeds capacity %d", count, n.MaxEntries())
	}

	var leaf bool
	switch data[8] {
	case leafFlag:
		leaf = true
	case branchFlag:
	default:
		return errors.Wrapf(ErrCorruption, "invalid leaf flag %#x", data[8])
	}

	n.Position = Position(int32(binary.BigEndian.Uint32(data[0:])))
	n.Leaf = leaf
	n.Entries = make([]Entry, count, n.MaxEntries())

	off := NodeHeaderSize
	for i := range n.Entries {
		n.Entries[i] = Entry{
			Key:       binary.BigEndian.Uint64(data[off:]),
			Frequency: binary.BigEndian.Uint32(data[off+8:]),
		}
		off += EntrySize
	}

	n.Parent = Position(int32(binary.BigEndian.Uint32(data[off:])))
	off += PointerSize

	n.Children = make([]Position, count+1, n.MaxEntries()+1)
	for i := range n.Children {
		n.Children[i] = Position(int32(binary.BigEndian.Uint32(data[off:])))
		off += PointerSize
	}

	return nil
}

// Metadata is the tree-level record stored at offset 0 of the backing file.
// Layout: [NodeCount: 4][Degree: 4][KeyWidth: 4], big-endian.
type Metadata struct {
	NodeCount uint32
	Degree    uint32
	KeyWidth  uint32
}

// Serialize encodes m into MetadataSize bytes.
func (m *Metadata) Serialize() []byte {
	buf := make([]byte, MetadataSize)
	binary.BigEndian.PutUint32(buf[0:], m.NodeCount)
	binary.BigEndian.PutUint32(buf[4:], m.Degree)
	binary.BigEndian.PutUint32(buf[8:], m.KeyWidth)
	return buf
}

// Deserialize decodes MetadataSize bytes into m.
func (m *Metadata) Deserialize(data []byte) error {
	if len(data) != MetadataSize {
		return errors.Wrapf(ErrInvalidLength, "metadata is %d bytes, want %d", len(data), MetadataSize)
	}
	m.NodeCount = binary.BigEndian.Uint32(data[0:])
	m.Degree = binary.BigEndian.Uint32(data[4:])
	m.KeyWidth = binary.BigEndian.Uint32(data[8:])
	return nil
}

// Validate checks that the metadata describes a usable tree.
func (m *Metadata) Validate() error {
	if m.Degree < 2 || m.Degree > MaxDegree {
		return errors.Wrapf(ErrCorruption, "metadata degree %d", m.Degree)
	}
	return nil
}
