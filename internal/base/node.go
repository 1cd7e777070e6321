package base

import "github.com/cockroachdb/errors"

// MaxDegree bounds the degree accepted from a store's metadata slot.
const MaxDegree = 1 << 16

// Node is one B-tree node. Nodes reference each other only by Position.
type Node struct {
	Position Position
	Parent   Position
	Leaf     bool

	Entries  []Entry
	Children []Position // len(Entries)+1; all NilPosition in a leaf

	degree int
}

// NewNode returns an empty, unplaced leaf for a tree of the given degree. It is
// the target for Deserialize.
func NewNode(degree int) *Node {
	return &Node{
		Position: NilPosition,
		Parent:   NilPosition,
		Leaf:     true,
		Entries:  make([]Entry, 0, max(2*degree-1, 0)),
		Children: append(make([]Position, 0, max(2*degree, 1)), NilPosition),
		degree:   degree,
	}
}

// NewRoot returns an unplaced node holding a single entry flanked by left and right.
func NewRoot(e Entry, left, right Position, degree int, leaf bool) *Node {
	n := NewNode(degree)
	n.Leaf = leaf
	n.Entries = append(n.Entries, e)
	n.Children = append(n.Children[:0], left, right)
	return n
}

// Degree returns the degree the node was built for.
func (n *Node) Degree() int {
	return n.degree
}

// MaxEntries returns 2t-1.
func (n *Node) MaxEntries() int {
	return 2*n.degree - 1
}

// IsFull reports whether another entry would overflow the node.
func (n *Node) IsFull() bool {
	return len(n.Entries) >= n.MaxEntries()
}

// CheckOverflow validates the entry/child shape against the node's capacity.
func (n *Node) CheckOverflow() error {
	if len(n.Entries) > n.MaxEntries() {
		return errors.Wrapf(ErrNodeOverflow, "%d entries, capacity %d", len(n.Entries), n.MaxEntries())
	}
	if len(n.Children) != len(n.Entries)+1 {
		return errors.Wrapf(ErrNodeOverflow, "%d children for %d entries", len(n.Children), len(n.Entries))
	}
	return nil
}

// Outcome tags the result of a node-local search.
type Outcome int

const (
	Found    Outcome = iota // key is at Index
	Descend                 // key may be in the subtree at Child
	LeafMiss                // key is absent from the tree
)

// SearchResult is the tagged result of Node.Search.
type SearchResult struct {
	Outcome Outcome
	Index   int
	Child   Position
}

// lowerBound returns the index of the first entry whose key is >= key.
func (n *Node) lowerBound(key uint64) int {
	i := 0
	for i < len(n.Entries) && n.Entries[i].Key < key {
		i++
	}
	return i
}

// Search scans the node for key.
func (n *Node) Search(key uint64) SearchResult {
	i := n.lowerBound(key)
	if i < len(n.Entries) && n.Entries[i].Key == key {
		return SearchResult{Outcome: Found, Index: i, Child: NilPosition}
	}
	if n.Leaf {
		return SearchResult{Outcome: LeafMiss, Index: i, Child: NilPosition}
	}
	return SearchResult{Outcome: Descend, Index: i, Child: n.Children[i]}
}

// AddOutcome tags the result of Node.AddEntry.
type AddOutcome int

const (
	Inserted    AddOutcome = iota // a new entry was placed at Index
	Incremented                   // the entry at Index already held the key
)

// AddResult is the tagged result of Node.AddEntry.
type AddResult struct {
	Outcome AddOutcome
	Index   int
}

// AddEntry places e in key order, or bumps the frequency of an existing entry with
// the same key. A new entry gets a NilPosition child slot on its right.
func (n *Node) AddEntry(e Entry) (AddResult, error) {
	if n.IsFull() {
		return AddResult{}, errors.Wrapf(ErrNodeFull, "add key %d at position %s", e.Key, n.Position)
	}

	i := n.lowerBound(e.Key)
	if i < len(n.Entries) && n.Entries[i].Key == e.Key {
		n.Entries[i].Frequency++
		return AddResult{Outcome: Incremented, Index: i}, nil
	}

	n.Entries = append(n.Entries, Entry{})
	copy(n.Entries[i+1:], n.Entries[i:])
	n.Entries[i] = e

	n.Children = append(n.Children, NilPosition)
	copy(n.Children[i+2:], n.Children[i+1:])
	n.Children[i+1] = NilPosition

	return AddResult{Outcome: Inserted, Index: i}, nil
}

// Split divides a full node around its median entry. Both halves are unplaced and
// inherit Leaf and Parent from n; n itself is left untouched.
func (n *Node) Split() (left *Node, median Entry, right *Node, err error) {
	if !n.IsFull() {
		return nil, Entry{}, nil, errors.Wrapf(ErrNotFull, "split node at position %s with %d entries",
			n.Position, len(n.Entries))
	}

	m := n.MaxEntries() / 2

	left = NewNode(n.degree)
	left.Leaf = n.Leaf
	left.Parent = n.Parent
	left.Entries = append(left.Entries, n.Entries[:m]...)
	left.Children = append(left.Children[:0], n.Children[:m+1]...)

	right = NewNode(n.degree)
	right.Leaf = n.Leaf
	right.Parent = n.Parent
	right.Entries = append(right.Entries, n.Entries[m+1:]...)
	right.Children = append(right.Children[:0], n.Children[m+1:]...)

	return left, n.Entries[m], right, nil
}

// SetChild points child slot i at pos.
func (n *Node) SetChild(i int, pos Position) {
	n.Children[i] = pos
}

// Clone creates a deep copy of the node, including its position.
func (n *Node) Clone() *Node {
	cloned := &Node{
		Position: n.Position,
		Parent:   n.Parent,
		Leaf:     n.Leaf,
		Entries:  append([]Entry(nil), n.Entries...),
		Children: append([]Position(nil), n.Children...),
		degree:   n.degree,
	}
	return cloned
}
