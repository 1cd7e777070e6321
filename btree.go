// Package genedb is a disk-resident B-tree that counts occurrences of fixed-width
// integer keys, such as 2-bit encoded DNA subsequences.
//
// Nodes live in fixed-size slots of a single file and reference each other by slot
// position. The root is always held in memory; other nodes are read on demand and,
// when a cache is configured, kept in a bounded LRU that is written back on
// eviction and on Close.
//
// A BTree is not safe for concurrent use.
package genedb

import (
	"github.com/cockroachdb/errors"

	"github.com/alexhholmes/genedb/internal/base"
	"github.com/alexhholmes/genedb/internal/cache"
	"github.com/alexhholmes/genedb/internal/storage"
)

// Entry is a key and the number of times it was inserted.
type Entry = base.Entry

// BTree is a B-tree of degree t: every node holds at most 2t-1 entries.
type BTree struct {
	degree    int
	nodeCount uint32
	keyWidth  uint32

	root  *base.Node    // nil while the tree is empty; never cached
	store *storage.Store
	cache *cache.Cache // nil when caching is disabled

	opts   Options
	log    Logger
	closed bool
}

// Create makes an empty tree at path, replacing any existing file. keyWidth is
// stored alongside the tree for the key codec's benefit; the tree never reads it.
func Create(path string, degree, keyWidth int, options ...Option) (*BTree, error) {
	opts := applyOptions(options)

	if degree > base.MaxDegree {
		return nil, errors.Wrapf(ErrInvalidDegree, "degree %d exceeds %d", degree, base.MaxDegree)
	}
	nodeSize, err := base.SlotSize(degree)
	if err != nil {
		return nil, err
	}
	if keyWidth < 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "key width %d", keyWidth)
	}

	c, err := opts.newCache()
	if err != nil {
		return nil, err
	}

	store, err := storage.Create(path, base.MetadataSize, nodeSize)
	if err != nil {
		return nil, err
	}

	t := &BTree{
		degree:   degree,
		keyWidth: uint32(keyWidth),
		store:    store,
		cache:    c,
		opts:     opts,
		log:      opts.logger,
	}

	if err := t.writeMetadata(); err != nil {
		store.Close()
		return nil, err
	}

	t.log.Info("created tree", "path", path, "degree", degree, "keyWidth", keyWidth,
		"nodeSize", nodeSize, "cacheSize", opts.cacheSize)
	return t, nil
}

// Open loads a tree written by a previous Close. The root is the last node slot.
func Open(path string, options ...Option) (*BTree, error) {
	opts := applyOptions(options)

	c, err := opts.newCache()
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(path, base.MetadataSize)
	if err != nil {
		return nil, err
	}

	data, err := store.ReadMetadata()
	if err != nil {
		store.Close()
		return nil, err
	}
	var meta base.Metadata
	if err := meta.Deserialize(data); err != nil {
		store.Close()
		return nil, err
	}

	t := &BTree{
		degree:    int(meta.Degree),
		nodeCount: meta.NodeCount,
		keyWidth:  meta.KeyWidth,
		store:     store,
		cache:     c,
		opts:      opts,
		log:       opts.logger,
	}

	if meta.NodeCount > 0 {
		root, err := t.readNode(base.Position(meta.NodeCount - 1))
		if err != nil {
			store.Close()
			return nil, errors.Wrap(err, "load root")
		}
		t.root = root
	}

	t.log.Info("opened tree", "path", path, "degree", t.degree, "keyWidth", t.keyWidth,
		"nodes", t.nodeCount, "cacheSize", opts.cacheSize)
	return t, nil
}

// Search returns the entry for key. A missing key is reported with ok == false
// and a nil error.
func (t *BTree) Search(key uint64) (entry Entry, ok bool, err error) {
	if t.closed {
		return Entry{}, false, ErrTreeClosed
	}
	if t.root == nil {
		return Entry{}, false, nil
	}

	current := t.root
	for {
		res := current.Search(key)
		switch res.Outcome {
		case base.Found:
			return current.Entries[res.Index], true, nil
		case base.LeafMiss:
			return Entry{}, false, nil
		}

		current, err = t.descend(current, res.Child)
		if err != nil {
			return Entry{}, false, err
		}
	}
}

// Insert adds key with frequency 1, or increments the frequency of an existing
// entry. Full nodes met on the way down are split before they are entered, so
// the leaf that receives the key always has room.
func (t *BTree) Insert(key uint64) error {
	if t.closed {
		return ErrTreeClosed
	}

	if t.root == nil {
		t.root = base.NewRoot(Entry{Key: key, Frequency: 1}, base.NilPosition, base.NilPosition, t.degree, true)
		t.nodeCount++
		return nil
	}

	var parent *base.Node
	current := t.root
	for {
		if current.IsFull() && current != parent {
			if err := t.splitNode(current, parent); err != nil {
				return errors.Wrapf(err, "insert key %d", key)
			}
			if parent == nil {
				current = t.root
			} else {
				current = parent
			}
			continue
		}

		res := current.Search(key)
		switch res.Outcome {
		case base.Found:
			current.Entries[res.Index].Frequency++
			return t.persistNonRoot(current)

		case base.LeafMiss:
			if _, err := current.AddEntry(Entry{Key: key, Frequency: 1}); err != nil {
				return errors.NewAssertionErrorWithWrappedErrf(err, "insert key %d", key)
			}
			return t.persistNonRoot(current)
		}

		child, err := t.descend(current, res.Child)
		if err != nil {
			return errors.Wrapf(err, "insert key %d", key)
		}
		parent, current = current, child
	}
}

// splitNode splits a full node. Splitting the root grows the tree by one level;
// any other node hands its median up to parent, which must not be full.
func (t *BTree) splitNode(node, parent *base.Node) error {
	left, median, right, err := node.Split()
	if err != nil {
		return errors.NewAssertionErrorWithWrappedErrf(err, "split node at position %s", node.Position)
	}

	// The halves replace node on disk. A cached copy of node must not be written
	// back over them later.
	if t.cache != nil && node.Position.Valid() {
		t.cache.Remove(node.Position)
	}

	if node == t.root {
		if node.Position.Valid() {
			left.Position = node.Position
			err = t.writeNode(left)
		} else {
			err = t.appendNode(left)
		}
		if err != nil {
			return err
		}
		if err := t.appendNode(right); err != nil {
			return err
		}
		t.root = base.NewRoot(median, left.Position, right.Position, t.degree, false)
		t.nodeCount++
	} else {
		if parent == nil {
			return errors.AssertionFailedf("split of non-root node at position %s without a parent", node.Position)
		}

		left.Position = node.Position
		if err := t.persistNode(left); err != nil {
			return err
		}
		if err := t.appendNode(right); err != nil {
			return err
		}

		res, err := parent.AddEntry(median)
		if err != nil {
			return errors.NewAssertionErrorWithWrappedErrf(err, "promote key %d", median.Key)
		}
		if res.Outcome != base.Inserted {
			return errors.AssertionFailedf("promoted key %d already present in parent at position %s",
				median.Key, parent.Position)
		}
		parent.SetChild(res.Index, left.Position)
		parent.SetChild(res.Index+1, right.Position)

		if err := t.persistNonRoot(parent); err != nil {
			return err
		}
	}

	if err := t.adoptChildren(left); err != nil {
		return err
	}
	if err := t.adoptChildren(right); err != nil {
		return err
	}

	t.nodeCount++
	return nil
}

// adoptChildren points the parent of every child of n at n.
func (t *BTree) adoptChildren(n *base.Node) error {
	if n.Leaf {
		return nil
	}
	for _, pos := range n.Children {
		child, err := t.loadNode(pos)
		if err != nil {
			return err
		}
		child.Parent = n.Position
		if err := t.persistNode(child); err != nil {
			return err
		}
	}
	return nil
}

// descend follows a child pointer out of n.
func (t *BTree) descend(n *base.Node, pos base.Position) (*base.Node, error) {
	if !pos.Valid() {
		return nil, errors.Wrapf(ErrCorruption, "node at position %s has an unset child pointer", n.Position)
	}
	return t.loadNode(pos)
}

// loadNode returns the node at pos, going through the cache when one is
// configured. NilPosition refers to the root.
func (t *BTree) loadNode(pos base.Position) (*base.Node, error) {
	if pos == base.NilPosition {
		return t.root, nil
	}
	if t.cache == nil {
		return t.readNode(pos)
	}

	if n, ok := t.cache.Get(pos); ok {
		return n, nil
	}

	n, err := t.readNode(pos)
	if err != nil {
		return nil, err
	}
	if evicted, ok := t.cache.Put(n); ok {
		if err := t.writeNode(evicted); err != nil {
			t.log.Error("failed to write back evicted node", "position", evicted.Position, "error", err)
			return nil, err
		}
	}
	return n, nil
}

// persistNode writes n unless the cache holds it; a cached node is written when
// it is evicted or on Close.
func (t *BTree) persistNode(n *base.Node) error {
	if t.cache != nil && t.cache.Contains(n.Position) {
		return nil
	}
	return t.writeNode(n)
}

// persistNonRoot persists n unless it is the root, which is only written on Close.
func (t *BTree) persistNonRoot(n *base.Node) error {
	if n == t.root {
		return nil
	}
	return t.persistNode(n)
}

func (t *BTree) readNode(pos base.Position) (*base.Node, error) {
	data, err := t.store.ReadNode(pos)
	if err != nil {
		return nil, err
	}
	n := base.NewNode(t.degree)
	if err := n.Deserialize(data); err != nil {
		return nil, errors.Wrapf(err, "decode node at position %d", pos)
	}
	if n.Position != pos {
		return nil, errors.Wrapf(ErrCorruption, "slot %d holds node for position %s", pos, n.Position)
	}
	return n, nil
}

// writeNode overwrites the slot at n.Position.
func (t *BTree) writeNode(n *base.Node) error {
	data, err := n.Serialize()
	if err != nil {
		return err
	}
	return t.store.WriteNode(data, n.Position)
}

// appendNode places n in the next free slot.
func (t *BTree) appendNode(n *base.Node) error {
	n.Position = t.store.NextPosition()
	data, err := n.Serialize()
	if err == nil {
		_, err = t.store.AppendNode(data)
	}
	if err != nil {
		n.Position = base.NilPosition
		return err
	}
	return nil
}

func (t *BTree) writeMetadata() error {
	meta := base.Metadata{
		NodeCount: t.nodeCount,
		Degree:    uint32(t.degree),
		KeyWidth:  t.keyWidth,
	}
	return t.store.WriteMetadata(meta.Serialize())
}

// Close writes the root, every cached node and the metadata slot, then releases
// the file. It is the only point at which the node count is durable. The tree
// cannot be used afterwards.
func (t *BTree) Close() error {
	if t.closed {
		return ErrTreeClosed
	}
	t.closed = true

	err := t.flush()
	if err == nil && t.opts.syncOnClose {
		err = t.store.Sync()
	}
	err = errors.CombineErrors(err, t.store.Close())

	if err != nil {
		t.log.Error("failed to close tree", "path", t.store.Path(), "error", err)
		return err
	}

	stats := t.Stats()
	t.log.Info("closed tree", "path", t.store.Path(), "nodes", t.nodeCount,
		"reads", stats.Reads, "writes", stats.Writes, "cacheHits", stats.CacheHits,
		"cacheMisses", stats.CacheMisses, "cacheEvictions", stats.CacheEvictions)
	return nil
}

func (t *BTree) flush() error {
	if t.root != nil {
		var err error
		if t.root.Position.Valid() {
			// Open finds the root in the last slot. A root loaded by Open keeps
			// its slot while later splits append past it.
			if last := t.store.NextPosition() - 1; t.root.Position != last {
				if err := t.moveRootTo(last); err != nil {
					return errors.Wrap(err, "move root")
				}
			}
			err = t.writeNode(t.root)
		} else {
			err = t.appendNode(t.root)
		}
		if err != nil {
			return errors.Wrap(err, "write root")
		}

		// Children of a root created by a split still carry the parent pointer
		// of the old root. Fix them before the cache is flushed so cached
		// children go out with the new pointer.
		if err := t.adoptChildren(t.root); err != nil {
			return errors.Wrap(err, "update root children")
		}
	}

	if t.cache != nil {
		for _, n := range t.cache.Drain() {
			if err := t.writeNode(n); err != nil {
				return errors.Wrap(err, "flush cache")
			}
		}
	}

	if next := uint32(t.store.NextPosition()); next != t.nodeCount {
		return errors.AssertionFailedf("node count %d does not match %d allocated slots", t.nodeCount, next)
	}
	return t.writeMetadata()
}

// moveRootTo swaps the root with the node in slot pos. The displaced node takes
// the root's old slot; its parent and children are repointed.
func (t *BTree) moveRootTo(pos base.Position) error {
	node, err := t.loadNode(pos)
	if err != nil {
		return err
	}
	parent, idx, err := t.findParent(node)
	if err != nil {
		return err
	}
	if t.cache != nil {
		t.cache.Remove(pos)
	}

	slot := t.root.Position
	node.Position = slot
	if err := t.writeNode(node); err != nil {
		return err
	}
	parent.SetChild(idx, slot)
	if err := t.persistNonRoot(parent); err != nil {
		return err
	}
	if err := t.adoptChildren(node); err != nil {
		return err
	}

	t.root.Position = pos
	return nil
}

// findParent returns the node holding the child pointer to n, and the pointer's
// index, by searching from the root for n's first key.
func (t *BTree) findParent(n *base.Node) (*base.Node, int, error) {
	if len(n.Entries) == 0 {
		return nil, 0, errors.AssertionFailedf("empty non-root node at position %s", n.Position)
	}
	key := n.Entries[0].Key

	current := t.root
	for {
		res := current.Search(key)
		if res.Outcome != base.Descend {
			return nil, 0, errors.AssertionFailedf("key %d of node at position %s not reachable from the root",
				key, n.Position)
		}
		if res.Child == n.Position {
			return current, res.Index, nil
		}

		var err error
		current, err = t.descend(current, res.Child)
		if err != nil {
			return nil, 0, err
		}
	}
}

// Walk calls fn for every entry in ascending key order. It stops at the first
// error returned by fn.
func (t *BTree) Walk(fn func(Entry) error) error {
	if t.closed {
		return ErrTreeClosed
	}
	if t.root == nil {
		return nil
	}
	return t.walk(t.root, fn)
}

func (t *BTree) walk(n *base.Node, fn func(Entry) error) error {
	// n can be evicted while its subtrees are visited; work from a snapshot.
	entries := append([]Entry(nil), n.Entries...)
	children := append([]base.Position(nil), n.Children...)
	leaf := n.Leaf

	visit := func(i int) error {
		if leaf {
			return nil
		}
		child, err := t.descend(n, children[i])
		if err != nil {
			return err
		}
		return t.walk(child, fn)
	}

	for i, e := range entries {
		if err := visit(i); err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return visit(len(entries))
}

// Degree returns the tree's degree t.
func (t *BTree) Degree() int {
	return t.degree
}

// KeyWidth returns the key width recorded when the tree was created.
func (t *BTree) KeyWidth() int {
	return int(t.keyWidth)
}

// NodeCount returns the number of nodes, including an unplaced root.
func (t *BTree) NodeCount() int {
	return int(t.nodeCount)
}

// OptimalDegree returns the largest degree whose node slot is smaller than
// blockSize, and never less than 2.
func OptimalDegree(blockSize int) int {
	degree := 2
	for {
		size, _ := base.SlotSize(degree + 1)
		if size >= blockSize {
			return degree
		}
		degree++
	}
}
