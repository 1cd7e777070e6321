package genedb

// Stats reports I/O and cache activity since the tree was created or opened.
type Stats struct {
	NodeCount int

	Reads        uint64 // node and metadata reads
	Writes       uint64 // node and metadata writes
	BytesRead    uint64
	BytesWritten uint64

	CacheHits      uint64
	CacheMisses    uint64
	CacheEvictions uint64
}

// Stats returns a snapshot of the tree's counters. It remains valid after Close.
func (t *BTree) Stats() Stats {
	store := t.store.Stats()
	stats := Stats{
		NodeCount:    int(t.nodeCount),
		Reads:        store.Reads,
		Writes:       store.Writes,
		BytesRead:    store.Read,
		BytesWritten: store.Written,
	}
	if t.cache != nil {
		c := t.cache.Stats()
		stats.CacheHits = c.Hits
		stats.CacheMisses = c.Misses
		stats.CacheEvictions = c.Evictions
	}
	return stats
}
