// Command bench builds a large tree from a synthetic genome and reports insert
// and search throughput.
//
//	go run ./bench -bases 100000000 -k 12 -cache 10000
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/alexhholmes/genedb"
	"github.com/alexhholmes/genedb/internal/dna"
)

func main() {
	bases := flag.Int("bases", 10_000_000, "length of the synthetic genome")
	k := flag.Int("k", 12, "sequence length")
	degree := flag.Int("degree", 0, "tree degree, 0 to fit a 4096 byte block")
	cacheSize := flag.Int("cache", 10_000, "node cache size, 0 to disable")
	dir := flag.String("dir", os.TempDir(), "directory for the tree file")
	flag.Parse()

	if err := dna.CheckLength(*k); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *degree == 0 {
		*degree = genedb.OptimalDegree(4096)
	}

	path := filepath.Join(*dir, fmt.Sprintf("bench.btree.data.%d.%d", *k, *degree))
	defer os.Remove(path)

	opts := []genedb.Option{genedb.WithSyncOnClose(false)}
	if *cacheSize > 0 {
		opts = append(opts, genedb.WithCache(*cacheSize))
	}

	tree, err := genedb.Create(path, *degree, *k, opts...)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Bases: %d, k: %d, degree: %d, cache: %d\n\n", *bases, *k, *degree, *cacheSize)

	r := rand.New(rand.NewSource(1))
	mask := dna.Mask(*k)

	start := time.Now()
	lastPrint := start
	var key uint64
	inserted := 0

	for i := 0; i < *bases; i++ {
		key = (key<<2 | uint64(r.Intn(4))) & mask
		if i+1 < *k {
			continue
		}
		if err := tree.Insert(key); err != nil {
			panic(err)
		}
		inserted++

		if now := time.Now(); now.Sub(lastPrint) >= time.Second {
			elapsed := now.Sub(start).Seconds()
			fmt.Printf("\rKeys: %d (%.0f keys/s) | Nodes: %d", inserted, float64(inserted)/elapsed, tree.NodeCount())
			lastPrint = now
		}
	}

	if err := tree.Close(); err != nil {
		panic(err)
	}
	insertTime := time.Since(start).Seconds()
	stats := tree.Stats()

	tree, err = genedb.Open(path, opts...)
	if err != nil {
		panic(err)
	}

	searches := min(inserted, 1_000_000)
	found := 0
	start = time.Now()
	for i := 0; i < searches; i++ {
		_, ok, err := tree.Search(uint64(r.Int63()) & mask)
		if err != nil {
			panic(err)
		}
		if ok {
			found++
		}
	}
	searchTime := time.Since(start).Seconds()
	if err := tree.Close(); err != nil {
		panic(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		panic(err)
	}

	fmt.Printf("\n\nCompleted:\n")
	fmt.Printf("  Insert:   %d keys in %.2fs (%.0f keys/s)\n", inserted, insertTime, float64(inserted)/insertTime)
	fmt.Printf("  Search:   %d (%d found) in %.2fs (%.0f/s)\n", searches, found, searchTime, float64(searches)/searchTime)
	fmt.Printf("  Nodes:    %d (%.2f MB)\n", stats.NodeCount, float64(info.Size())/(1024*1024))
	fmt.Printf("  I/O:      %d reads, %d writes\n", stats.Reads, stats.Writes)
	fmt.Printf("  Cache:    %d hits, %d misses, %d evictions\n", stats.CacheHits, stats.CacheMisses, stats.CacheEvictions)
}
