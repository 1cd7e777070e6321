// Package app runs the genebank tools: building a tree from a GenBank file and
// answering frequency queries against it.
package app

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/alexhholmes/genedb"
	"github.com/alexhholmes/genedb/internal/base"
	"github.com/alexhholmes/genedb/internal/config"
	"github.com/alexhholmes/genedb/internal/dna"
	"github.com/alexhholmes/genedb/internal/genbank"
)

// DumpFile is written next to the tree when the debug level is 1.
const DumpFile = "dump"

const progressInterval = 500

var ErrNoSequences = errors.New("no DNA sequences found")

// CreateSummary describes a finished build.
type CreateSummary struct {
	TreePath string
	DumpPath string // empty unless a dump was written
	Blocks   int
	Keys     int
	Nodes    int
}

// RunCreate inserts every key of cfg's GenBank file into a new tree in dir. A
// file without a single key leaves no tree behind and fails with ErrNoSequences.
func RunCreate(cfg config.Create, dir string, log genedb.Logger) (summary CreateSummary, err error) {
	name := filepath.Base(cfg.GeneBankPath)

	f, err := os.Open(cfg.GeneBankPath)
	if err != nil {
		return summary, errors.Mark(errors.Wrapf(err, "open genbank file"), base.ErrIO)
	}
	defer f.Close()

	scanner, err := genbank.NewScanner(bufio.NewReader(f), cfg.SequenceLength)
	if err != nil {
		return summary, err
	}

	summary.TreePath = filepath.Join(dir, cfg.OutputPath())
	tree, err := genedb.Create(summary.TreePath, cfg.Degree, cfg.SequenceLength,
		config.TreeOptions(cfg.UseCache, cfg.CacheSize, log)...)
	if err != nil {
		return summary, err
	}
	closed := false
	defer func() {
		if !closed {
			err = errors.CombineErrors(err, tree.Close())
		}
	}()

	for scanner.NextBlock() {
		block := scanner.Blocks()
		log.Info("starting data block", "block", block, "file", name)

		count := 0
		for scanner.Scan() {
			if err := tree.Insert(scanner.Key()); err != nil {
				return summary, errors.Wrapf(err, "insert %s from block %d", scanner.Sequence(), block)
			}
			count++
			if count%progressInterval == 0 {
				log.Info("added sequences", "block", block, "count", count, "file", name)
			}
		}

		log.Info("finished data block", "block", block, "sequences", count, "file", name)
		summary.Keys += count
	}
	summary.Blocks = scanner.Blocks()
	if err := scanner.Err(); err != nil {
		return summary, errors.Mark(err, base.ErrIO)
	}

	if summary.Keys == 0 {
		log.Warn("no DNA sequences, removing tree", "file", name, "blocks", summary.Blocks)
		closed = true
		err := errors.Wrapf(ErrNoSequences, "%s", cfg.GeneBankPath)
		err = errors.CombineErrors(err, tree.Close())
		if rmErr := os.Remove(summary.TreePath); rmErr != nil && !os.IsNotExist(rmErr) {
			err = errors.CombineErrors(err, errors.Mark(rmErr, base.ErrIO))
		}
		return summary, err
	}

	if cfg.Debug == 1 {
		summary.DumpPath = filepath.Join(dir, DumpFile)
		log.Info("writing dump", "path", summary.DumpPath)
		if err := writeDump(tree, summary.DumpPath, cfg.SequenceLength); err != nil {
			return summary, err
		}
	}

	summary.Nodes = tree.NodeCount()
	closed = true
	if err := tree.Close(); err != nil {
		return summary, err
	}
	return summary, nil
}

// writeDump writes one "SEQUENCE: frequency" line per key in ascending order.
func writeDump(tree *genedb.BTree, path string, k int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "create dump"), base.ErrIO)
	}

	w := bufio.NewWriter(f)
	err = tree.Walk(func(e genedb.Entry) error {
		_, err := fmt.Fprintf(w, "%s: %d\n", dna.Decode(e.Key, k), e.Frequency)
		return err
	})
	if err == nil {
		err = w.Flush()
	}
	err = errors.CombineErrors(err, f.Close())
	if err != nil {
		return errors.Wrapf(err, "write dump %s", path)
	}
	return nil
}
