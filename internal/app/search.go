package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/alexhholmes/genedb"
	"github.com/alexhholmes/genedb/internal/base"
	"github.com/alexhholmes/genedb/internal/config"
	"github.com/alexhholmes/genedb/internal/dna"
	"github.com/alexhholmes/genedb/internal/query"
)

var ErrSequenceLengthMismatch = errors.New("query length does not match tree sequence length")

// SearchSummary describes a finished query run.
type SearchSummary struct {
	Queries int
	Found   int
}

// RunSearch looks up every query of cfg's query file and writes
// "sequence: frequency" for each one present, lower-cased, to out.
func RunSearch(cfg config.Search, log genedb.Logger, out io.Writer) (summary SearchSummary, err error) {
	k, err := query.SequenceLength(cfg.QueryPath)
	if err != nil {
		return summary, err
	}

	tree, err := genedb.Open(cfg.TreePath, config.TreeOptions(cfg.UseCache, cfg.CacheSize, log)...)
	if err != nil {
		return summary, err
	}
	defer func() {
		err = errors.CombineErrors(err, tree.Close())
	}()

	if k != tree.KeyWidth() {
		return summary, errors.Wrapf(ErrSequenceLengthMismatch, "queries have %d bases, %s holds %d",
			k, cfg.TreePath, tree.KeyWidth())
	}

	f, err := os.Open(cfg.QueryPath)
	if err != nil {
		return summary, errors.Mark(errors.Wrap(err, "open query file"), base.ErrIO)
	}
	defer f.Close()

	r := query.NewReader(f)
	w := bufio.NewWriter(out)
	for r.Scan() {
		seq := r.Sequence()
		key, err := dna.Encode(seq, k)
		if err != nil {
			return summary, errors.Mark(errors.Wrapf(err, "%s line %d", cfg.QueryPath, r.Line()), query.ErrInvalidQuery)
		}

		summary.Queries++
		e, ok, err := tree.Search(key)
		if err != nil {
			return summary, errors.Wrapf(err, "search %s", seq)
		}
		if !ok {
			continue
		}
		summary.Found++
		if _, err := fmt.Fprintf(w, "%s: %d\n", strings.ToLower(seq), e.Frequency); err != nil {
			return summary, errors.Wrap(err, "write result")
		}
	}
	if err := r.Err(); err != nil {
		return summary, errors.Mark(err, base.ErrIO)
	}
	if err := w.Flush(); err != nil {
		return summary, errors.Wrap(err, "write result")
	}

	log.Info("search finished", "queries", summary.Queries, "found", summary.Found)
	return summary, nil
}
