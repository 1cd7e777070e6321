// Package query reads query files: one DNA sequence per line, all of the same
// length.
package query

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/alexhholmes/genedb/internal/base"
	"github.com/alexhholmes/genedb/internal/dna"
)

var ErrInvalidQuery = errors.Mark(errors.New("invalid query"), base.ErrInvalidArgument)

// Reader yields the non-blank lines of a query file, trimmed.
type Reader struct {
	lines *bufio.Scanner
	seq   string
	line  int
	err   error
}

func NewReader(r io.Reader) *Reader {
	return &Reader{lines: bufio.NewScanner(r)}
}

// Scan advances to the next query.
func (r *Reader) Scan() bool {
	for r.lines.Scan() {
		r.line++
		if seq := strings.TrimSpace(r.lines.Text()); seq != "" {
			r.seq = seq
			return true
		}
	}
	if err := r.lines.Err(); err != nil {
		r.err = errors.Wrap(err, "read queries")
	}
	r.seq = ""
	return false
}

// Sequence returns the query found by the last successful Scan.
func (r *Reader) Sequence() string {
	return r.seq
}

// Line returns the 1-based line number of the current query.
func (r *Reader) Line() int {
	return r.line
}

func (r *Reader) Err() error {
	return r.err
}

// SequenceLength returns the length of the first query in the file at path,
// which must be a valid DNA sequence.
func SequenceLength(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "open query file %s", path), base.ErrIO)
	}
	defer f.Close()

	r := NewReader(f)
	if !r.Scan() {
		if err := r.Err(); err != nil {
			return 0, errors.Mark(err, base.ErrIO)
		}
		return 0, errors.Wrapf(ErrInvalidQuery, "%s has no queries", path)
	}

	seq := r.Sequence()
	if !dna.Valid(seq, len(seq)) {
		return 0, errors.Wrapf(ErrInvalidQuery, "%s line %d: %q is not a DNA sequence of at most %d bases",
			path, r.Line(), seq, dna.MaxSequenceLength)
	}
	return len(seq), nil
}
