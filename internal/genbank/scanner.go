// Package genbank reads the sequence data of GenBank flat files and produces the
// 2-bit keys of every length-k window of it.
//
// A data block starts after a line containing ORIGIN and ends at a "//" line.
// Windows never span blocks, and a window containing any base other than A, C,
// G or T (N, for example) produces no key.
package genbank

import (
	"bufio"
	"bytes"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/alexhholmes/genedb/internal/dna"
)

const (
	originMarker = "ORIGIN"
	endMarker    = "//"

	maxLineSize = 1 << 20
)

// Scanner iterates over blocks and, within a block, over window keys.
//
//	for s.NextBlock() {
//	    for s.Scan() {
//	        use(s.Key())
//	    }
//	}
//	if err := s.Err(); err != nil { ... }
type Scanner struct {
	lines *bufio.Scanner
	k     int
	mask  uint64

	block []byte // sanitized sequence of the current block
	pos   int    // next base of block to consume
	run   int    // consecutive valid bases ending before pos
	key   uint64 // rolling key of the last min(run, k) bases

	blocks int
	err    error
}

// NewScanner returns a Scanner producing keys of k bases from r.
func NewScanner(r io.Reader, k int) (*Scanner, error) {
	if err := dna.CheckLength(k); err != nil {
		return nil, err
	}

	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 4096), maxLineSize)

	return &Scanner{
		lines: lines,
		k:     k,
		mask:  dna.Mask(k),
	}, nil
}

// NextBlock advances to the next data block, discarding what is left of the
// current one. It returns false at the end of input or on a read error.
func (s *Scanner) NextBlock() bool {
	s.block = s.block[:0]
	s.pos, s.run, s.key = 0, 0, 0

	if s.err != nil {
		return false
	}

	for s.lines.Scan() {
		if bytes.Contains(s.lines.Bytes(), []byte(originMarker)) {
			s.readBlock()
			if s.err != nil {
				return false
			}
			s.blocks++
			return true
		}
	}
	s.setErr(s.lines.Err())
	return false
}

// readBlock buffers sequence lines up to the end marker or end of input.
func (s *Scanner) readBlock() {
	for s.lines.Scan() {
		line := s.lines.Bytes()
		if string(bytes.TrimSpace(line)) == endMarker {
			return
		}
		s.block = appendSequence(s.block, line)
	}
	s.setErr(s.lines.Err())
}

// appendSequence drops the position numbers and spacing of a sequence line and
// upper-cases the bases.
func appendSequence(dst, line []byte) []byte {
	for _, c := range line {
		switch {
		case c >= '0' && c <= '9', c == ' ', c == '\t', c == '\r':
		case c >= 'a' && c <= 'z':
			dst = append(dst, c-'a'+'A')
		default:
			dst = append(dst, c)
		}
	}
	return dst
}

// Scan advances to the next valid window of the current block.
func (s *Scanner) Scan() bool {
	for s.pos < len(s.block) {
		code, ok := dna.Code(s.block[s.pos])
		s.pos++
		if !ok {
			s.run, s.key = 0, 0
			continue
		}

		s.key = (s.key<<2 | code) & s.mask
		s.run++
		if s.run >= s.k {
			return true
		}
	}
	return false
}

// Key returns the key of the window found by the last successful Scan.
func (s *Scanner) Key() uint64 {
	return s.key
}

// Sequence returns the bases of the window found by the last successful Scan.
func (s *Scanner) Sequence() string {
	return string(s.block[s.pos-s.k : s.pos])
}

// Blocks returns the number of data blocks entered so far.
func (s *Scanner) Blocks() int {
	return s.blocks
}

// Err returns the first read error.
func (s *Scanner) Err() error {
	return s.err
}

func (s *Scanner) setErr(err error) {
	if err != nil && s.err == nil {
		s.err = errors.Wrap(err, "read genbank data")
	}
}
