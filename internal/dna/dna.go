// Package dna packs short DNA sequences into integer keys, two bits per base,
// with the first base in the most significant position.
package dna

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/alexhholmes/genedb/internal/base"
)

// MaxSequenceLength is the longest sequence that fits a key. 31 bases leave the
// sign bit of a 64-bit key clear.
const MaxSequenceLength = 31

var (
	ErrInvalidLength = errors.Mark(errors.New("invalid sequence length"), base.ErrInvalidArgument)
	ErrInvalidBase   = errors.Mark(errors.New("invalid base"), base.ErrInvalidArgument)
)

const alphabet = "ACGT"

// Code returns the 2-bit code of a base, case-insensitively.
func Code(b byte) (uint64, bool) {
	switch b {
	case 'A', 'a':
		return 0b00, true
	case 'C', 'c':
		return 0b01, true
	case 'G', 'g':
		return 0b10, true
	case 'T', 't':
		return 0b11, true
	}
	return 0, false
}

// CheckLength reports whether k is a usable sequence length.
func CheckLength(k int) error {
	if k < 1 || k > MaxSequenceLength {
		return errors.Wrapf(ErrInvalidLength, "length %d not in [1, %d]", k, MaxSequenceLength)
	}
	return nil
}

// Valid reports whether seq is exactly k bases of A, C, G or T.
func Valid(seq string, k int) bool {
	if len(seq) != k || CheckLength(k) != nil {
		return false
	}
	for i := 0; i < len(seq); i++ {
		if _, ok := Code(seq[i]); !ok {
			return false
		}
	}
	return true
}

// Encode packs seq, which must be k bases long.
func Encode(seq string, k int) (uint64, error) {
	if err := CheckLength(k); err != nil {
		return 0, err
	}
	if len(seq) != k {
		return 0, errors.Wrapf(ErrInvalidLength, "%q has %d bases, want %d", seq, len(seq), k)
	}

	var key uint64
	for i := 0; i < len(seq); i++ {
		code, ok := Code(seq[i])
		if !ok {
			return 0, errors.Wrapf(ErrInvalidBase, "%q at offset %d of %q", seq[i], i, seq)
		}
		key = key<<2 | code
	}
	return key, nil
}

// Decode unpacks the low 2k bits of key into an upper-case sequence.
func Decode(key uint64, k int) string {
	var sb strings.Builder
	sb.Grow(k)
	for i := k - 1; i >= 0; i-- {
		sb.WriteByte(alphabet[(key>>(2*uint(i)))&0b11])
	}
	return sb.String()
}

// Mask returns the bits a key of length k may use.
func Mask(k int) uint64 {
	return 1<<(2*uint(k)) - 1
}
