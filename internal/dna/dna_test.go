package dna

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexhholmes/genedb/internal/base"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		seq  string
		want uint64
	}{
		{"A", 0},
		{"C", 1},
		{"G", 2},
		{"T", 3},
		{"AC", 0b0001},
		{"CA", 0b0100},
		{"acgt", 0b00011011},
		{"TTTT", 0xff},
		{"GATTACA", 0b10_00_11_11_00_01_00},
		{strings.Repeat("T", MaxSequenceLength), 1<<62 - 1},
	}

	for _, tt := range tests {
		t.Run(tt.seq, func(t *testing.T) {
			got, err := Encode(tt.seq, len(tt.seq))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, strings.ToUpper(tt.seq), Decode(got, len(tt.seq)))
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		k    int
		want error
	}{
		{"zero length", "", 0, ErrInvalidLength},
		{"too long", strings.Repeat("A", 32), 32, ErrInvalidLength},
		{"length mismatch", "ACG", 4, ErrInvalidLength},
		{"N base", "ACNT", 4, ErrInvalidBase},
		{"U base", "ACGU", 4, ErrInvalidBase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.seq, tt.k)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, errors.Is(err, base.ErrInvalidArgument))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for k := 1; k <= MaxSequenceLength; k++ {
		for i := 0; i < 20; i++ {
			key := r.Uint64() & Mask(k)
			seq := Decode(key, k)
			require.Len(t, seq, k)

			got, err := Encode(seq, k)
			require.NoError(t, err)
			assert.Equal(t, key, got, "k=%d seq=%s", k, seq)
		}
	}
}

func TestKeyOrderMatchesSequenceOrder(t *testing.T) {
	seqs := []string{"AAA", "AAC", "ACA", "AGT", "CAA", "GGG", "TAA", "TTT"}
	var prev uint64
	for i, seq := range seqs {
		key, err := Encode(seq, 3)
		require.NoError(t, err)
		if i > 0 {
			assert.Less(t, prev, key, "%s", seq)
		}
		prev = key
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("acgT", 4))
	assert.False(t, Valid("ACGT", 3))
	assert.False(t, Valid("ACNT", 4))
	assert.False(t, Valid("", 0))
	assert.False(t, Valid(strings.Repeat("A", 32), 32))
}

func TestCheckLength(t *testing.T) {
	assert.NoError(t, CheckLength(1))
	assert.NoError(t, CheckLength(31))
	assert.ErrorIs(t, CheckLength(0), ErrInvalidLength)
	assert.ErrorIs(t, CheckLength(32), ErrInvalidLength)
}

func TestMask(t *testing.T) {
	assert.Equal(t, uint64(0b11), Mask(1))
	assert.Equal(t, uint64(0xfff), Mask(6))
	assert.Equal(t, uint64(1<<62-1), Mask(31))
}
