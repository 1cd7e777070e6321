package genbank

import (
	"strings"
	"testing"
	"testing/iotest"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexhholmes/genedb/internal/dna"
)

const sample = `LOCUS       TEST0001                  24 bp    DNA     linear   BCT 01-JAN-2000
DEFINITION  Synthetic test record.
FEATURES             Location/Qualifiers
     source          1..24
ORIGIN
        1 acgtac gtnnac
       13 gtacgt ac
//
LOCUS       TEST0002
ORIGIN
        1 ttttgg
//
`

type window struct {
	seq string
	key uint64
}

func collect(t *testing.T, s *Scanner) [][]window {
	t.Helper()
	var blocks [][]window
	for s.NextBlock() {
		var ws []window
		for s.Scan() {
			ws = append(ws, window{s.Sequence(), s.Key()})
		}
		blocks = append(blocks, ws)
	}
	require.NoError(t, s.Err())
	return blocks
}

func seqs(ws []window) []string {
	var out []string
	for _, w := range ws {
		out = append(out, w.seq)
	}
	return out
}

func TestScanWindows(t *testing.T) {
	s, err := NewScanner(strings.NewReader(sample), 4)
	require.NoError(t, err)

	blocks := collect(t, s)
	require.Len(t, blocks, 2)
	assert.Equal(t, 2, s.Blocks())

	// ACGTACGT NN ACGTACGTAC
	assert.Equal(t, []string{
		"ACGT", "CGTA", "GTAC", "TACG", "ACGT",
		"ACGT", "CGTA", "GTAC", "TACG", "ACGT", "CGTA", "GTAC",
	}, seqs(blocks[0]))

	assert.Equal(t, []string{"TTTT", "TTTG", "TTGG"}, seqs(blocks[1]))

	for _, b := range blocks {
		for _, w := range b {
			want, err := dna.Encode(w.seq, 4)
			require.NoError(t, err)
			assert.Equal(t, want, w.key, w.seq)
		}
	}
}

func TestScanSkipsN(t *testing.T) {
	in := "ORIGIN\n 1 aaNaa ccc\n//\n"
	s, err := NewScanner(strings.NewReader(in), 2)
	require.NoError(t, err)

	blocks := collect(t, s)
	require.Len(t, blocks, 1)
	assert.Equal(t, []string{"AA", "AA", "AC", "CC", "CC"}, seqs(blocks[0]))
}

func TestWindowsSpanLines(t *testing.T) {
	in := "ORIGIN\n        1 ac\n        3 gt\n//\n"
	s, err := NewScanner(strings.NewReader(in), 3)
	require.NoError(t, err)

	blocks := collect(t, s)
	require.Len(t, blocks, 1)
	assert.Equal(t, []string{"ACG", "CGT"}, seqs(blocks[0]))
}

func TestBlockShorterThanK(t *testing.T) {
	in := "ORIGIN\n 1 acg\n//\nORIGIN\n 1 acgta\n//\n"
	s, err := NewScanner(strings.NewReader(in), 5)
	require.NoError(t, err)

	blocks := collect(t, s)
	require.Len(t, blocks, 2)
	assert.Empty(t, blocks[0])
	assert.Equal(t, []string{"ACGTA"}, seqs(blocks[1]))
}

func TestUnterminatedBlock(t *testing.T) {
	s, err := NewScanner(strings.NewReader("ORIGIN\n 1 acgt"), 4)
	require.NoError(t, err)

	blocks := collect(t, s)
	require.Len(t, blocks, 1)
	assert.Equal(t, []string{"ACGT"}, seqs(blocks[0]))
}

func TestNoBlocks(t *testing.T) {
	s, err := NewScanner(strings.NewReader("LOCUS x\nDEFINITION y\n"), 4)
	require.NoError(t, err)

	assert.Empty(t, collect(t, s))
	assert.False(t, s.Scan())
}

func TestNextBlockDiscardsRest(t *testing.T) {
	in := "ORIGIN\n 1 acgtacgt\n//\nORIGIN\n 1 gggg\n//\n"
	s, err := NewScanner(strings.NewReader(in), 4)
	require.NoError(t, err)

	require.True(t, s.NextBlock())
	require.True(t, s.Scan())
	assert.Equal(t, "ACGT", s.Sequence())

	require.True(t, s.NextBlock())
	require.True(t, s.Scan())
	assert.Equal(t, "GGGG", s.Sequence())
	assert.False(t, s.Scan())
	assert.False(t, s.NextBlock())
}

func TestInvalidLength(t *testing.T) {
	for _, k := range []int{0, 32} {
		_, err := NewScanner(strings.NewReader(""), k)
		assert.ErrorIs(t, err, dna.ErrInvalidLength)
	}
}

func TestReadError(t *testing.T) {
	boom := errors.New("boom")
	s, err := NewScanner(iotest.ErrReader(boom), 4)
	require.NoError(t, err)
	assert.False(t, s.NextBlock())
	assert.ErrorIs(t, s.Err(), boom)
}
