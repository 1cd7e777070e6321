package query

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexhholmes/genedb/internal/base"
)

func TestReader(t *testing.T) {
	r := NewReader(strings.NewReader("acgt\n\n  TTTT \r\n\ngggg"))

	var got []string
	var lines []int
	for r.Scan() {
		got = append(got, r.Sequence())
		lines = append(lines, r.Line())
	}
	require.NoError(t, r.Err())
	assert.Equal(t, []string{"acgt", "TTTT", "gggg"}, got)
	assert.Equal(t, []int{1, 3, 5}, lines)
	assert.Empty(t, r.Sequence())
}

func TestSequenceLength(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    int
		wantErr error
	}{
		{"first line", "acgtac\nacgtac\n", 6, nil},
		{"leading blank lines", "\n\nGATTACA\n", 7, nil},
		{"longest", strings.Repeat("t", 31) + "\n", 31, nil},
		{"empty", "", 0, ErrInvalidQuery},
		{"invalid base", "acgn\n", 0, ErrInvalidQuery},
		{"too long", strings.Repeat("a", 32) + "\n", 0, ErrInvalidQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_"))
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			got, err := SequenceLength(path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, errors.Is(err, base.ErrInvalidArgument))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSequenceLengthMissingFile(t *testing.T) {
	_, err := SequenceLength(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.Is(err, base.ErrIO))
}
