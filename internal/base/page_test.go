package base

import (
	"encoding/binary"
	"flag"
	"math/rand"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ = flag.Bool("slow", false, "run slow tests")

func TestSlotSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		degree int
		want   int
	}{
		{2, 9 + 4 + 3*12 + 4*4},
		{3, 9 + 4 + 5*12 + 6*4},
		{127, 4065},
		{128, 4097},
	}
	for _, tt := range tests {
		got, err := SlotSize(tt.degree)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "degree %d", tt.degree)
	}

	for _, degree := range []int{-1, 0, 1} {
		_, err := SlotSize(degree)
		assert.True(t, errors.Is(err, ErrInvalidDegree))
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	}
}

func TestNodeSerializeLayout(t *testing.T) {
	t.Parallel()

	n := NewRoot(Entry{Key: 0x0102030405060708, Frequency: 7}, 3, 4, 2, false)
	n.Position = 5
	n.Parent = NilPosition

	buf, err := n.Serialize()
	require.NoError(t, err)
	require.Len(t, buf, 65)

	assert.Equal(t, uint32(5), binary.BigEndian.Uint32(buf[0:]))
	assert.Equal(t, uint32(1), binary.BigEndian.Uint32(buf[4:]))
	assert.Equal(t, byte(0), buf[8])
	assert.Equal(t, uint64(0x0102030405060708), binary.BigEndian.Uint64(buf[9:]))
	assert.Equal(t, uint32(7), binary.BigEndian.Uint32(buf[17:]))
	assert.Equal(t, int32(-1), int32(binary.BigEndian.Uint32(buf[21:])))
	assert.Equal(t, uint32(3), binary.BigEndian.Uint32(buf[25:]))
	assert.Equal(t, uint32(4), binary.BigEndian.Uint32(buf[29:]))

	for i, b := range buf[33:] {
		assert.Zero(t, b, "padding byte %d", 33+i)
	}
}

func TestNodeRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		node *Node
	}{
		{"empty_leaf", NewNode(2)},
		{"single_root", NewRoot(Entry{Key: 42, Frequency: 1}, NilPosition, NilPosition, 2, true)},
		{"full_leaf", makeNode(3, true, 1, 2, 3, 4, 5)},
		{"branch", makeNode(4, false, 100, 200, 300)},
		{"max_key", makeNode(2, true, ^uint64(0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.node.Position = 11
			tt.node.Parent = 2

			buf, err := tt.node.Serialize()
			require.NoError(t, err)

			decoded := NewNode(tt.node.Degree())
			require.NoError(t, decoded.Deserialize(buf))
			assert.Equal(t, tt.node.Position, decoded.Position)
			assert.Equal(t, tt.node.Parent, decoded.Parent)
			assert.Equal(t, tt.node.Leaf, decoded.Leaf)
			assert.Equal(t, tt.node.Entries, decoded.Entries)
			assert.Equal(t, tt.node.Children, decoded.Children)
		})
	}
}

func TestNodeRoundTripRandom(t *testing.T) {
	t.Parallel()

	iterations := 200
	if testing.Short() {
		iterations = 20
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < iterations; i++ {
		degree := 2 + rng.Intn(20)
		n := NewNode(degree)
		n.Leaf = rng.Intn(2) == 0
		count := rng.Intn(n.MaxEntries() + 1)
		key := uint64(0)
		for j := 0; j < count; j++ {
			key += 1 + uint64(rng.Intn(1000))
			n.Entries = append(n.Entries, Entry{Key: key, Frequency: rng.Uint32()})
			n.Children = append(n.Children, NilPosition)
		}
		if !n.Leaf {
			for j := range n.Children {
				n.Children[j] = Position(rng.Int31())
			}
		}
		n.Position = Position(rng.Int31())

		buf, err := n.Serialize()
		require.NoError(t, err)
		size, _ := SlotSize(degree)
		require.Len(t, buf, size)

		decoded := NewNode(degree)
		require.NoError(t, decoded.Deserialize(buf))
		require.Equal(t, n.Entries, decoded.Entries)
		require.Equal(t, n.Children, decoded.Children)
		require.Equal(t, n.Position, decoded.Position)
	}
}

func TestNodeDeserializeErrors(t *testing.T) {
	t.Parallel()

	n := makeNode(2, true, 1, 2)
	buf, err := n.Serialize()
	require.NoError(t, err)

	err = NewNode(2).Deserialize(buf[:len(buf)-1])
	assert.True(t, errors.Is(err, ErrInvalidLength))
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	err = NewNode(3).Deserialize(buf)
	assert.True(t, errors.Is(err, ErrInvalidLength), "slot written for another degree")

	bad := append([]byte(nil), buf...)
	binary.BigEndian.PutUint32(bad[4:], 4)
	assert.True(t, errors.Is(NewNode(2).Deserialize(bad), ErrCorruption))

	bad = append([]byte(nil), buf...)
	bad[8] = 7
	assert.True(t, errors.Is(NewNode(2).Deserialize(bad), ErrCorruption))
}

func TestNodeSerializeOverflow(t *testing.T) {
	t.Parallel()

	n := makeNode(2, true, 1, 2, 3)
	n.Entries = append(n.Entries, Entry{Key: 4})
	n.Children = append(n.Children, NilPosition)

	_, err := n.Serialize()
	assert.True(t, errors.Is(err, ErrNodeOverflow))
}

func TestMetadataRoundTrip(t *testing.T) {
	t.Parallel()

	m := Metadata{NodeCount: 1234, Degree: 127, KeyWidth: 31}
	buf := m.Serialize()
	require.Len(t, buf, MetadataSize)
	assert.Equal(t, []byte{0, 0, 0x04, 0xd2, 0, 0, 0, 127, 0, 0, 0, 31}, buf)

	var decoded Metadata
	require.NoError(t, decoded.Deserialize(buf))
	assert.Equal(t, m, decoded)
	assert.NoError(t, decoded.Validate())

	assert.True(t, errors.Is(decoded.Deserialize(buf[:4]), ErrInvalidLength))

	decoded.Degree = 1
	assert.True(t, errors.Is(decoded.Validate(), ErrCorruption))
}
