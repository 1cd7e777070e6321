// Package storage maps node positions to fixed-size slots in a backing file.
package storage

import (
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/cockroachdb/errors"

	"github.com/alexhholmes/genedb/internal/base"
)

// Store performs positional reads and writes of node slots. A metadata slot of
// metaSize bytes sits at offset 0; node slot p starts at metaSize + p*nodeSize.
type Store struct {
	file     *os.File
	path     string
	metaSize int
	nodeSize int
	next     base.Position // first unallocated slot

	// Stats counters
	reads   atomic.Uint64
	writes  atomic.Uint64
	read    atomic.Uint64
	written atomic.Uint64
}

// Create makes a fresh store at path, replacing any existing file.
func Create(path string, metaSize, nodeSize int) (*Store, error) {
	if metaSize <= 0 || nodeSize <= 0 {
		return nil, errors.Wrapf(base.ErrInvalidLength, "metadata size %d, node size %d", metaSize, nodeSize)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, ioError(err, "create directory %s", dir)
		}
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, ioError(err, "create %s", path)
	}

	return &Store{
		file:     file,
		path:     path,
		metaSize: metaSize,
		nodeSize: nodeSize,
		next:     0,
	}, nil
}

// Open opens an existing store. The node size is derived from the degree recorded
// in the metadata slot and the next position from its node count.
func Open(path string, metaSize int) (*Store, error) {
	if metaSize != base.MetadataSize {
		return nil, errors.Wrapf(base.ErrInvalidLength, "metadata size %d, want %d", metaSize, base.MetadataSize)
	}

	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, ioError(err, "open %s", path)
	}

	s := &Store{
		file:     file,
		path:     path,
		metaSize: metaSize,
	}

	data, err := s.ReadMetadata()
	if err != nil {
		file.Close()
		return nil, err
	}

	var meta base.Metadata
	if err := meta.Deserialize(data); err != nil {
		file.Close()
		return nil, err
	}
	if err := meta.Validate(); err != nil {
		file.Close()
		return nil, err
	}

	nodeSize, err := base.SlotSize(int(meta.Degree))
	if err != nil {
		file.Close()
		return nil, err
	}
	s.nodeSize = nodeSize
	s.next = base.Position(meta.NodeCount)

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, ioError(err, "stat %s", path)
	}
	if want := s.offset(s.next); info.Size() < want {
		file.Close()
		return nil, errors.Wrapf(base.ErrCorruption, "%s is %d bytes, %d nodes need %d",
			path, info.Size(), meta.NodeCount, want)
	}

	return s, nil
}

// ReadNode returns the slot at pos.
func (s *Store) ReadNode(pos base.Position) ([]byte, error) {
	if pos < 0 || pos >= s.next {
		return nil, errors.Wrapf(base.ErrInvalidPosition, "read position %d, next %d", pos, s.next)
	}

	buf := make([]byte, s.nodeSize)
	if err := s.readAt(buf, s.offset(pos)); err != nil {
		return nil, errors.Wrapf(err, "read node at position %d", pos)
	}
	return buf, nil
}

// WriteNode writes a slot at pos. Writing at NextPosition appends.
func (s *Store) WriteNode(data []byte, pos base.Position) error {
	if pos < 0 || pos > s.next {
		return errors.Wrapf(base.ErrInvalidPosition, "write position %d, next %d", pos, s.next)
	}
	if len(data) != s.nodeSize {
		return errors.Wrapf(base.ErrInvalidLength, "node data is %d bytes, want %d", len(data), s.nodeSize)
	}

	if err := s.writeAt(data, s.offset(pos)); err != nil {
		return errors.Wrapf(err, "write node at position %d", pos)
	}
	if pos == s.next {
		s.next++
	}
	return nil
}

// AppendNode writes data to the next free slot and returns its position.
func (s *Store) AppendNode(data []byte) (base.Position, error) {
	pos := s.next
	if err := s.WriteNode(data, pos); err != nil {
		return base.NilPosition, err
	}
	return pos, nil
}

// ReadMetadata returns the metadata slot.
func (s *Store) ReadMetadata() ([]byte, error) {
	buf := make([]byte, s.metaSize)
	if err := s.readAt(buf, 0); err != nil {
		return nil, errors.Wrap(err, "read metadata")
	}
	return buf, nil
}

// WriteMetadata overwrites the metadata slot.
func (s *Store) WriteMetadata(data []byte) error {
	if len(data) != s.metaSize {
		return errors.Wrapf(base.ErrInvalidLength, "metadata is %d bytes, want %d", len(data), s.metaSize)
	}
	return errors.Wrap(s.writeAt(data, 0), "write metadata")
}

// NextPosition returns the position the next append will use. It equals the
// number of allocated node slots.
func (s *Store) NextPosition() base.Position {
	return s.next
}

// NodeSize returns the fixed width of a node slot.
func (s *Store) NodeSize() int {
	return s.nodeSize
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Sync flushes written data to the device.
func (s *Store) Sync() error {
	if err := syncFile(s.file); err != nil {
		return ioError(err, "sync %s", s.path)
	}
	return nil
}

// Close releases the backing file without syncing it.
func (s *Store) Close() error {
	if err := s.file.Close(); err != nil {
		return ioError(err, "close %s", s.path)
	}
	return nil
}

func (s *Store) offset(pos base.Position) int64 {
	return int64(s.metaSize) + int64(pos)*int64(s.nodeSize)
}

func (s *Store) readAt(buf []byte, offset int64) error {
	s.reads.Add(1)
	n, err := s.file.ReadAt(buf, offset)
	s.read.Add(uint64(n))
	if n == len(buf) {
		return nil
	}
	if errors.Is(err, io.EOF) {
		return errors.Wrapf(base.ErrCorruption, "short read: got %d bytes at offset %d, expected %d", n, offset, len(buf))
	}
	if err != nil {
		return ioError(err, "read %d bytes at offset %d", len(buf), offset)
	}
	return nil
}

func (s *Store) writeAt(buf []byte, offset int64) error {
	s.writes.Add(1)
	n, err := s.file.WriteAt(buf, offset)
	s.written.Add(uint64(n))
	if err != nil {
		return ioError(err, "write %d bytes at offset %d", len(buf), offset)
	}
	return nil
}

// ioError wraps err with context and marks it as an I/O failure.
func ioError(err error, format string, args ...any) error {
	return errors.Mark(errors.Wrapf(err, format, args...), base.ErrIO)
}

// Stats holds I/O statistics
type Stats struct {
	Reads   uint64
	Writes  uint64
	Read    uint64
	Written uint64
}

// Stats returns I/O statistics
func (s *Store) Stats() Stats {
	return Stats{
		Reads:   s.reads.Load(),
		Writes:  s.writes.Load(),
		Read:    s.read.Load(),
		Written: s.written.Load(),
	}
}
