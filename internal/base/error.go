package base

import "github.com/cockroachdb/errors"

// Error kinds. Concrete errors below are marked with one of these so callers can
// branch on the kind with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrIO              = errors.New("i/o failure")
	ErrCorruption      = errors.New("data corruption detected")
)

var (
	ErrInvalidPosition = errors.Mark(errors.New("invalid node position"), ErrInvalidArgument)
	ErrInvalidLength   = errors.Mark(errors.New("invalid byte length"), ErrInvalidArgument)
	ErrInvalidDegree   = errors.Mark(errors.New("degree must be at least 2"), ErrInvalidArgument)

	// ErrNodeFull and ErrNotFull are invariant violations. The engine never
	// triggers them on a correct tree.
	ErrNodeFull     = errors.New("node is full")
	ErrNotFull      = errors.New("node can only split when full")
	ErrNodeOverflow = errors.New("node exceeds slot capacity")
)
