package genedb

import (
	"github.com/cockroachdb/errors"

	"github.com/alexhholmes/genedb/internal/base"
	"github.com/alexhholmes/genedb/internal/cache"
)

//goland:noinspection GoUnusedGlobalVariable
var (
	ErrTreeClosed = errors.New("tree is closed")

	// Kinds; test with errors.Is.
	ErrInvalidArgument = base.ErrInvalidArgument
	ErrIO              = base.ErrIO
	ErrCorruption      = base.ErrCorruption

	ErrInvalidPosition = base.ErrInvalidPosition
	ErrInvalidLength   = base.ErrInvalidLength
	ErrInvalidDegree   = base.ErrInvalidDegree
	ErrInvalidCapacity = cache.ErrInvalidCapacity
	ErrNodeOverflow    = base.ErrNodeOverflow
)
