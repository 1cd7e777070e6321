package genedb

import (
	"github.com/alexhholmes/genedb/internal/cache"
)

// Options configures a tree opened with Create or Open.
type Options struct {
	cacheEnabled bool
	cacheSize    int    // Maximum number of non-root nodes held in memory.
	syncOnClose  bool   // fdatasync the file before Close returns.
	logger       Logger // Never nil.
}

// DefaultOptions returns the configuration used when no Option is given: no
// cache, sync on close, and a DiscardLogger.
//
//goland:noinspection GoUnusedExportedFunction
func DefaultOptions() Options {
	return Options{
		syncOnClose: true,
		logger:      DiscardLogger{},
	}
}

// Option configures tree options using the functional options pattern.
type Option func(*Options)

// WithCache keeps up to size recently used nodes in memory. Modified nodes are
// written back when evicted and on Close. size must be at least 1.
func WithCache(size int) Option {
	return func(opts *Options) {
		opts.cacheEnabled = true
		opts.cacheSize = size
	}
}

// WithLogger sets the logger for tree lifecycle events. A nil logger restores
// the DiscardLogger.
func WithLogger(logger Logger) Option {
	return func(opts *Options) {
		if logger == nil {
			logger = DiscardLogger{}
		}
		opts.logger = logger
	}
}

// WithSyncOnClose controls whether Close flushes the file to stable storage.
// Disabling it is only useful for tests and throwaway trees.
//
//goland:noinspection GoUnusedExportedFunction
func WithSyncOnClose(sync bool) Option {
	return func(opts *Options) {
		opts.syncOnClose = sync
	}
}

func applyOptions(options []Option) Options {
	opts := DefaultOptions()
	for _, opt := range options {
		opt(&opts)
	}
	return opts
}

// newCache returns nil when caching is disabled.
func (o Options) newCache() (*cache.Cache, error) {
	if !o.cacheEnabled {
		return nil, nil
	}
	return cache.New(o.cacheSize)
}
