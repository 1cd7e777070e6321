// Package config parses the positional command lines of the genebank tools into
// immutable configuration values.
package config

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/alexhholmes/genedb"
	"github.com/alexhholmes/genedb/internal/base"
	"github.com/alexhholmes/genedb/internal/dna"
)

// BlockSize is the disk block the default degree is fitted to.
const BlockSize = 4096

const (
	CreateUsage = "genebank-create <0/1(no/with Cache)> <degree> <gbk file> <sequence length> [<cache size>] [<debug level>]"
	SearchUsage = "genebank-search <0/1(no/with Cache)> <btree file> <query file> [<cache size>] [<debug level>]"
)

var ErrUsage = errors.New("usage")

// Create configures a tree build from a GenBank file.
type Create struct {
	UseCache       bool
	CacheSize      int
	Degree         int
	GeneBankPath   string
	SequenceLength int
	Debug          int // 0, or 1 to also write the dump file
}

// OutputPath names the tree file after the GenBank file, in the working directory.
func (c Create) OutputPath() string {
	return fmt.Sprintf("%s.btree.data.%d.%d", filepath.Base(c.GeneBankPath), c.SequenceLength, c.Degree)
}

// Search configures a query run against an existing tree.
type Search struct {
	UseCache  bool
	CacheSize int
	TreePath  string
	QueryPath string
	Debug     int // always 0
}

// ParseCreate parses
//
//	<0/1 cache> <degree> <gbk file> <sequence length> [<cache size>] [<debug level>]
//
// The cache size is required when the cache is on. Degree 0 selects the largest
// degree whose node fits a BlockSize block.
func ParseCreate(args []string) (Create, error) {
	var cfg Create
	if len(args) < 4 {
		return cfg, usagef("expected at least 4 arguments, got %d", len(args))
	}

	var err error
	if cfg.UseCache, err = parseSwitch(args[0]); err != nil {
		return cfg, err
	}

	degree, err := strconv.Atoi(args[1])
	switch {
	case err != nil, degree == 1, degree < 0, degree > base.MaxDegree:
		return cfg, usagef("degree must be an integer t with 1 < t <= %d, or 0 to fit a %d byte block: %q",
			base.MaxDegree, BlockSize, args[1])
	case degree == 0:
		degree = genedb.OptimalDegree(BlockSize)
	}
	cfg.Degree = degree

	cfg.GeneBankPath = args[2]

	k, err := strconv.Atoi(args[3])
	if err != nil || dna.CheckLength(k) != nil {
		return cfg, usagef("sequence length must be an integer k with 0 < k <= %d: %q", dna.MaxSequenceLength, args[3])
	}
	cfg.SequenceLength = k

	rest := args[4:]
	if cfg.UseCache {
		if len(rest) == 0 {
			return cfg, usagef("cache size is required when the cache is on")
		}
		if cfg.CacheSize, err = parseCacheSize(rest[0]); err != nil {
			return cfg, err
		}
		rest = rest[1:]
	}

	switch len(rest) {
	case 0:
	case 1:
		cfg.Debug, err = strconv.Atoi(rest[0])
		if err != nil || (cfg.Debug != 0 && cfg.Debug != 1) {
			return cfg, usagef("debug level must be 0 or 1: %q", rest[0])
		}
	default:
		return cfg, usagef("too many arguments")
	}

	return cfg, nil
}

// ParseSearch parses
//
//	<0/1 cache> <btree file> <query file> [<cache size>] [<debug level>]
//
// Only debug level 0 exists.
func ParseSearch(args []string) (Search, error) {
	var cfg Search
	if len(args) < 3 || len(args) > 5 {
		return cfg, usagef("expected 3 to 5 arguments, got %d", len(args))
	}

	var err error
	if cfg.UseCache, err = parseSwitch(args[0]); err != nil {
		return cfg, err
	}
	cfg.TreePath = args[1]
	cfg.QueryPath = args[2]

	rest := args[3:]
	if cfg.UseCache {
		if len(rest) == 0 {
			return cfg, usagef("cache size is required when the cache is on")
		}
		if cfg.CacheSize, err = parseCacheSize(rest[0]); err != nil {
			return cfg, err
		}
		rest = rest[1:]
	}

	switch len(rest) {
	case 0:
	case 1:
		if debug, err := strconv.Atoi(rest[0]); err != nil || debug != 0 {
			return cfg, usagef("debug level can only be 0: %q", rest[0])
		}
	default:
		return cfg, usagef("too many arguments")
	}

	return cfg, nil
}

// TreeOptions returns the engine options for a cache setting.
func TreeOptions(useCache bool, cacheSize int, log genedb.Logger) []genedb.Option {
	opts := []genedb.Option{genedb.WithLogger(log)}
	if useCache {
		opts = append(opts, genedb.WithCache(cacheSize))
	}
	return opts
}

func parseSwitch(arg string) (bool, error) {
	switch arg {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, usagef("first argument must be 0 or 1: %q", arg)
}

func parseCacheSize(arg string) (int, error) {
	size, err := strconv.Atoi(arg)
	if err != nil || size <= 0 {
		return 0, usagef("cache size must be an integer greater than 0: %q", arg)
	}
	return size, nil
}

func usagef(format string, args ...any) error {
	return errors.Wrapf(ErrUsage, format, args...)
}
