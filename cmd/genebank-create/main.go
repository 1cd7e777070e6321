// Command genebank-create builds a B-tree of subsequence frequencies from a
// GenBank file.
//
//	genebank-create <0/1(no/with Cache)> <degree> <gbk file> <sequence length> [<cache size>] [<debug level>]
//
// The tree is written to <gbk file>.btree.data.<sequence length>.<degree> in the
// working directory. Debug level 1 also writes every sequence and its frequency,
// in order, to a file named dump.
package main

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"

	"github.com/alexhholmes/genedb/internal/app"
	"github.com/alexhholmes/genedb/internal/config"
	"github.com/alexhholmes/genedb/logger"
)

func main() {
	os.Exit(run(os.Args[1:], ".", os.Stderr))
}

func run(args []string, dir string, stderr io.Writer) int {
	red := color.New(color.FgRed)

	cfg, err := config.ParseCreate(args)
	if err != nil {
		red.Fprintln(stderr, err)
		red.Fprintln(stderr, "Usage:", config.CreateUsage)
		return 1
	}

	log, flush, err := logger.New(os.Getenv(logger.EnvBackend), stderr)
	if err != nil {
		red.Fprintln(stderr, err)
		return 1
	}
	defer flush()

	summary, err := app.RunCreate(cfg, dir, log)
	if err != nil {
		if errors.Is(err, app.ErrNoSequences) {
			log.Warn("nothing to index", "file", cfg.GeneBankPath)
		}
		log.Error("create failed", "error", err)
		return 1
	}

	log.Info("created tree", "path", summary.TreePath, "blocks", summary.Blocks,
		"sequences", summary.Keys, "nodes", summary.Nodes, "degree", cfg.Degree)
	return 0
}
