// Command genebank-search prints the frequency of each query sequence found in a
// tree built by genebank-create.
//
//	genebank-search <0/1(no/with Cache)> <btree file> <query file> [<cache size>] [<debug level>]
//
// Every query must have the tree's sequence length. Found queries are printed
// as "sequence: frequency", one per line.
package main

import (
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/alexhholmes/genedb/internal/app"
	"github.com/alexhholmes/genedb/internal/config"
	"github.com/alexhholmes/genedb/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	red := color.New(color.FgRed)

	cfg, err := config.ParseSearch(args)
	if err != nil {
		red.Fprintln(stderr, err)
		red.Fprintln(stderr, "Usage:", config.SearchUsage)
		return 1
	}

	log, flush, err := logger.New(os.Getenv(logger.EnvBackend), stderr)
	if err != nil {
		red.Fprintln(stderr, err)
		return 1
	}
	defer flush()

	if _, err := app.RunSearch(cfg, log, stdout); err != nil {
		log.Error("search failed", "error", err)
		return 1
	}
	return 0
}
