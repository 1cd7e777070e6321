// Package logger provides adapters for popular logger libraries to work with genedb's Logger interface.
//
// The adapters allow you to use your existing logger with genedb without writing boilerplate.
// Note that the standard library's slog.Logger already implements genedb.Logger directly.
//
// Example with zap:
//
//	import (
//	    "github.com/alexhholmes/genedb"
//	    "github.com/alexhholmes/genedb/logger"
//	    "go.uber.org/zap"
//	)
//
//	func main() {
//	    zapLogger, _ := zap.NewProduction()
//
//	    tree, err := genedb.Open("chr1.gbk.btree.data.6.127",
//	        genedb.WithLogger(logger.NewZap(zapLogger)))
//	    if err != nil {
//	        panic(err)
//	    }
//	    defer tree.Close()
//	}
package logger

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alexhholmes/genedb"
)

// EnvBackend names the environment variable the commands read to pick a backend.
const EnvBackend = "GENEDB_LOGGER"

// Backends accepted by New.
const (
	BackendZap    = "zap"
	BackendLogrus = "logrus"
)

var ErrUnknownBackend = errors.New("unknown logger backend")

// New builds a human-readable logger writing to w. An empty backend selects zap.
// The returned function flushes buffered output.
func New(backend string, w io.Writer) (genedb.Logger, func(), error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendZap:
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(w),
			zapcore.InfoLevel,
		)
		z := zap.New(core)
		return NewZap(z), func() { _ = z.Sync() }, nil

	case BackendLogrus:
		l := logrus.New()
		l.SetOutput(w)
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
		return NewLogrus(l), func() {}, nil
	}

	return nil, nil, errors.Wrapf(ErrUnknownBackend, "%q (want %s or %s)", backend, BackendZap, BackendLogrus)
}
