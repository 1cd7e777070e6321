package logger

import (
	"go.uber.org/zap"

	"github.com/alexhholmes/genedb"
)

// Zap wraps a zap.Logger to implement genedb.Logger.
type Zap struct {
	sugar *zap.SugaredLogger
}

// NewZap creates a genedb.Logger from a zap.Logger.
func NewZap(logger *zap.Logger) genedb.Logger {
	return &Zap{sugar: logger.Sugar()}
}

// Error logs an error message with key-value pairs.
func (z *Zap) Error(msg string, args ...any) {
	z.sugar.Errorw(msg, args...)
}

// Warn logs a warning message with key-value pairs.
func (z *Zap) Warn(msg string, args ...any) {
	z.sugar.Warnw(msg, args...)
}

// Info logs an info message with key-value pairs.
func (z *Zap) Info(msg string, args ...any) {
	z.sugar.Infow(msg, args...)
}
