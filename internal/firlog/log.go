// Package firlog is the ambient structured logger, shaped after the
// go-ethereum Root()/Write(level, msg, ctx...) convention: a package-level
// root logger plus Debug/Info/Warn/Error helpers taking alternating
// key/value pairs, built on golang.org/x/exp/slog rather than a
// hand-rolled formatter.
package firlog

import (
	"os"
	"sync/atomic"

	"golang.org/x/exp/slog"
)

var root atomic.Value // *slog.Logger

func init() {
	root.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// Root returns the current root logger.
func Root() *slog.Logger {
	return root.Load().(*slog.Logger)
}

// SetRoot replaces the root logger, e.g. to redirect it to the CLI's
// --debug-channel writer.
func SetRoot(l *slog.Logger) {
	root.Store(l)
}

func Debug(msg string, ctx ...interface{}) { Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { Root().Error(msg, ctx...) }
