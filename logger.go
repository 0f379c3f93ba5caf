package atlas

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// loggerPtr stores the active logger. Accessed atomically so SetLogger can
// be called while another goroutine owns an atlas.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// slogger returns the current package logger.
func slogger() *slog.Logger { return loggerPtr.Load() }

// Logger returns the logger installed with SetLogger. Subpackages log
// through it so one SetLogger call covers the whole module.
func Logger() *slog.Logger { return loggerPtr.Load() }

// SetLogger installs a logger for the atlas packages. By default all log
// output is discarded. Passing nil restores the discarding logger.
//
// The packers never log capacity exhaustion; that is a normal outcome the
// caller handles. Logging is limited to diagnostics such as placement
// decisions and perimeter updates, at Debug level.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}
