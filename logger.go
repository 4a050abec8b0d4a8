package headlessvt

import (
	"fmt"
	"log/slog"
)

// Logger is the injection point for diagnostics. The Terminal never opens a
// file or writes to a destination directly; every log line flows through an
// injected Logger, matching spec §9's design note ("Logging is injected")
// and the teacher's WithBell/WithResponse/... Provider pattern.
//
// No third-party structured-logging library is used anywhere in this
// module: none of the example repositories this project was grounded on
// depend on one, so the corpus idiom here is "inject an interface, default
// to a no-op, let the embedder choose a concrete logger" rather than
// picking a library the corpus never reaches for.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NoopLogger discards everything. It is the default Logger.
type NoopLogger struct{}

func (NoopLogger) Debugf(format string, args ...any) {}
func (NoopLogger) Infof(format string, args ...any)  {}
func (NoopLogger) Warnf(format string, args ...any)  {}
func (NoopLogger) Errorf(format string, args ...any) {}

var _ Logger = NoopLogger{}

// SlogLogger adapts the standard library's structured logger to Logger.
// It is the one ready-to-use concrete implementation this package ships;
// embedders that want a real logging backend (zap, zerolog, ...) implement
// Logger directly instead.
type SlogLogger struct {
	L *slog.Logger
}

func NewSlogLogger(l *slog.Logger) SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return SlogLogger{L: l}
}

func (s SlogLogger) Debugf(format string, args ...any) { s.L.Debug(fmt.Sprintf(format, args...)) }
func (s SlogLogger) Infof(format string, args ...any)  { s.L.Info(fmt.Sprintf(format, args...)) }
func (s SlogLogger) Warnf(format string, args ...any)  { s.L.Warn(fmt.Sprintf(format, args...)) }
func (s SlogLogger) Errorf(format string, args ...any) { s.L.Error(fmt.Sprintf(format, args...)) }

var _ Logger = SlogLogger{}
