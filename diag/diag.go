// Package diag provides the injectable diagnostics sink used by the
// engine core in place of a singleton logger. Per the engine's design
// notes, the core never logs unconditionally: every component that wants
// to report diagnostics takes a Sink, and the default is a no-op.
package diag

import (
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Sink receives leveled diagnostic messages from core components. It is
// safe for concurrent use by multiple sessions.
type Sink interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Noop discards every message. It is the default Sink for engines and
// sessions that do not configure one explicitly.
type Noop struct{}

func (Noop) Debugf(string, ...any) {}
func (Noop) Infof(string, ...any)  {}
func (Noop) Warnf(string, ...any)  {}
func (Noop) Errorf(string, ...any) {}

// NoopSink is the shared zero-cost Sink instance.
var NoopSink Sink = Noop{}

// LogSink adapts github.com/charmbracelet/log to the Sink interface.
type LogSink struct {
	logger *charmlog.Logger
}

// NewLogSink builds a LogSink writing to w with the given charmbracelet/log
// level (e.g. charmlog.DebugLevel). If w is nil, os.Stderr is used.
func NewLogSink(w io.Writer, level charmlog.Level) *LogSink {
	if w == nil {
		w = os.Stderr
	}
	logger := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "gamecalls",
	})
	return &LogSink{logger: logger}
}

func (s *LogSink) Debugf(format string, args ...any) { s.logger.Debug(fmt.Sprintf(format, args...)) }
func (s *LogSink) Infof(format string, args ...any)  { s.logger.Info(fmt.Sprintf(format, args...)) }
func (s *LogSink) Warnf(format string, args ...any)  { s.logger.Warn(fmt.Sprintf(format, args...)) }
func (s *LogSink) Errorf(format string, args ...any) { s.logger.Error(fmt.Sprintf(format, args...)) }
