// Package logger implements the core logging interface on rs/zerolog. Every
// logger carries a component field so a batch run's interleaved region logs
// stay attributable; APP_ENV=dev switches to console output.
package logger

import corelogger "github.com/kilianp07/parity/core/logger"

// Logger is the core logging interface, aliased so infra packages need only
// one import.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns a Logger for the given component. The environment is detected via
// the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}
