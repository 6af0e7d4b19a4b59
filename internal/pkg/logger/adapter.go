package logger

import (
	"log/slog"

	"jpeg_swap/internal/app/port"
)

// slogAdapter implements port.Logger on top of the global slog logger,
// tagging every record with the component that produced it.
type slogAdapter struct {
	component string
}

// NewSlogAdapter returns a port.Logger for the named component.
func NewSlogAdapter(component string) port.Logger {
	return &slogAdapter{component: component}
}

func (a *slogAdapter) with(args []any) []any {
	if a.component == "" {
		return args
	}
	return append([]any{slog.String("component", a.component)}, args...)
}

func (a *slogAdapter) Info(msg string, args ...any)  { Info(msg, a.with(args)...) }
func (a *slogAdapter) Debug(msg string, args ...any) { Debug(msg, a.with(args)...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { Warn(msg, a.with(args)...) }
func (a *slogAdapter) Error(msg string, args ...any) { Error(msg, a.with(args)...) }

type nopLogger struct{}

// NewNop returns a port.Logger that discards everything. Handy in tests.
func NewNop() port.Logger { return nopLogger{} }

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
