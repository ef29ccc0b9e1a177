package logging

import (
	"context"
	"errors"
	"log/slog"
)

// Sink is one log destination and the lowest level it accepts.
type Sink struct {
	Handler slog.Handler
	Min     slog.Level
}

// Fanout sends each record to every sink whose level admits it. The log
// file takes everything at the configured level while the console only
// mirrors failures.
type Fanout struct {
	sinks []Sink
}

// NewFanout drops sinks without a handler.
func NewFanout(sinks ...Sink) *Fanout {
	valid := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s.Handler != nil {
			valid = append(valid, s)
		}
	}
	return &Fanout{sinks: valid}
}

func (f *Fanout) admits(ctx context.Context, s Sink, level slog.Level) bool {
	return level >= s.Min && s.Handler.Enabled(ctx, level)
}

// Enabled reports whether any sink takes records at level.
func (f *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f.sinks {
		if f.admits(ctx, s, level) {
			return true
		}
	}
	return false
}

// Handle writes r to every admitting sink. A failing sink does not stop the
// others; all failures are returned together.
func (f *Fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range f.sinks {
		if !f.admits(ctx, s, r.Level) {
			continue
		}
		if err := s.Handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *Fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *Fanout) each(fn func(slog.Handler) slog.Handler) *Fanout {
	sinks := make([]Sink, len(f.sinks))
	for i, s := range f.sinks {
		sinks[i] = Sink{Handler: fn(s.Handler), Min: s.Min}
	}
	return &Fanout{sinks: sinks}
}
