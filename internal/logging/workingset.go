package logging

import (
	"context"
	"log/slog"
)

// WorkingSet is what the operator is working on when a record is written.
type WorkingSet struct {
	File      string
	Mission   int
	Editing   int // player held for edit, 0 when none
	Modifying bool
}

func (w WorkingSet) attrs() []slog.Attr {
	out := make([]slog.Attr, 0, 4)
	if w.File != "" {
		out = append(out, slog.String("file", w.File))
	}
	if w.Mission > 0 {
		out = append(out, slog.Int("mission", w.Mission))
	}
	if w.Editing > 0 {
		out = append(out, slog.Int("editing", w.Editing))
	}
	if w.Modifying {
		out = append(out, slog.Bool("modifying", true))
	}
	return out
}

// WorkingSetFunc reads the working set at the time of the call.
type WorkingSetFunc func() WorkingSet

// WorkingSetHandler stamps each record with the working set. Keys the record
// already carries win, so a log line about mission 2 is not relabelled with
// the open mission.
type WorkingSetHandler struct {
	inner   slog.Handler
	current WorkingSetFunc
}

func NewWorkingSetHandler(inner slog.Handler, current WorkingSetFunc) *WorkingSetHandler {
	return &WorkingSetHandler{inner: inner, current: current}
}

func (h *WorkingSetHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *WorkingSetHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.current == nil {
		return h.inner.Handle(ctx, r)
	}
	own := make(map[string]bool, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		own[a.Key] = true
		return true
	})
	for _, a := range h.current().attrs() {
		if !own[a.Key] {
			r.AddAttrs(a)
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *WorkingSetHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &WorkingSetHandler{inner: h.inner.WithAttrs(attrs), current: h.current}
}

func (h *WorkingSetHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &WorkingSetHandler{inner: h.inner.WithGroup(name), current: h.current}
}
