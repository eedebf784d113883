// Package logging installs the process-wide slog logger: tint output on
// stderr, each message prefixed with "[module]".
//
// The default logger is set in init, so any package importing logging
// can log through slog.Default right away.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Options configures New.
type Options struct {
	Level   slog.Leveler
	NoColor bool
	// Module is the prefix used until a "module" attribute overrides it.
	Module string
}

// Handler moves the "module" attribute into a message prefix and hands
// the record on to tint.
type Handler struct {
	next   slog.Handler
	module string
}

// New returns a Handler writing to w.
func New(w io.Writer, opts Options) *Handler {
	return &Handler{
		next: tint.NewHandler(w, &tint.Options{
			Level:      opts.Level,
			TimeFormat: time.Kitchen,
			NoColor:    opts.NoColor,
		}),
		module: opts.Module,
	}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	module := h.module
	kept := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Key == "module" {
			module = a.Value.String()
			continue
		}
		kept = append(kept, a)
	}
	if len(kept) == 0 {
		return &Handler{next: h.next, module: module}
	}
	return &Handler{next: h.next.WithAttrs(kept), module: module}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name), module: h.module}
}

// Handle works on its own copy of r, so rewriting Message is safe.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if h.module != "" {
		r.Message = "[" + h.module + "] " + r.Message
	}
	return h.next.Handle(ctx, r)
}

// Level controls the default logger's verbosity.
var Level = new(slog.LevelVar)

func init() {
	// Device output owns stdout; diagnostics go to stderr.
	slog.SetDefault(slog.New(New(os.Stderr, Options{Level: Level, Module: "portstream"})))
}
