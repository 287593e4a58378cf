package logging

import (
	"context"
	"errors"
	"log/slog"
)

// MultiHandler hands every record to each of its sinks.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler drops nil handlers.
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	m := &MultiHandler{handlers: make([]slog.Handler, 0, len(handlers))}
	for _, h := range handlers {
		if h != nil {
			m.handlers = append(m.handlers, h)
		}
	}
	return m
}

// Len returns the number of sinks.
func (m *MultiHandler) Len() int {
	return len(m.handlers)
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle keeps going past a failing sink and joins the errors.
func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (m *MultiHandler) derive(fn func(slog.Handler) slog.Handler) *MultiHandler {
	out := &MultiHandler{handlers: make([]slog.Handler, len(m.handlers))}
	for i, h := range m.handlers {
		out.handlers[i] = fn(h)
	}
	return out
}

// ContextProvider is evaluated for every record, e.g. the markers currently on screen.
type ContextProvider func() []slog.Attr

// Gauge reports fn under key on every record.
func Gauge(key string, fn func() int) ContextProvider {
	return func() []slog.Attr {
		return []slog.Attr{slog.Int(key, fn())}
	}
}

// ContextHandler appends the provider's attributes before passing records on.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{inner: inner, provider: provider}
}

// WithContext wraps logger with a ContextHandler.
func WithContext(logger *slog.Logger, provider ContextProvider) *slog.Logger {
	return slog.New(NewContextHandler(logger.Handler(), provider))
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		r.AddAttrs(h.provider()...)
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewContextHandler(h.inner.WithAttrs(attrs), h.provider)
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return NewContextHandler(h.inner.WithGroup(name), h.provider)
}
