package appender

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shineum/mail-event-appender/internal/event"
)

// Handler is an slog.Handler that forwards records at or above a threshold
// to a MailEvent appender. Handle always returns nil.
type Handler struct {
	appender  *MailEvent
	threshold slog.Leveler
	logger    string
	group     string
	attrs     []slog.Attr
}

// NewHandler returns a Handler feeding a. A nil threshold means slog.LevelError.
func NewHandler(a *MailEvent, threshold slog.Leveler) *Handler {
	if threshold == nil {
		threshold = slog.LevelError
	}
	return &Handler{appender: a, threshold: threshold, logger: a.Name()}
}

// Named returns a copy of h that reports events under the logger name.
func (h *Handler) Named(logger string) *Handler {
	h2 := h.clone()
	h2.logger = logger
	return h2
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.threshold.Level()
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	e := event.FromRecord(h.logger, r)
	if h.group != "" {
		for i := range e.Attrs {
			e.Attrs[i].Key = h.group + "." + e.Attrs[i].Key
		}
	}
	if len(h.attrs) > 0 {
		e.Attrs = append(slices.Clone(h.attrs), e.Attrs...)
	}

	h.appender.Append(ctx, e)
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := h.clone()
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		h2.attrs = append(h2.attrs, a)
	}
	return h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	if h2.group != "" {
		h2.group += "." + name
	} else {
		h2.group = name
	}
	return h2
}

func (h *Handler) clone() *Handler {
	h2 := *h
	h2.attrs = slices.Clone(h.attrs)
	return &h2
}
