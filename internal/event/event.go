// Package event is the log event handed to the appender and its layouts.
package event

import (
	"log/slog"
	"time"
)

// Event is a single log record.
type Event struct {
	Time    time.Time
	Level   slog.Level
	Logger  string
	Message string
	Attrs   []slog.Attr
}

// FromRecord converts an slog record emitted through logger into an Event.
func FromRecord(logger string, r slog.Record) *Event {
	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	return &Event{
		Time:    r.Time,
		Level:   r.Level,
		Logger:  logger,
		Message: r.Message,
		Attrs:   attrs,
	}
}
