// Package layout renders log events into the text of an email body.
package layout

import (
	"fmt"
	"strings"

	"github.com/shineum/mail-event-appender/internal/event"
)

// Layout formats an event. The appender concatenates Header, Format and
// Footer into one body per event.
type Layout interface {
	Header() string
	Format(e *event.Event) string
	Footer(e *event.Event) string
}

// ContentTyper is implemented by layouts that produce something other than
// plain text.
type ContentTyper interface {
	ContentType() string
}

// ContentType returns l's content type, defaulting to text/plain.
func ContentType(l Layout) string {
	if ct, ok := l.(ContentTyper); ok {
		return ct.ContentType()
	}
	return "text/plain"
}

// New returns the layout registered under name ("simple" or "html").
func New(name string) (Layout, error) {
	switch strings.ToLower(name) {
	case "", "simple":
		return Simple{}, nil
	case "html":
		return NewHTML("Log messages"), nil
	default:
		return nil, fmt.Errorf("unknown layout %q", name)
	}
}
