package layout

import (
	"strings"

	"github.com/shineum/mail-event-appender/internal/event"
)

// Simple renders "LEVEL - message" followed by any attributes as key=value.
type Simple struct{}

func (Simple) Header() string { return "" }

func (Simple) Format(e *event.Event) string {
	var b strings.Builder
	b.WriteString(e.Level.String())
	b.WriteString(" - ")
	b.WriteString(e.Message)
	for _, a := range e.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.String())
	}
	b.WriteByte('\n')
	return b.String()
}

func (Simple) Footer(*event.Event) string { return "" }
