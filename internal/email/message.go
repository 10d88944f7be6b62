// Package email defines the message model handed from the appender to the
// delivery providers.
package email

import (
	"errors"
	"strings"
)

var (
	// ErrNoRecipients is returned when To is empty.
	ErrNoRecipients = errors.New("no recipients provided")
	// ErrNoSender is returned when From is empty.
	ErrNoSender = errors.New("no sender provided")
)

// Email is one outbound message. The appender produces exactly one per log event.
type Email struct {
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
	// Headers is a raw header block ("Name: value\r\n" lines) supplied by the
	// caller, e.g. "From: ops@example.com\r\n".
	Headers string
}

// Validate reports whether the message has the minimum fields a provider needs.
func (e *Email) Validate() error {
	if e.From == "" {
		return ErrNoSender
	}
	for _, to := range e.To {
		if strings.TrimSpace(to) != "" {
			return nil
		}
	}
	return ErrNoRecipients
}

// Body returns the text body, falling back to the HTML body.
func (e *Email) Body() string {
	if e.TextBody != "" {
		return e.TextBody
	}
	return e.HTMLBody
}

// Header is a single parsed header line.
type Header struct {
	Name  string
	Value string
}

// HeaderLines parses the raw header block into name/value pairs in order.
// Lines without a colon and blank lines are skipped.
func (e *Email) HeaderLines() []Header {
	var out []Header
	for _, line := range strings.Split(strings.ReplaceAll(e.Headers, "\r\n", "\n"), "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, Header{Name: name, Value: strings.TrimSpace(value)})
	}
	return out
}

// ExtraHeaders returns the parsed headers other than From, which every
// provider already sets from the From field.
func (e *Email) ExtraHeaders() []Header {
	var out []Header
	for _, h := range e.HeaderLines() {
		if strings.EqualFold(h.Name, "From") {
			continue
		}
		out = append(out, h)
	}
	return out
}
