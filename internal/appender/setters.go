package appender

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shineum/mail-event-appender/internal/layout"
)

// ErrUnknownOption is returned by SetOption for names the appender does not know.
var ErrUnknownOption = errors.New("unknown appender option")

func (a *MailEvent) SetFrom(from string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.from = from
}

func (a *MailEvent) SetTo(to string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.to = to
}

func (a *MailEvent) SetSubject(subject string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subject = subject
}

// SetSMTPHost sets the relay host used instead of the ambient one. Empty
// means use the ambient host.
func (a *MailEvent) SetSMTPHost(host string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.smtpHost = host
}

// SetPort sets the relay port. Values outside (0, 65535) are kept but treated
// as unset at send time.
func (a *MailEvent) SetPort(port int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.port = port
}

func (a *MailEvent) SetDry(dry bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dry = dry
}

func (a *MailEvent) SetLayout(l layout.Layout) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.layout = l
}

func (a *MailEvent) From() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.from
}

func (a *MailEvent) To() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.to
}

func (a *MailEvent) Subject() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.subject
}

func (a *MailEvent) SMTPHost() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.smtpHost
}

func (a *MailEvent) Port() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.port
}

func (a *MailEvent) Dry() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dry
}

func (a *MailEvent) Layout() layout.Layout {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.layout
}

// SetOption sets a parameter by name from its string form, the way logging
// configuration files address appender parameters. Names are matched
// case-insensitively and underscores are ignored, so "smtpHost" and
// "smtp_host" are the same option.
//
// A port that is not an integer becomes 0, which means "use the ambient
// port". A dry value that is not a recognised boolean becomes false.
func (a *MailEvent) SetOption(name, value string) error {
	switch normalizeOption(name) {
	case "from":
		a.SetFrom(value)
	case "to":
		a.SetTo(value)
	case "subject":
		a.SetSubject(value)
	case "smtphost":
		a.SetSMTPHost(value)
	case "port":
		a.SetPort(coercePort(value))
	case "dry":
		a.SetDry(coerceBool(value))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOption, name)
	}
	return nil
}

func normalizeOption(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "")
}

func coercePort(value string) int {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return port
}

func coerceBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "on":
		return true
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && b
}
