// Package appender implements the mail event appender: a log sink that turns
// every event it receives into one email.
//
// Sends are synchronous and best-effort. Append never returns an error and
// never panics; events are dropped when the sender or recipient is missing,
// and transport failures are logged and counted, not surfaced.
package appender

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/shineum/mail-event-appender/internal/email"
	"github.com/shineum/mail-event-appender/internal/event"
	"github.com/shineum/mail-event-appender/internal/layout"
	"github.com/shineum/mail-event-appender/internal/metrics"
	"github.com/shineum/mail-event-appender/internal/provider"
	"github.com/shineum/mail-event-appender/internal/provider/smtp"
	"github.com/shineum/mail-event-appender/internal/transport"
)

// DefaultPort is the port an appender starts with.
const DefaultPort = transport.DefaultPort

const dryRunPrefix = "DRY MODE OF MAIL APP.: "

// MailEvent sends one email per log event.
//
// It starts closed; ActivateOptions opens it and Close closes it again.
// Events appended while closed are dropped.
type MailEvent struct {
	name string

	mu       sync.RWMutex
	from     string
	to       string
	subject  string
	smtpHost string
	port     int
	dry      bool
	closed   bool
	layout   layout.Layout

	provider provider.Provider
	ambient  *transport.Ambient
	trace    io.Writer
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures the collaborators of a MailEvent.
type Option func(*MailEvent)

// WithProvider sets the delivery backend. The default is an SMTP provider
// without authentication.
func WithProvider(p provider.Provider) Option {
	return func(a *MailEvent) { a.provider = p }
}

// WithAmbient sets the shared transport configuration overridden around each
// send. The default is transport.Default.
func WithAmbient(amb *transport.Ambient) Option {
	return func(a *MailEvent) { a.ambient = amb }
}

// WithTraceWriter sets where dry-run traces are written. The default is os.Stdout.
func WithTraceWriter(w io.Writer) Option {
	return func(a *MailEvent) { a.trace = w }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *MailEvent) { a.logger = l }
}

// WithMetrics sets the counters updated on drops, sends and failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *MailEvent) { a.metrics = m }
}

// WithLayout sets the initial layout.
func WithLayout(l layout.Layout) Option {
	return func(a *MailEvent) { a.layout = l }
}

// NewMailEvent creates a closed appender named name with port 25, dry run
// off and an empty subject.
func NewMailEvent(name string, opts ...Option) *MailEvent {
	a := &MailEvent{
		name:    name,
		port:    DefaultPort,
		closed:  true,
		ambient: transport.Default,
		trace:   os.Stdout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.provider == nil {
		a.provider = smtp.New(smtp.Config{})
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.logger = a.logger.With("appender", name)
	return a
}

// Name returns the appender name.
func (a *MailEvent) Name() string { return a.name }

// RequiresLayout reports that a layout must be configured before activation.
func (a *MailEvent) RequiresLayout() bool { return true }

// ActivateOptions opens the appender. No connection is made.
func (a *MailEvent) ActivateOptions() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = false
}

// Close closes the appender. It is safe to call more than once.
func (a *MailEvent) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}

// Closed reports whether the appender is closed.
func (a *MailEvent) Closed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.closed
}

// snapshot is the configuration in effect for one Append call.
type snapshot struct {
	from, to, subject, smtpHost string
	port                        int
	dry, closed                 bool
	layout                      layout.Layout
}

func (a *MailEvent) snapshot() snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return snapshot{
		from:     a.from,
		to:       a.to,
		subject:  a.subject,
		smtpHost: a.smtpHost,
		port:     a.port,
		dry:      a.dry,
		closed:   a.closed,
		layout:   a.layout,
	}
}

// Append formats e and emails it to the configured recipient.
//
// The configured smtpHost and port override the ambient transport settings
// only for the duration of the call; the previous values are restored before
// Append returns, whatever the outcome. In dry-run mode a trace line is
// written instead of sending.
func (a *MailEvent) Append(ctx context.Context, e *event.Event) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("recovered panic while appending event", "panic", r)
			a.metrics.IncDropped(metrics.ReasonPanic)
		}
	}()

	cfg := a.snapshot()

	switch {
	case cfg.closed:
		a.logger.Debug("dropping event, appender is closed")
		a.metrics.IncDropped(metrics.ReasonClosed)
		return
	case cfg.from == "" || cfg.to == "":
		a.logger.Debug("dropping event, from or to is not set")
		a.metrics.IncDropped(metrics.ReasonIncomplete)
		return
	case cfg.layout == nil:
		a.logger.Warn("dropping event, no layout configured")
		a.metrics.IncDropped(metrics.ReasonNoLayout)
		return
	}

	// The error is already logged and counted inside; Append never reports it.
	_ = a.ambient.Override(cfg.smtpHost, cfg.port, func(target transport.Settings) error {
		body := cfg.layout.Header() + cfg.layout.Format(e) + cfg.layout.Footer(e)

		if cfg.dry {
			a.writeTrace(cfg.to, body)
			return nil
		}

		return a.send(ctx, target, cfg, body)
	})
}

func (a *MailEvent) send(ctx context.Context, target transport.Settings, cfg snapshot, body string) error {
	msg := &email.Email{
		From:    cfg.from,
		To:      []string{cfg.to},
		Subject: cfg.subject,
		Headers: fmt.Sprintf("From: %s\r\n", cfg.from),
	}
	if layout.ContentType(cfg.layout) == "text/html" {
		msg.HTMLBody = body
	} else {
		msg.TextBody = body
	}

	if err := a.provider.Send(ctx, target, msg); err != nil {
		a.logger.Warn("failed to send log event email",
			"provider", a.provider.Name(),
			"relay", target.Addr(),
			"to", cfg.to,
			"error", err,
		)
		a.metrics.IncSendFailure(a.provider.Name())
		return err
	}

	a.logger.Debug("sent log event email",
		"provider", a.provider.Name(),
		"relay", target.Addr(),
		"to", cfg.to,
	)
	a.metrics.IncSent(a.provider.Name())
	return nil
}

func (a *MailEvent) writeTrace(to, body string) {
	a.metrics.IncDryRun()
	if _, err := fmt.Fprintf(a.trace, "%sSend mail to: %s with content: %s\n", dryRunPrefix, to, body); err != nil {
		a.logger.Warn("failed to write dry-run trace", "error", err)
	}
}
