// Package smtp implements a Provider that delivers through an SMTP relay
// using the go-mail library. A new connection is dialed for every message
// against the effective relay settings of that send.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/shineum/mail-event-appender/internal/email"
	"github.com/shineum/mail-event-appender/internal/transport"
)

// defaultTimeout bounds dial and each SMTP command.
const defaultTimeout = 10 * time.Second

// Config holds the relay credentials and TLS settings. Host and port are not
// part of it; they arrive per send.
type Config struct {
	Username   string
	Password   string
	Encryption string // "none", "starttls", "ssl_tls"
	TLSConfig  *tls.Config
	Timeout    time.Duration
}

// Provider delivers messages over SMTP.
type Provider struct {
	config Config
}

// New creates a Provider with the given configuration.
func New(cfg Config) *Provider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Provider{config: cfg}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "smtp" }

// Send delivers msg through the relay at target.
func (p *Provider) Send(ctx context.Context, target transport.Settings, msg *email.Email) error {
	m, err := buildMessage(msg)
	if err != nil {
		return err
	}

	c, err := mail.NewClient(target.Host, p.clientOptions(target)...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send via %s: %w", target.Addr(), err)
	}
	return nil
}

func (p *Provider) clientOptions(target transport.Settings) []mail.Option {
	opts := []mail.Option{
		mail.WithPort(target.Port),
		mail.WithTimeout(p.config.Timeout),
		mail.WithTLSPolicy(tlsPolicyFromEncryption(p.config.Encryption)),
	}
	if p.config.Encryption == "ssl_tls" {
		opts = append(opts, mail.WithSSL())
	}
	if p.config.TLSConfig != nil {
		opts = append(opts, mail.WithTLSConfig(p.config.TLSConfig))
	}
	if p.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(p.config.Username),
			mail.WithPassword(p.config.Password),
		)
	}
	return opts
}

// buildMessage converts msg into a go-mail message.
func buildMessage(msg *email.Email) (*mail.Msg, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(msg.Subject)

	for _, h := range msg.ExtraHeaders() {
		m.SetGenHeader(mail.Header(h.Name), h.Value)
	}

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	default:
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	}

	return m, nil
}

// tlsPolicyFromEncryption converts the encryption string to a go-mail TLSPolicy.
func tlsPolicyFromEncryption(enc string) mail.TLSPolicy {
	switch enc {
	case "ssl_tls":
		return mail.TLSMandatory
	case "starttls":
		return mail.TLSOpportunistic
	default:
		return mail.NoTLS
	}
}
