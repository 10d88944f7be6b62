// Package provider defines the interface for email delivery backends.
package provider

import (
	"context"

	"github.com/shineum/mail-event-appender/internal/email"
	"github.com/shineum/mail-event-appender/internal/transport"
)

// Provider is the interface that email delivery backends must implement.
type Provider interface {
	// Send delivers msg through the relay described by target.
	// It returns an error if the delivery fails.
	Send(ctx context.Context, target transport.Settings, msg *email.Email) error

	// Name returns the human-readable name of this provider.
	Name() string
}
