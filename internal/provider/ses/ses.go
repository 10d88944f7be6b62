// Package ses implements a Provider that sends emails via AWS SES v2.
package ses

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/shineum/mail-event-appender/internal/email"
	"github.com/shineum/mail-event-appender/internal/transport"
)

// SESProviderConfig holds the configuration for creating a SESProvider.
type SESProviderConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// UseRelayEndpoint routes each call to the effective relay host and port
	// instead of the regional SES endpoint (local SES emulators).
	UseRelayEndpoint bool
}

// SESProvider sends emails via the AWS SES v2 API.
type SESProvider struct {
	client           SendEmailAPI
	useRelayEndpoint bool
}

// SendEmailAPI is the interface for the SES v2 SendEmail operation.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// New creates a new SESProvider with the given configuration.
func New(ctx context.Context, cfg SESProviderConfig) (*SESProvider, error) {
	var opts []func(*awsconfig.LoadOptions) error

	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESProvider{
		client:           sesv2.NewFromConfig(awsCfg),
		useRelayEndpoint: cfg.UseRelayEndpoint,
	}, nil
}

// NewWithClient creates a SESProvider with a custom client.
func NewWithClient(client SendEmailAPI, useRelayEndpoint bool) *SESProvider {
	return &SESProvider{
		client:           client,
		useRelayEndpoint: useRelayEndpoint,
	}
}

// Send delivers an email message via AWS SES v2. Messages carrying headers
// beyond From are sent as raw MIME so the headers survive.
func (s *SESProvider) Send(ctx context.Context, target transport.Settings, msg *email.Email) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	var input *sesv2.SendEmailInput
	if len(msg.ExtraHeaders()) > 0 {
		raw, err := buildRawMessage(msg)
		if err != nil {
			return fmt.Errorf("failed to build raw message: %w", err)
		}
		input = &sesv2.SendEmailInput{
			FromEmailAddress: aws.String(msg.From),
			Destination:      &types.Destination{ToAddresses: msg.To},
			Content: &types.EmailContent{
				Raw: &types.RawMessage{Data: raw},
			},
		}
	} else {
		input = buildSimpleInput(msg)
	}

	var optFns []func(*sesv2.Options)
	if s.useRelayEndpoint {
		endpoint := endpointURL(target)
		optFns = append(optFns, func(o *sesv2.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	if _, err := s.client.SendEmail(ctx, input, optFns...); err != nil {
		return fmt.Errorf("SES API request failed: %w", err)
	}
	return nil
}

// Name returns the provider name.
func (s *SESProvider) Name() string {
	return "ses"
}

// endpointURL turns the relay settings into an SES endpoint. Port 443 implies https.
func endpointURL(target transport.Settings) string {
	scheme := "http"
	if target.Port == 443 {
		scheme = "https"
	}
	return scheme + "://" + target.Addr()
}

// buildSimpleInput creates a SES SendEmailInput for messages without extra headers.
func buildSimpleInput(msg *email.Email) *sesv2.SendEmailInput {
	body := &types.Body{}

	if msg.HTMLBody != "" {
		body.Html = &types.Content{
			Data:    aws.String(msg.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}
	if msg.TextBody != "" || msg.HTMLBody == "" {
		body.Text = &types.Content{
			Data:    aws.String(msg.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}

	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination:      &types.Destination{ToAddresses: msg.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: body,
			},
		},
	}
}

// buildRawMessage constructs a raw MIME message including the caller's headers.
func buildRawMessage(msg *email.Email) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", msg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	for _, h := range msg.ExtraHeaders() {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.Name, h.Value)
	}
	buf.WriteString("MIME-Version: 1.0\r\n")

	if msg.TextBody == "" || msg.HTMLBody == "" {
		contentType := "text/plain; charset=UTF-8"
		if msg.TextBody == "" && msg.HTMLBody != "" {
			contentType = "text/html; charset=UTF-8"
		}
		fmt.Fprintf(&buf, "Content-Type: %s\r\n\r\n", contentType)
		buf.WriteString(msg.Body())
		return buf.Bytes(), nil
	}

	writer := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", writer.Boundary())

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=UTF-8", msg.TextBody},
		{"text/html; charset=UTF-8", msg.HTMLBody},
	}
	for _, p := range parts {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Type", p.contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("failed to create body part: %w", err)
		}
		if _, err := part.Write([]byte(p.body)); err != nil {
			return nil, fmt.Errorf("failed to write body part: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return buf.Bytes(), nil
}
