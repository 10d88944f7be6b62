// Package tls builds the client TLS configuration used when dialing the relay.
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// ClientConfig returns a tls.Config for connecting to serverName. When caFile
// is set, its PEM certificates replace the system roots. insecure disables
// certificate verification and should only be used against test relays.
func ClientConfig(serverName, caFile string, insecure bool) (*tls.Config, error) {
	cfg := &tls.Config{
		ServerName: serverName,
		MinVersion: tls.VersionTLS12,
		//nolint:gosec // opt-in via smtp.insecure_skip_verify
		InsecureSkipVerify: insecure,
	}

	if caFile == "" {
		return cfg, nil
	}

	pemData, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemData) {
		return nil, fmt.Errorf("no certificates found in CA file %q", caFile)
	}
	cfg.RootCAs = pool

	return cfg, nil
}
