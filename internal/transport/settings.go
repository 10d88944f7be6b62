// Package transport holds the mail transport settings (relay host and port)
// shared by every sender in the process, and the scoped override used by the
// appender around a single send.
package transport

import (
	"net"
	"strconv"
)

const (
	// DefaultHost is the relay used when nothing else is configured.
	DefaultHost = "localhost"
	// DefaultPort is the standard SMTP port.
	DefaultPort = 25
)

// Settings is the relay address a provider delivers through.
type Settings struct {
	Host string
	Port int
}

// Addr returns the settings as a host:port string.
func (s Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ValidPort reports whether port lies in the open interval (0, 65535).
// Anything else means "not set".
func ValidPort(port int) bool {
	return port > 0 && port < 65535
}
