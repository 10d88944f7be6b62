package transport

import "sync"

// Default is the process-wide ambient configuration.
var Default = NewAmbient(Settings{Host: DefaultHost, Port: DefaultPort})

// Ambient is a mutable, process-wide transport configuration. All access is
// serialized; Override holds the lock for the whole override window so a
// concurrent caller never observes another caller's override.
type Ambient struct {
	mu       sync.Mutex
	settings Settings
}

// NewAmbient creates an Ambient initialised to s.
func NewAmbient(s Settings) *Ambient {
	return &Ambient{settings: s}
}

// Settings returns the current values.
func (a *Ambient) Settings() Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// Set replaces the current values.
func (a *Ambient) Set(s Settings) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settings = s
}

// Override applies host (when non-empty) and port (when ValidPort) on top of
// the current values, calls fn with the effective settings, and restores the
// previous values before returning. The restore also runs when fn panics.
//
// fn must not call back into a.
func (a *Ambient) Override(host string, port int, fn func(Settings) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	prev := a.settings
	defer func() { a.settings = prev }()

	if host != "" {
		a.settings.Host = host
	}
	if ValidPort(port) {
		a.settings.Port = port
	}

	return fn(a.settings)
}
