// Package session implements the session registry and the per-session
// lifecycle state machine for managed WhatsApp connections.
package session

import (
	"context"
	"errors"
	"regexp"
	"sync"

	"github.com/tupanlabs/zapgate/internal/wa"
)

var (
	// ErrSessionNotConnected is returned for operations that require a live
	// session when none is registered for the key.
	ErrSessionNotConnected = errors.New("session not connected")
	// ErrInvalidSessionKey is returned when a key does not match the allowed
	// slug format.
	ErrInvalidSessionKey = errors.New("invalid session key")
	// ErrRegistryClosed is returned by Start after the registry shut down.
	ErrRegistryClosed = errors.New("session registry is closed")
)

// Session keys double as file names for the credential stores, so the format
// is restricted to a filesystem-safe slug.
var keyRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,63}$`)

// ValidateKey checks that key is a safe session identifier.
func ValidateKey(key string) error {
	if !keyRe.MatchString(key) {
		return ErrInvalidSessionKey
	}
	return nil
}

// Session is one tenant's managed connection plus its pairing state. The
// underlying client is exclusively owned by the session; all mutation happens
// through the registry's event loop.
type Session struct {
	Key string

	mu        sync.Mutex
	state     State
	client    wa.Client
	qrCode    string // latest raw pairing code, "" when none pending
	qrDataURL string // same code as PNG data URL
	stopping  bool   // set by Stop; suppresses reconnect and pending connects
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether the underlying connection is open.
func (s *Session) Connected() bool {
	s.mu.Lock()
	c := s.client
	s.mu.Unlock()
	return c != nil && c.Connected()
}

// QR returns the pending pairing artifact as a data URL, or false when the
// session is already authenticated or no code has been issued yet.
func (s *Session) QR() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.qrDataURL == "" {
		return "", false
	}
	return s.qrDataURL, true
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) setQR(code, dataURL string) {
	s.mu.Lock()
	s.state = StatePairing
	s.qrCode = code
	s.qrDataURL = dataURL
	s.mu.Unlock()
}

func (s *Session) clearQR() {
	s.mu.Lock()
	s.qrCode = ""
	s.qrDataURL = ""
	s.mu.Unlock()
}

// attach binds the dialed client to the session. Returns false if the session
// was stopped while the dial was in flight; the caller must then tear the
// client down instead of leaving the transport orphaned.
func (s *Session) attach(c wa.Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopping {
		return false
	}
	s.client = c
	return true
}

// markStopping flags the session for teardown and returns the client if one
// is already attached. A nil return means a connect is still pending; the
// connect path will complete the teardown.
func (s *Session) markStopping() wa.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopping = true
	s.state = StateClosedTerminal
	return s.client
}

func (s *Session) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

// teardown logs out (best effort) and closes the transport.
func (s *Session) teardown(ctx context.Context, c wa.Client) error {
	err := c.Logout(ctx)
	c.Disconnect()
	return err
}
