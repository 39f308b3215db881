package wa

import "time"

// EventType discriminates lifecycle events emitted by a Client.
type EventType int

const (
	// EventQRCode carries a fresh pairing code. Emitted repeatedly while the
	// session is unpaired; each new code supersedes the previous one.
	EventQRCode EventType = iota
	// EventPairSuccess fires when a QR scan completes and the device is
	// registered. The connection is not yet open at this point.
	EventPairSuccess
	// EventConnected fires when the connection reaches the open state.
	EventConnected
	// EventDisconnected fires on a recoverable connection loss.
	EventDisconnected
	// EventLoggedOut fires when the server invalidated the credentials.
	// Terminal: the session must not be reconnected automatically.
	EventLoggedOut
	// EventCredentials carries a credential snapshot to persist.
	EventCredentials
)

func (t EventType) String() string {
	switch t {
	case EventQRCode:
		return "qr_code"
	case EventPairSuccess:
		return "pair_success"
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventLoggedOut:
		return "logged_out"
	case EventCredentials:
		return "credentials"
	default:
		return "unknown"
	}
}

// Credentials is the operator-visible snapshot of a session's identity.
// The protocol library owns the actual key material.
type Credentials struct {
	DeviceJID string    `json:"device_jid"`
	Platform  string    `json:"platform,omitempty"`
	PairedAt  time.Time `json:"paired_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Event is a single lifecycle event from the underlying connection. Events
// for one client are delivered in the order the connection emitted them.
type Event struct {
	Type        EventType
	Code        string      // pairing code, EventQRCode only
	Reason      string      // human-readable close reason, EventDisconnected/EventLoggedOut
	Credentials Credentials // EventCredentials and EventPairSuccess
}
