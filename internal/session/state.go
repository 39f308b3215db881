package session

// State is the lifecycle state of a managed session.
type State int

const (
	// StatePairing means the session has no usable credentials and is waiting
	// for a QR scan.
	StatePairing State = iota
	// StateConnecting means the transport is being established.
	StateConnecting
	// StateOpen means the connection is authenticated and usable.
	StateOpen
	// StateClosedRecoverable means the connection dropped for a reason that
	// permits automatic reconnection.
	StateClosedRecoverable
	// StateClosedTerminal means the credentials were invalidated (logged out)
	// or the session was explicitly stopped. No automatic reconnection.
	StateClosedTerminal
)

func (s State) String() string {
	switch s {
	case StatePairing:
		return "pairing"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosedRecoverable:
		return "closed"
	case StateClosedTerminal:
		return "logged_out"
	default:
		return "unknown"
	}
}

// StateChange is broadcast to lifecycle subscribers on every transition.
type StateChange struct {
	Session string `json:"sessionId"`
	State   string `json:"state"`
	Reason  string `json:"reason,omitempty"`
}

// Notifier receives lifecycle transitions. Implementations must not block.
type Notifier interface {
	Publish(change StateChange)
}
