// Package wa wraps the whatsmeow client behind narrow interfaces so the
// session registry and its state machine can be exercised without a socket.
package wa

import "context"

// Client is one tenant's connection to WhatsApp.
//
// Events() yields lifecycle events in connection order until the client is
// torn down, after which the channel is closed. Connect returns once the
// socket handshake is initiated; the open state is reported asynchronously
// via EventConnected.
type Client interface {
	// Connect starts the connection. For an unpaired device this also begins
	// QR code emission.
	Connect(ctx context.Context) error
	// SendText delivers a text message to the canonical phone number to
	// (digits only, country-code prefixed).
	SendText(ctx context.Context, to, body string) error
	// Logout invalidates the stored credentials on the server side.
	Logout(ctx context.Context) error
	// Disconnect closes the transport without touching credentials.
	Disconnect()
	// Connected reports whether the connection is currently open.
	Connected() bool
	// Events returns the client's lifecycle event stream.
	Events() <-chan Event
}

// Dialer creates clients bound to a session key's credential store.
type Dialer interface {
	Dial(ctx context.Context, key string) (Client, error)
}
