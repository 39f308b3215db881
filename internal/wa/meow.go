package wa

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// eventBuffer is the per-client event channel capacity. The session loop
// drains continuously; the buffer only absorbs short bursts.
const eventBuffer = 64

// MeowDialer creates whatsmeow-backed clients. Each session key gets its own
// SQLite credential store under <dataDir>/sessions/<key>.db.
type MeowDialer struct {
	dataDir string
	log     *slog.Logger
}

// NewMeowDialer creates a dialer rooted at dataDir.
func NewMeowDialer(dataDir string, log *slog.Logger) *MeowDialer {
	return &MeowDialer{dataDir: dataDir, log: log}
}

// Dial opens (or creates) the credential store for key and builds a client
// around it. The returned client is not yet connected.
func (d *MeowDialer) Dial(ctx context.Context, key string) (Client, error) {
	dir := filepath.Join(d.dataDir, "sessions")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	dbPath := filepath.Join(dir, key+".db")

	waLogger := newLogAdapter(d.log.With("session", key), "Database")
	container, err := sqlstore.New(ctx, "sqlite",
		"file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)", waLogger)
	if err != nil {
		return nil, fmt.Errorf("open credential store for %s: %w", key, err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device for %s: %w", key, err)
	}

	mc := &meowClient{
		key:    key,
		cli:    whatsmeow.NewClient(device, newLogAdapter(d.log.With("session", key), "Client")),
		log:    d.log.With("session", key),
		events: make(chan Event, eventBuffer),
	}
	// The registry owns reconnect policy; whatsmeow must not race it.
	mc.cli.EnableAutoReconnect = false
	mc.handlerID = mc.cli.AddEventHandler(mc.handleEvent)
	return mc, nil
}

// meowClient adapts a *whatsmeow.Client to the Client interface.
type meowClient struct {
	key       string
	cli       *whatsmeow.Client
	log       *slog.Logger
	handlerID uint32

	mu     sync.Mutex
	closed bool
	events chan Event
}

func (c *meowClient) Connect(ctx context.Context) error {
	if c.cli.Store.ID == nil {
		// Unpaired device: QR channel must be requested before Connect.
		qrChan, err := c.cli.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("qr channel: %w", err)
		}
		go c.pumpQR(qrChan)
	}
	if err := c.cli.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (c *meowClient) pumpQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for item := range qrChan {
		switch item.Event {
		case "code":
			c.emit(Event{Type: EventQRCode, Code: item.Code})
		case "success":
			// Pairing completion is reported through events.PairSuccess.
		case "timeout":
			c.emit(Event{Type: EventDisconnected, Reason: "pairing timed out"})
		default:
			c.log.Warn("unexpected qr channel event", "event", item.Event)
		}
	}
}

func (c *meowClient) handleEvent(raw any) {
	switch evt := raw.(type) {
	case *events.Connected:
		e := Event{Type: EventConnected}
		if id := c.cli.Store.ID; id != nil {
			e.Credentials = Credentials{
				DeviceJID: id.String(),
				Platform:  c.cli.Store.Platform,
				UpdatedAt: time.Now().UTC(),
			}
		}
		c.emit(e)
		if e.Credentials.DeviceJID != "" {
			c.emit(Event{Type: EventCredentials, Credentials: e.Credentials})
		}
	case *events.PairSuccess:
		now := time.Now().UTC()
		c.emit(Event{Type: EventPairSuccess, Credentials: Credentials{
			DeviceJID: evt.ID.String(),
			Platform:  evt.Platform,
			PairedAt:  now,
			UpdatedAt: now,
		}})
	case *events.Disconnected:
		c.emit(Event{Type: EventDisconnected, Reason: "connection closed"})
	case *events.StreamReplaced:
		c.emit(Event{Type: EventDisconnected, Reason: "stream replaced by another client"})
	case *events.ConnectFailure:
		c.emit(Event{Type: EventDisconnected, Reason: fmt.Sprintf("connect failure: %v", evt.Reason)})
	case *events.LoggedOut:
		c.emit(Event{Type: EventLoggedOut, Reason: fmt.Sprintf("%v", evt.Reason)})
	}
}

// emit delivers an event to the session loop, preserving order. Events after
// Disconnect are dropped.
func (c *meowClient) emit(evt Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.events <- evt:
	default:
		// Consumer stalled; dropping is preferable to wedging whatsmeow's
		// event dispatch goroutine.
		c.log.Warn("event buffer full, dropping event", "type", evt.Type.String())
	}
}

func (c *meowClient) SendText(ctx context.Context, to, body string) error {
	jid := types.NewJID(to, types.DefaultUserServer)
	_, err := c.cli.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(body),
	})
	if err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	return nil
}

func (c *meowClient) Logout(ctx context.Context) error {
	if err := c.cli.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (c *meowClient) Disconnect() {
	c.cli.RemoveEventHandler(c.handlerID)
	c.cli.Disconnect()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
}

func (c *meowClient) Connected() bool {
	return c.cli.IsConnected()
}

func (c *meowClient) Events() <-chan Event {
	return c.events
}
