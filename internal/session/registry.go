package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tupanlabs/zapgate/internal/phone"
	"github.com/tupanlabs/zapgate/internal/qr"
	"github.com/tupanlabs/zapgate/internal/wa"
)

// CredentialStore persists per-session credential snapshots.
type CredentialStore interface {
	Save(key string, creds wa.Credentials)
	Delete(key string)
}

// Registry owns every live session. It is the only holder of the session map;
// all mutation goes through Start, Stop, StopAll and the internal event loop.
// Construct one per process and inject it into the API layer.
type Registry struct {
	dialer wa.Dialer
	creds  CredentialStore
	notify Notifier // optional
	policy ReconnectPolicy
	log    *slog.Logger

	group singleflight.Group
	wg    sync.WaitGroup

	mu         sync.Mutex
	sessions   map[string]*Session
	attempts   map[string]int // consecutive reconnect attempts per key
	reconnects map[string]*time.Timer
	closed     bool
}

// NewRegistry creates an empty registry. notify may be nil.
func NewRegistry(dialer wa.Dialer, creds CredentialStore, notify Notifier, policy ReconnectPolicy, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		dialer:     dialer,
		creds:      creds,
		notify:     notify,
		policy:     policy,
		log:        log,
		sessions:   make(map[string]*Session),
		attempts:   make(map[string]int),
		reconnects: make(map[string]*time.Timer),
	}
}

// Start returns the live session for key, creating and connecting one if none
// exists. Idempotent: a second Start for a live key returns the same session
// without side effects. Concurrent Starts for the same unstarted key are
// collapsed into a single creation.
func (r *Registry) Start(ctx context.Context, key string) (*Session, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if s, ok := r.Get(key); ok {
		return s, nil
	}
	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.start(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (r *Registry) start(ctx context.Context, key string) (*Session, error) {
	// Reserve the key before any I/O so overlapping Starts can never race a
	// second connection into existence.
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	if s, ok := r.sessions[key]; ok {
		r.mu.Unlock()
		return s, nil
	}
	s := &Session{Key: key, state: StateConnecting}
	r.sessions[key] = s
	r.mu.Unlock()

	r.publish(s, StateConnecting, "")

	client, err := r.dialer.Dial(ctx, key)
	if err != nil {
		r.remove(key, s)
		return nil, fmt.Errorf("dial session %s: %w", key, err)
	}
	if !s.attach(client) {
		// Stopped while the dial was in flight: tear down instead of leaving
		// the transport orphaned.
		client.Disconnect()
		r.remove(key, s)
		return nil, ErrSessionNotConnected
	}
	if err := client.Connect(ctx); err != nil {
		client.Disconnect()
		r.remove(key, s)
		return nil, fmt.Errorf("connect session %s: %w", key, err)
	}
	if s.isStopping() {
		// Stopped while the connect was in flight: Stop already logged the
		// device out, but Connect may have re-opened the transport. Close it
		// again so nothing is left connected without an owner.
		client.Disconnect()
		r.remove(key, s)
		return nil, ErrSessionNotConnected
	}

	r.log.Info("session started", "session", key)
	r.wg.Add(1)
	go r.eventLoop(s, client)
	return s, nil
}

// Get returns the session for key without side effects.
func (r *Registry) Get(key string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	return s, ok
}

// Keys returns the keys of all registered sessions.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.sessions))
	for k := range r.sessions {
		keys = append(keys, k)
	}
	return keys
}

// Send normalizes number and delivers body through the session's connection.
// Fails with ErrSessionNotConnected when no session is registered for key.
func (r *Registry) Send(ctx context.Context, key, number, body string) error {
	s, ok := r.Get(key)
	if !ok {
		return ErrSessionNotConnected
	}
	to, err := phone.Normalize(number)
	if err != nil {
		return err
	}
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client == nil {
		return ErrSessionNotConnected
	}
	return client.SendText(ctx, to, body)
}

// Stop logs the session out, closes its transport and removes it. Stopping an
// absent key is a no-op. A Stop racing a still-pending connect marks the
// session for teardown; the connect path closes the transport once available.
func (r *Registry) Stop(ctx context.Context, key string) error {
	// Marking the session stopping and removing it happen under the registry
	// lock so a disconnect event racing this Stop cannot schedule a reconnect
	// afterwards.
	r.mu.Lock()
	r.cancelReconnectLocked(key)
	s, ok := r.sessions[key]
	var client wa.Client
	if ok {
		client = s.markStopping()
		delete(r.sessions, key)
	}
	r.mu.Unlock()
	if !ok {
		return nil
	}

	r.publish(s, StateClosedTerminal, "disconnect requested")
	if client == nil {
		// Connect still in flight; the start path finishes the teardown.
		return nil
	}
	if err := s.teardown(ctx, client); err != nil {
		return fmt.Errorf("logout session %s: %w", key, err)
	}
	r.log.Info("session stopped", "session", key)
	return nil
}

// StopAll tears down every session. Per-session failures are logged and do
// not abort the rest of the teardown.
func (r *Registry) StopAll(ctx context.Context) {
	for _, key := range r.Keys() {
		if err := r.Stop(ctx, key); err != nil {
			r.log.Warn("session teardown failed", "session", key, "error", err)
		}
	}
}

// Shutdown stops accepting new sessions, closes every transport and waits
// for the event loops to drain (bounded by ctx). Unlike Stop/StopAll it does
// NOT log sessions out: credentials stay valid so sessions reconnect on the
// next process start.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	r.closed = true
	for key := range r.reconnects {
		r.reconnects[key].Stop()
		delete(r.reconnects, key)
	}
	remaining := make([]*Session, 0, len(r.sessions))
	for key, s := range r.sessions {
		remaining = append(remaining, s)
		delete(r.sessions, key)
	}
	r.mu.Unlock()

	for _, s := range remaining {
		if client := s.markStopping(); client != nil {
			client.Disconnect()
		}
		r.log.Info("session closed for shutdown", "session", s.Key)
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		r.log.Warn("shutdown timed out waiting for session event loops")
	}
}

// eventLoop drives the per-session state machine. It is the session's single
// event consumer, so events are applied in the order the connection emitted
// them. The loop exits when the client's event channel closes.
func (r *Registry) eventLoop(s *Session, client wa.Client) {
	defer r.wg.Done()
	for evt := range client.Events() {
		switch evt.Type {
		case wa.EventQRCode:
			dataURL, err := qr.DataURL(evt.Code)
			if err != nil {
				// No artifact to serve, so don't advertise a pairing state
				// the QR endpoint cannot back up.
				r.log.Error("qr encode failed", "session", s.Key, "error", err)
				continue
			}
			s.setQR(evt.Code, dataURL)
			r.log.Info("pairing code issued", "session", s.Key)
			r.publish(s, StatePairing, "")

		case wa.EventPairSuccess:
			r.log.Info("device paired", "session", s.Key, "device", evt.Credentials.DeviceJID)
			r.creds.Save(s.Key, evt.Credentials)

		case wa.EventCredentials:
			// Forwarded unconditionally; persistence failures are the
			// store's problem, not the state machine's.
			r.creds.Save(s.Key, evt.Credentials)

		case wa.EventConnected:
			s.clearQR()
			s.setState(StateOpen)
			r.resetAttempts(s.Key)
			r.log.Info("session open", "session", s.Key)
			r.publish(s, StateOpen, "")

		case wa.EventDisconnected:
			s.setState(StateClosedRecoverable)
			r.log.Warn("session closed", "session", s.Key, "reason", evt.Reason)
			r.publish(s, StateClosedRecoverable, evt.Reason)
			client.Disconnect()
			// Removal and the reconnect decision are atomic with respect to
			// Stop, which marks the session stopping under the same lock.
			r.mu.Lock()
			if cur, ok := r.sessions[s.Key]; ok && cur == s {
				delete(r.sessions, s.Key)
			}
			if !s.isStopping() {
				r.scheduleReconnectLocked(s.Key)
			}
			r.mu.Unlock()
			return

		case wa.EventLoggedOut:
			s.setState(StateClosedTerminal)
			r.log.Warn("session logged out", "session", s.Key, "reason", evt.Reason)
			r.publish(s, StateClosedTerminal, evt.Reason)
			r.remove(s.Key, s)
			r.creds.Delete(s.Key)
			client.Disconnect()
			return
		}
	}
}

// scheduleReconnect arms a delayed Start for key after a recoverable
// disconnect, respecting the backoff policy.
func (r *Registry) scheduleReconnect(key string) {
	r.mu.Lock()
	r.scheduleReconnectLocked(key)
	r.mu.Unlock()
}

// scheduleReconnectLocked is scheduleReconnect with r.mu held.
func (r *Registry) scheduleReconnectLocked(key string) {
	if r.closed {
		return
	}
	r.attempts[key]++
	attempt := r.attempts[key]
	if r.policy.MaxAttempts > 0 && attempt > r.policy.MaxAttempts {
		delete(r.attempts, key)
		r.log.Error("reconnect attempts exhausted, giving up", "session", key, "attempts", attempt-1)
		return
	}
	delay := reconnectDelay(r.policy, attempt)
	timer := time.AfterFunc(delay, func() {
		r.mu.Lock()
		delete(r.reconnects, key)
		r.mu.Unlock()
		if _, err := r.Start(context.Background(), key); err != nil {
			r.log.Warn("reconnect failed", "session", key, "attempt", attempt, "error", err)
			r.scheduleReconnect(key)
		}
	})
	r.reconnects[key] = timer
	r.log.Info("reconnect scheduled", "session", key, "attempt", attempt, "delay", delay)
}

func (r *Registry) resetAttempts(key string) {
	r.mu.Lock()
	delete(r.attempts, key)
	r.mu.Unlock()
}

// cancelReconnectLocked stops a pending reconnect timer. Caller holds r.mu.
func (r *Registry) cancelReconnectLocked(key string) {
	if t, ok := r.reconnects[key]; ok {
		t.Stop()
		delete(r.reconnects, key)
	}
	delete(r.attempts, key)
}

// remove deletes the registry entry for key only if it still points at s,
// so a teardown can never evict a successor session.
func (r *Registry) remove(key string, s *Session) {
	r.mu.Lock()
	if cur, ok := r.sessions[key]; ok && cur == s {
		delete(r.sessions, key)
	}
	r.mu.Unlock()
}

func (r *Registry) publish(s *Session, st State, reason string) {
	if r.notify == nil {
		return
	}
	r.notify.Publish(StateChange{Session: s.Key, State: st.String(), Reason: reason})
}
