package session

import (
	"math"
	"math/rand"
	"time"
)

// ReconnectPolicy bounds the automatic reconnect loop after recoverable
// disconnects. Unbounded retry with no delay is a reconnect storm waiting to
// happen, so the default applies exponential backoff and an attempt cap.
type ReconnectPolicy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int // 0 = unbounded
}

// DefaultReconnectPolicy returns the standard policy: 2s base, 1m cap,
// 10 attempts. The attempt counter resets whenever a session reaches open.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		BaseDelay:   2 * time.Second,
		MaxDelay:    time.Minute,
		MaxAttempts: 10,
	}
}

// reconnectDelay returns the backoff for attempt N (1-based): exponential
// doubling from BaseDelay, capped at MaxDelay, with ±25% jitter.
func reconnectDelay(p ReconnectPolicy, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	jitter := 0.75 + rand.Float64()*0.5
	return time.Duration(d * jitter)
}
