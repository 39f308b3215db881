package wa

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLogAdapter_RoutesThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	adapter := newLogAdapter(logger, "Client")
	adapter.Infof("connected in %dms", 42)
	adapter.Warnf("retrying")

	out := buf.String()
	if !strings.Contains(out, "connected in 42ms") {
		t.Errorf("formatted message missing: %s", out)
	}
	if !strings.Contains(out, "module=Client") {
		t.Errorf("module attribute missing: %s", out)
	}
}

func TestLogAdapter_SubNestsModule(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	sub := newLogAdapter(logger, "Client").Sub("Socket")
	sub.Errorf("boom")

	if !strings.Contains(buf.String(), "module=Client/Socket") {
		t.Errorf("nested module missing: %s", buf.String())
	}
}

func TestEventTypeString(t *testing.T) {
	cases := map[EventType]string{
		EventQRCode:       "qr_code",
		EventPairSuccess:  "pair_success",
		EventConnected:    "connected",
		EventDisconnected: "disconnected",
		EventLoggedOut:    "logged_out",
		EventCredentials:  "credentials",
		EventType(99):     "unknown",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Errorf("EventType(%d).String() = %q, want %q", typ, got, want)
		}
	}
}
