package credstore

import (
	"testing"
	"time"

	"github.com/tupanlabs/zapgate/internal/wa"
)

func TestSaveLoadDelete(t *testing.T) {
	s := New(t.TempDir())

	if _, ok := s.Load("tenant-a"); ok {
		t.Fatal("expected no snapshot before save")
	}

	creds := wa.Credentials{
		DeviceJID: "5511987654321:12@s.whatsapp.net",
		Platform:  "android",
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
	s.Save("tenant-a", creds)

	got, ok := s.Load("tenant-a")
	if !ok {
		t.Fatal("expected snapshot after save")
	}
	if got.DeviceJID != creds.DeviceJID {
		t.Errorf("device jid mismatch: %s != %s", got.DeviceJID, creds.DeviceJID)
	}

	s.Delete("tenant-a")
	if _, ok := s.Load("tenant-a"); ok {
		t.Error("expected snapshot gone after delete")
	}
	// Deleting again is a no-op.
	s.Delete("tenant-a")
}

func TestSaveOverwrites(t *testing.T) {
	s := New(t.TempDir())
	s.Save("k", wa.Credentials{DeviceJID: "old@s.whatsapp.net"})
	s.Save("k", wa.Credentials{DeviceJID: "new@s.whatsapp.net"})

	got, ok := s.Load("k")
	if !ok {
		t.Fatal("expected snapshot")
	}
	if got.DeviceJID != "new@s.whatsapp.net" {
		t.Errorf("expected overwrite, got %s", got.DeviceJID)
	}
}

func TestList(t *testing.T) {
	s := New(t.TempDir())
	keys, err := s.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected empty list, got %v", keys)
	}

	s.Save("a", wa.Credentials{DeviceJID: "a@s.whatsapp.net"})
	s.Save("b", wa.Credentials{DeviceJID: "b@s.whatsapp.net"})

	keys, err = s.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("expected 2 keys, got %v", keys)
	}
}
