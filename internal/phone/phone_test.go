package phone

import (
	"errors"
	"testing"
)

func TestNormalize_Mobile11Digits(t *testing.T) {
	got, err := Normalize("11987654321")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "5511987654321" {
		t.Errorf("expected 5511987654321, got %s", got)
	}
}

func TestNormalize_Legacy10Digits(t *testing.T) {
	// 8-digit subscriber gets the mobile 9 injected.
	got, err := Normalize("1187654321")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "5511987654321" {
		t.Errorf("expected 5511987654321, got %s", got)
	}
}

func TestNormalize_CountryCodeStripped(t *testing.T) {
	got, err := Normalize("5511987654321")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "5511987654321" {
		t.Errorf("expected 5511987654321, got %s", got)
	}
}

func TestNormalize_DuplicatedMobilePrefixCollapses(t *testing.T) {
	// "99" at the start of a 9-digit subscriber collapses to one 9, then the
	// 8-digit rule re-injects it: net result is stable.
	got, err := Normalize("5511998765432")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "5511998765432" {
		t.Errorf("expected 5511998765432, got %s", got)
	}
}

func TestNormalize_NonDuplicatedNineKept(t *testing.T) {
	got, err := Normalize("11987654321")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "5511987654321" {
		t.Errorf("9-digit subscriber without duplicate prefix must be kept, got %s", got)
	}
}

func TestNormalize_Punctuation(t *testing.T) {
	cases := []string{
		"+55 (11) 98765-4321",
		"(11) 98765-4321",
		"11 9 8765 4321",
		"11.98765.4321",
	}
	for _, in := range cases {
		got, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): unexpected error: %v", in, err)
		}
		if got != "5511987654321" {
			t.Errorf("Normalize(%q) = %s, expected 5511987654321", in, got)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"11987654321", "1187654321", "+55 (11) 98765-4321", "5511998765432"}
	for _, in := range inputs {
		once, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(Normalize(%q)): %v", in, err)
		}
		if once != twice {
			t.Errorf("not idempotent for %q: %s != %s", in, once, twice)
		}
	}
}

func TestNormalize_InvalidLengths(t *testing.T) {
	cases := []string{
		"",
		"123",
		"987654321",    // 9 digits, no area code
		"119876543210", // 12 digits
		"5511",         // country code only
		"abc",          // no digits at all
		"55987654321",  // 9 digits after country strip
	}
	for _, in := range cases {
		_, err := Normalize(in)
		if !errors.Is(err, ErrInvalidNumberFormat) {
			t.Errorf("Normalize(%q): expected ErrInvalidNumberFormat, got %v", in, err)
		}
	}
}
