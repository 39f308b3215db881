// Package phone normalizes loosely formatted Brazilian phone numbers into
// canonical international form: 55 + 2-digit area code + 9-digit mobile
// subscriber number.
package phone

import (
	"errors"
	"strings"
)

// ErrInvalidNumberFormat is returned when the input cannot be shaped into a
// valid Brazilian mobile number.
var ErrInvalidNumberFormat = errors.New("invalid phone number format")

const (
	// CountryCode is the Brazilian international dialing prefix.
	CountryCode = "55"
	// MobilePrefix is the digit prepended to legacy 8-digit subscriber numbers.
	MobilePrefix = '9'

	areaCodeLen = 2
)

// Normalize converts an arbitrary phone number string into canonical
// <country><area><subscriber> form. Punctuation, spaces and a leading country
// code are tolerated. The subscriber part must have 8 or 9 digits after the
// area code; anything else fails with ErrInvalidNumberFormat.
//
// Normalize is pure and idempotent over its own output.
func Normalize(raw string) (string, error) {
	digits := stripNonDigits(raw)
	if strings.HasPrefix(digits, CountryCode) {
		digits = digits[len(CountryCode):]
	}

	// area code + 8 or area code + 9 digits
	if len(digits) != areaCodeLen+8 && len(digits) != areaCodeLen+9 {
		return "", ErrInvalidNumberFormat
	}

	area := digits[:areaCodeLen]
	sub := digits[areaCodeLen:]

	// Collapse an accidental double mobile prefix ("99876..." → "9876...").
	if len(sub) == 9 && sub[0] == MobilePrefix && sub[1] == MobilePrefix {
		sub = sub[1:]
	}
	// Legacy 8-digit numbers get the mobile prefix injected.
	if len(sub) == 8 {
		sub = string(MobilePrefix) + sub
	}

	return CountryCode + area + sub, nil
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
