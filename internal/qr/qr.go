// Package qr encodes pairing codes as PNG data URLs for delivery over the
// control API.
package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// pngSize is the pixel width/height of the generated QR image.
const pngSize = 256

// DataURL encodes code as a PNG QR image wrapped in a base64 data URL,
// suitable for direct use in an <img src>.
func DataURL(code string) (string, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, pngSize)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
