// Package ticket renders check-in tickets as QR codes.
package ticket

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QRCodePNG renders the registration ID as a PNG QR code and returns it
// base64 encoded, ready for embedding in a data URI.
func QRCodePNG(registrationID string) (string, error) {
	png, err := qrcode.Encode(registrationID, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
