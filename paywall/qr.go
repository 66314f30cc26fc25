package paywall

import (
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// ModulePixels is the rendered size of one QR module.
const ModulePixels = 12

// QRCodePNG encodes data as a PNG QR code with quartile (25%) error
// correction and the standard four-module quiet zone.
func QRCodePNG(data string) ([]byte, error) {
	if data == "" {
		return nil, errors.New("empty QR payload")
	}
	q, err := qrcode.New(data, qrcode.High)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	// A negative size is a per-module pixel count.
	png, err := q.PNG(-ModulePixels)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}
