package raster

import (
	"fmt"
	"image"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	qrcode "github.com/skip2/go-qrcode"
)

// QRCode renders content as a QR code image sized in device dots. The
// result is already black and white, so the threshold step is a no-op
// when it goes through Process.
func QRCode(content string, sizeDots int) (image.Image, error) {
	if content == "" {
		return nil, fmt.Errorf("qr content is required")
	}
	if sizeDots <= 0 {
		return nil, fmt.Errorf("qr size must be positive, got %d", sizeDots)
	}

	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to build qr code: %w", err)
	}

	return qr.Image(sizeDots), nil
}

// Barcode128 renders content as a Code128 barcode sized in device dots
func Barcode128(content string, widthDots, heightDots int) (image.Image, error) {
	if content == "" {
		return nil, fmt.Errorf("barcode content is required")
	}
	if widthDots <= 0 || heightDots <= 0 {
		return nil, fmt.Errorf("barcode size must be positive, got %dx%d", widthDots, heightDots)
	}

	code, err := code128.Encode(content)
	if err != nil {
		return nil, fmt.Errorf("failed to encode barcode: %w", err)
	}

	scaled, err := barcode.Scale(code, widthDots, heightDots)
	if err != nil {
		return nil, fmt.Errorf("failed to scale barcode: %w", err)
	}

	return scaled, nil
}
