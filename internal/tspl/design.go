package tspl

import (
	"fmt"

	"github.com/thelabel/label-engine/internal/geom"
	"github.com/thelabel/label-engine/internal/raster"
	"github.com/thelabel/label-engine/pkg/labelformat"
)

// EncodeDesign renders a custom label design: one TEXT per visible text
// element at its stored dot position, separators as horizontal rules,
// and icon elements backed by the supplied processed image
func EncodeDesign(design *labelformat.CustomLabelDesign, img *raster.Processed) ([]byte, error) {
	if err := design.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	cmd := New()
	setup(cmd, design.Config)

	widthDots := geom.MmToDots(design.Config.WidthMm)

	for _, e := range design.Elements {
		if !e.Visible {
			continue
		}

		switch e.Type {
		case labelformat.ElementSeparator:
			width := widthDots - e.X - leftMarginDots
			if width < 1 {
				return nil, fmt.Errorf("%w: separator '%s' starts past the label edge", ErrEncode, e.ID)
			}
			cmd.Bar(e.X, e.Y, width, separatorHeightDots)

		case labelformat.ElementQRCode:
			if e.Content == "" {
				continue
			}
			code, err := raster.QRCode(e.Content, 32*e.FontSize)
			if err != nil {
				return nil, fmt.Errorf("%w: qr element '%s': %v", ErrEncode, e.ID, err)
			}
			packed := raster.PackAt(code, e.X, e.Y, raster.DefaultThreshold)
			if err := cmd.Bitmap(packed.X, packed.Y, packed.WidthBytes(), packed.Height, BitmapModeOverwrite, packed.Bitmap); err != nil {
				return nil, err
			}

		case labelformat.ElementIcon:
			if img == nil {
				continue
			}
			if err := cmd.Bitmap(e.X, e.Y, img.WidthBytes(), img.Height, BitmapModeOverwrite, img.Bitmap); err != nil {
				return nil, err
			}

		default:
			if err := cmd.Text(e.X, e.Y, e.FontSize, e.Bold, e.Content); err != nil {
				return nil, err
			}
		}
	}

	cmd.Print(1)
	return cmd.Bytes(), nil
}
