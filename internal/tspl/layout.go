package tspl

import (
	"fmt"

	"github.com/thelabel/label-engine/internal/geom"
	"github.com/thelabel/label-engine/internal/raster"
	"github.com/thelabel/label-engine/pkg/labelformat"
)

// Layout thresholds for the built-in shipping template. The height gates
// keep small stock from being overcrowded; the exact values govern what
// fits physically and must not drift.
const (
	TitleMinHeightMm = 80.0 // title + separator block only on tall stock
	PhoneMinHeightMm = 60.0 // phone lines only on medium stock and up

	topMarginDots    = 16
	leftMarginDots   = 16
	bottomMarginDots = 16

	separatorHeightDots = 2
	defaultDensity      = 8

	barcodeHeightDots = 64
	qrSizeDots        = 96
)

// lineHeight is the vertical advance for one line at a given font index
func lineHeight(font int) int {
	return 16 + font*8
}

// setup emits the once-per-label preamble: physical size, inter-label gap,
// orientation, origin, tear-off mode and a buffer clear.
func setup(cmd *Command, cfg labelformat.LabelConfig) {
	cmd.Size(cfg.WidthMm, cfg.HeightMm).
		Gap(cfg.SpacingMm, 0).
		Direction(0, 0).
		Reference(0, 0).
		Offset(0).
		SetTear(true).
		Density(defaultDensity).
		CLS()
}

// shippingCursor walks a label top to bottom, dropping lines that no
// longer fit above the bottom margin
type shippingCursor struct {
	cmd        *Command
	y          int
	floorDots  int // last usable y
	leftMargin int
}

// line emits one text line at the cursor if it fits, then advances
func (s *shippingCursor) line(font int, bold bool, content string) error {
	lh := lineHeight(font)
	if s.y+lh > s.floorDots {
		return nil
	}
	if err := s.cmd.Text(s.leftMargin, s.y, font, bold, content); err != nil {
		return err
	}
	s.y += lh
	return nil
}

// rule emits a horizontal separator at the cursor if it fits
func (s *shippingCursor) rule(widthDots int) {
	if s.y+separatorHeightDots+8 > s.floorDots {
		return
	}
	s.cmd.Bar(s.leftMargin, s.y, widthDots-2*s.leftMargin, separatorHeightDots)
	s.y += separatorHeightDots + 8
}

// EncodeShipping renders a shipping label with the built-in template:
// vertical stacking with a running y-cursor, the title/separator block
// gated on tall stock, phone lines gated on medium stock, and a footer
// only when two line heights of space remain above the bottom margin.
// A processed logo, when present and requested, is placed first at its
// own centering offsets so text draws over it.
func EncodeShipping(cfg labelformat.LabelConfig, label labelformat.ShippingLabel, logo *raster.Processed) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if err := label.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	cmd := New()
	setup(cmd, cfg)

	widthDots := geom.MmToDots(cfg.WidthMm)
	heightDots := geom.MmToDots(cfg.HeightMm)

	if label.IncludeLogo && logo != nil {
		if err := cmd.Bitmap(logo.X, logo.Y, logo.WidthBytes(), logo.Height, BitmapModeOverwrite, logo.Bitmap); err != nil {
			return nil, err
		}
	}

	cur := &shippingCursor{
		cmd:        cmd,
		y:          topMarginDots,
		floorDots:  heightDots - bottomMarginDots,
		leftMargin: leftMarginDots,
	}
	withPhones := cfg.HeightMm >= PhoneMinHeightMm

	if cfg.HeightMm >= TitleMinHeightMm {
		// Tall stock gets a scannable shipment id in the top-right corner
		qr, err := raster.QRCode(label.ID, qrSizeDots)
		if err != nil {
			return nil, fmt.Errorf("%w: shipment qr: %v", ErrEncode, err)
		}
		packed := raster.PackAt(qr, widthDots-leftMarginDots-qrSizeDots, topMarginDots, raster.DefaultThreshold)
		if err := cmd.Bitmap(packed.X, packed.Y, packed.WidthBytes(), packed.Height, BitmapModeOverwrite, packed.Bitmap); err != nil {
			return nil, err
		}

		if err := cur.line(4, true, "SHIPPING LABEL"); err != nil {
			return nil, err
		}
		cur.rule(widthDots)
	}

	if err := cur.line(3, true, "TO:"); err != nil {
		return nil, err
	}
	if err := cur.line(4, true, label.To.Name); err != nil {
		return nil, err
	}
	if err := cur.line(3, false, label.To.Address); err != nil {
		return nil, err
	}
	if withPhones {
		if err := cur.line(3, false, label.To.Phone1); err != nil {
			return nil, err
		}
		if label.To.Phone2 != "" {
			if err := cur.line(3, false, label.To.Phone2); err != nil {
				return nil, err
			}
		}
	}

	cur.rule(widthDots)

	if err := cur.line(2, true, "FROM:"); err != nil {
		return nil, err
	}
	if err := cur.line(2, false, label.From.Name); err != nil {
		return nil, err
	}
	if err := cur.line(2, false, label.From.Address); err != nil {
		return nil, err
	}
	if withPhones {
		if err := cur.line(2, false, label.From.Phone1); err != nil {
			return nil, err
		}
	}

	if label.CODEnabled {
		if err := cur.line(3, true, fmt.Sprintf("COD: %.2f", label.CODAmount)); err != nil {
			return nil, err
		}
	}

	if label.TrackingNumber != "" && cur.y+barcodeHeightDots <= cur.floorDots {
		code, err := raster.Barcode128(label.TrackingNumber, widthDots-2*leftMarginDots, barcodeHeightDots)
		if err != nil {
			return nil, fmt.Errorf("%w: tracking barcode: %v", ErrEncode, err)
		}
		packed := raster.PackAt(code, leftMarginDots, cur.y, raster.DefaultThreshold)
		if err := cmd.Bitmap(packed.X, packed.Y, packed.WidthBytes(), packed.Height, BitmapModeOverwrite, packed.Bitmap); err != nil {
			return nil, err
		}
		cur.y += packed.Height + 8
	}

	// Footer only when comfortably clear of the bottom margin
	if cur.floorDots-cur.y > 2*lineHeight(1) {
		footer := fmt.Sprintf("%s  %s", label.CreatedAt.Format("2006-01-02 15:04"), label.ID)
		if err := cur.line(1, false, footer); err != nil {
			return nil, err
		}
	}

	cmd.Print(1)
	return cmd.Bytes(), nil
}

// EncodeGap renders a blank label sized to the configured inter-label
// spacing. Sent after a real label it advances the stock by the gap.
func EncodeGap(cfg labelformat.LabelConfig) ([]byte, error) {
	if cfg.SpacingMm <= 0 {
		return nil, fmt.Errorf("%w: gap label needs positive spacing, got %v mm", ErrEncode, cfg.SpacingMm)
	}

	cmd := New()
	cmd.Size(cfg.WidthMm, cfg.SpacingMm).
		Gap(0, 0).
		Direction(0, 0).
		CLS().
		Print(1)
	return cmd.Bytes(), nil
}

// EncodeImage renders a label carrying nothing but a processed image,
// placed at its centering offsets
func EncodeImage(cfg labelformat.LabelConfig, img *raster.Processed) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if img == nil || len(img.Bitmap) == 0 {
		return nil, fmt.Errorf("%w: no image data", ErrEncode)
	}

	cmd := New()
	setup(cmd, cfg)
	if err := cmd.Bitmap(img.X, img.Y, img.WidthBytes(), img.Height, BitmapModeOverwrite, img.Bitmap); err != nil {
		return nil, err
	}
	cmd.Print(1)
	return cmd.Bytes(), nil
}
