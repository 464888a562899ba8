// Package preview renders labels to images so a design can be checked
// on screen before any stock is spent
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/fogleman/gg"

	"github.com/thelabel/label-engine/internal/geom"
	"github.com/thelabel/label-engine/internal/raster"
	"github.com/thelabel/label-engine/internal/tspl"
	"github.com/thelabel/label-engine/pkg/labelformat"
)

// Renderer draws labels onto a white canvas at printer resolution, one
// pixel per dot
type Renderer struct {
	width  int
	height int
	ctx    *gg.Context
}

// New creates a renderer sized to the label stock
func New(cfg labelformat.LabelConfig) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	width := geom.MmToDots(cfg.WidthMm)
	height := geom.MmToDots(cfg.HeightMm)

	ctx := gg.NewContext(width, height)
	ctx.SetColor(color.White)
	ctx.Clear()
	ctx.SetColor(color.Black)

	return &Renderer{
		width:  width,
		height: height,
		ctx:    ctx,
	}, nil
}

// RenderDesign draws a custom label design
func (r *Renderer) RenderDesign(design *labelformat.CustomLabelDesign, img *raster.Processed) (image.Image, error) {
	if err := design.Validate(); err != nil {
		return nil, fmt.Errorf("failed to render design: %w", err)
	}

	for _, element := range design.Elements {
		if !element.Visible {
			continue
		}

		switch element.Type {
		case labelformat.ElementSeparator:
			r.drawRule(element.X, element.Y, r.width-element.X-16)
		case labelformat.ElementQRCode:
			if element.Content == "" {
				continue
			}
			code, err := raster.QRCode(element.Content, 32*element.FontSize)
			if err != nil {
				return nil, fmt.Errorf("failed to render qr element: %w", err)
			}
			r.ctx.DrawImage(code, element.X, element.Y)
		case labelformat.ElementIcon:
			if img != nil {
				r.drawBitmap(img)
			}
		default:
			r.drawText(element.Content, element.X, element.Y, element.FontSize, element.Bold)
		}
	}

	return r.ctx.Image(), nil
}

// RenderShipping draws a shipping label with the same layout the printer
// produces: the title needs tall stock, phone lines need medium stock,
// and the footer only appears when room remains.
func (r *Renderer) RenderShipping(cfg labelformat.LabelConfig, label labelformat.ShippingLabel, logo *raster.Processed) (image.Image, error) {
	if !label.ReadyToPrint() {
		return nil, fmt.Errorf("failed to render label %s: not ready to print", label.ID)
	}

	if logo != nil {
		r.drawBitmap(logo)
	}

	y := 16
	floor := r.height - 16
	left := 16

	line := func(content string, font int, bold bool) {
		lh := 16 + font*8
		if y+lh > floor {
			return
		}
		r.drawText(content, left, y, font, bold)
		y += lh
	}
	rule := func() {
		if y+2 > floor {
			return
		}
		r.drawRule(left, y, r.width-2*left)
		y += 2 + 8
	}

	if cfg.HeightMm >= tspl.TitleMinHeightMm {
		if code, err := raster.QRCode(label.ID, 96); err == nil {
			r.ctx.DrawImage(code, r.width-left-96, 16)
		}
		line("SHIPPING LABEL", 4, true)
		rule()
	}

	line("TO:", 3, true)
	line(label.To.Name, 4, true)
	line(label.To.Address, 3, false)
	if cfg.HeightMm >= tspl.PhoneMinHeightMm {
		line(label.To.Phone1, 3, false)
		if label.To.Phone2 != "" {
			line(label.To.Phone2, 3, false)
		}
	}
	rule()

	line(fmt.Sprintf("FROM: %s", label.From.Name), 2, true)
	line(label.From.Address, 2, false)
	if cfg.HeightMm >= tspl.PhoneMinHeightMm {
		line(label.From.Phone1, 2, false)
	}

	if label.CODEnabled {
		line(fmt.Sprintf("COD: %.2f", label.CODAmount), 3, true)
	}

	if label.TrackingNumber != "" && y+64 <= floor {
		code, err := raster.Barcode128(label.TrackingNumber, r.width-2*left, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to render tracking barcode: %w", err)
		}
		r.ctx.DrawImage(code, left, y)
		y += 64 + 8
	}

	if floor-y > 2*(16+8) {
		footer := fmt.Sprintf("%s  %s", label.CreatedAt.Format("2006-01-02 15:04"), label.ID)
		line(footer, 1, false)
	}

	return r.ctx.Image(), nil
}

// PNG encodes the rendered image
func PNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// drawText draws one line at the dot position, approximating printer
// font cells with a proportional face
func (r *Renderer) drawText(content string, x, y, font int, bold bool) {
	size := float64(16 + font*8)

	loaded := false
	for _, path := range systemFonts(bold) {
		if _, err := os.Stat(path); err == nil {
			if err := r.ctx.LoadFontFace(path, size*0.75); err == nil {
				loaded = true
				break
			}
		}
	}

	r.ctx.DrawString(content, float64(x), float64(y)+size*0.75)
	if bold && !loaded {
		// Overstrike like the printer when no bold face is available
		r.ctx.DrawString(content, float64(x)+1, float64(y)+size*0.75)
	}
}

// drawRule draws a horizontal separator bar
func (r *Renderer) drawRule(x, y, width int) {
	r.ctx.DrawRectangle(float64(x), float64(y), float64(width), 2)
	r.ctx.Fill()
}

// drawBitmap unpacks a processed image back to pixels at its offsets
func (r *Renderer) drawBitmap(p *raster.Processed) {
	img := raster.Unpack(p)
	r.ctx.DrawImage(img, p.X, p.Y)
}

func systemFonts(bold bool) []string {
	if bold {
		return []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
			"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
			"/System/Library/Fonts/Supplemental/Arial Bold.ttf",
			"C:\\Windows\\Fonts\\arialbd.ttf",
		}
	}
	return []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
		"/System/Library/Fonts/Helvetica.ttc",
		"/System/Library/Fonts/Supplemental/Arial.ttf",
		"C:\\Windows\\Fonts\\arial.ttf",
	}
}
