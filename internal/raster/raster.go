// Package raster converts arbitrary images into the printer's packed 1-bit format
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/thelabel/label-engine/internal/geom"
	"github.com/thelabel/label-engine/pkg/labelformat"
)

// Pipeline constants tuned for this thermal head. The contrast boost and
// threshold are carried over as-is; override via Options if a different
// head needs other values.
const (
	DefaultContrastBoost  = 50.0    // percentage handed to imaging.AdjustContrast
	DefaultThreshold      = 128     // luminance midpoint of the 0-255 range
	DefaultMarginMm       = 5.0     // kept clear on each side of the target box
	DefaultMaxSourceBytes = 8 << 20 // decode guard against memory blowup
)

// Options control the raster pipeline
type Options struct {
	ContrastBoost  float64
	Threshold      uint8
	MarginMm       float64
	MaxSourceBytes int
	AllowUpscale   bool // scale small images up to fill the box
}

// DefaultOptions returns the pipeline defaults
func DefaultOptions() Options {
	return Options{
		ContrastBoost:  DefaultContrastBoost,
		Threshold:      DefaultThreshold,
		MarginMm:       DefaultMarginMm,
		MaxSourceBytes: DefaultMaxSourceBytes,
	}
}

// Processed is a bit-packed monochrome image ready for the BITMAP command.
// Bit 0 is black ink, bit 1 is white, MSB first, rows padded to whole bytes.
type Processed struct {
	Bitmap []byte
	Width  int // device dots
	Height int // device dots
	X      int // centering offset on the label, device dots
	Y      int
}

// WidthBytes returns the packed row width
func (p *Processed) WidthBytes() int {
	return (p.Width + 7) / 8
}

// DecodeBytes decodes raw image bytes, enforcing the source size guard
func DecodeBytes(data []byte, opts Options) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	if opts.MaxSourceBytes > 0 && len(data) > opts.MaxSourceBytes {
		return nil, fmt.Errorf("image too large: %d bytes (limit %d)", len(data), opts.MaxSourceBytes)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return img, nil
}

// Process runs the full pipeline against a label stock configuration:
// fit-resize into the label minus margins, grayscale, contrast boost,
// hard threshold, bit-pack, and compute centering offsets.
func Process(img image.Image, cfg labelformat.LabelConfig, opts Options) (*Processed, error) {
	maxW := geom.MmToDots(cfg.WidthMm - 2*opts.MarginMm)
	maxH := geom.MmToDots(cfg.HeightMm - 2*opts.MarginMm)
	if maxW <= 0 || maxH <= 0 {
		return nil, fmt.Errorf("label %vx%v mm leaves no printable area after %v mm margins",
			cfg.WidthMm, cfg.HeightMm, opts.MarginMm)
	}

	fitted := Fit(img, maxW, maxH, opts.AllowUpscale)

	gray := imaging.Grayscale(fitted)
	boosted := imaging.AdjustContrast(gray, opts.ContrastBoost)

	width := boosted.Bounds().Dx()
	height := boosted.Bounds().Dy()
	bitmap := packBits(boosted, opts.Threshold)

	xPos := (geom.MmToDots(cfg.WidthMm) - width) / 2
	yPos := (geom.MmToDots(cfg.HeightMm) - height) / 2
	if xPos < 0 {
		xPos = 0
	}
	if yPos < 0 {
		yPos = 0
	}

	return &Processed{
		Bitmap: bitmap,
		Width:  width,
		Height: height,
		X:      xPos,
		Y:      yPos,
	}, nil
}

// ProcessBytes decodes raw image bytes and runs Process on the result
func ProcessBytes(data []byte, cfg labelformat.LabelConfig, opts Options) (*Processed, error) {
	img, err := DecodeBytes(data, opts)
	if err != nil {
		return nil, err
	}

	return Process(img, cfg, opts)
}

// Fit scales an image to fit inside maxW x maxH preserving aspect ratio.
// Images already inside the box are returned untouched unless upscaling
// was requested.
func Fit(img image.Image, maxW, maxH int, allowUpscale bool) image.Image {
	srcW := img.Bounds().Dx()
	srcH := img.Bounds().Dy()
	if srcW <= 0 || srcH <= 0 {
		return img
	}

	if !allowUpscale && srcW <= maxW && srcH <= maxH {
		return img
	}

	scaleW := float64(maxW) / float64(srcW)
	scaleH := float64(maxH) / float64(srcH)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}

	newW := int(float64(srcW) * scale)
	newH := int(float64(srcH) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	return imaging.Resize(img, newW, newH, imaging.Lanczos)
}

// packBits binarizes and packs a grayscale image, one bit per pixel,
// MSB first, each row padded to a whole number of bytes. The firmware
// convention is inverted: 0 is black ink, 1 is white.
func packBits(img *image.NRGBA, threshold uint8) []byte {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	widthBytes := (width + 7) / 8

	bitmap := make([]byte, widthBytes*height)

	for y := 0; y < height; y++ {
		for x := 0; x < widthBytes*8; x++ {
			byteIdx := y*widthBytes + x/8
			bitIdx := 7 - (x % 8)

			// Row padding past the image edge stays white
			if x >= width {
				bitmap[byteIdx] |= 1 << bitIdx
				continue
			}

			// Grayscaled input: R carries the luminance
			lum := img.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y).R
			if lum >= threshold {
				bitmap[byteIdx] |= 1 << bitIdx
			}
		}
	}

	return bitmap
}

// PackAt bit-packs an already monochrome image at its native size with
// an explicit placement, skipping the fit and centering steps. Generated
// codes are born at device resolution and must not be rescaled.
func PackAt(img image.Image, x, y int, threshold uint8) *Processed {
	nrgba := imaging.Clone(img)
	return &Processed{
		Bitmap: packBits(nrgba, threshold),
		Width:  nrgba.Bounds().Dx(),
		Height: nrgba.Bounds().Dy(),
		X:      x,
		Y:      y,
	}
}

// Unpack expands a packed bitmap back into a black and white image.
// Used by previews and tests to check the packing round trip.
func Unpack(p *Processed) image.Image {
	img := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	widthBytes := p.WidthBytes()

	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			bit := (p.Bitmap[y*widthBytes+x/8] >> (7 - x%8)) & 1
			if bit == 0 {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	return img
}
