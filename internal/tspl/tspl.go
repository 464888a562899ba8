// Package tspl builds TSPL command streams for the label printer
package tspl

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEncode marks caller errors caught while building a command stream:
// positions outside the label, font indexes outside the device range,
// payload sizes that disagree with the declared bitmap geometry.
var ErrEncode = errors.New("encode error")

// Bitmap draw modes
const (
	BitmapModeOverwrite = 0
	BitmapModeOr        = 1
	BitmapModeXor       = 2
)

// Command builds a TSPL command stream
type Command struct {
	buf strings.Builder
}

// New creates an empty command stream
func New() *Command {
	return &Command{}
}

// Size sets the physical label dimensions
func (c *Command) Size(widthMm, heightMm float64) *Command {
	fmt.Fprintf(&c.buf, "SIZE %.1f mm,%.1f mm\r\n", widthMm, heightMm)
	return c
}

// Gap sets the gap between labels
func (c *Command) Gap(gapMm, offsetMm float64) *Command {
	fmt.Fprintf(&c.buf, "GAP %.1f mm,%.1f mm\r\n", gapMm, offsetMm)
	return c
}

// Direction sets the print direction (0 or 1) and mirror flag
func (c *Command) Direction(dir, mirror int) *Command {
	fmt.Fprintf(&c.buf, "DIRECTION %d,%d\r\n", dir, mirror)
	return c
}

// Reference sets the coordinate origin in dots
func (c *Command) Reference(x, y int) *Command {
	fmt.Fprintf(&c.buf, "REFERENCE %d,%d\r\n", x, y)
	return c
}

// Offset sets the label feed offset
func (c *Command) Offset(offsetMm float64) *Command {
	fmt.Fprintf(&c.buf, "OFFSET %.1f mm\r\n", offsetMm)
	return c
}

// Density sets print darkness (0-15)
func (c *Command) Density(level int) *Command {
	if level < 0 {
		level = 0
	}
	if level > 15 {
		level = 15
	}
	fmt.Fprintf(&c.buf, "DENSITY %d\r\n", level)
	return c
}

// SetPeel switches peel-off mode
func (c *Command) SetPeel(on bool) *Command {
	fmt.Fprintf(&c.buf, "SET PEEL %s\r\n", onOff(on))
	return c
}

// SetCutter switches the cutter; off cuts never, on cuts after every label
func (c *Command) SetCutter(on bool) *Command {
	fmt.Fprintf(&c.buf, "SET CUTTER %s\r\n", onOff(on))
	return c
}

// SetTear switches tear-off positioning
func (c *Command) SetTear(on bool) *Command {
	fmt.Fprintf(&c.buf, "SET TEAR %s\r\n", onOff(on))
	return c
}

// CLS clears the image buffer
func (c *Command) CLS() *Command {
	c.buf.WriteString("CLS\r\n")
	return c
}

// Text places a line of text. Position is in device dots, font is the
// device's integer font index. An out-of-range font is a caller error
// here, not something to clamp: clamping belongs to the data model.
// Bold is rendered as a one-dot overstrike, which is how this firmware
// family fakes a heavier face.
func (c *Command) Text(x, y, font int, bold bool, content string) error {
	if x < 0 || y < 0 {
		return fmt.Errorf("%w: text position (%d,%d) is negative", ErrEncode, x, y)
	}
	if font < 1 || font > 8 {
		return fmt.Errorf("%w: font index %d outside 1-8", ErrEncode, font)
	}

	quoted := strings.ReplaceAll(content, `"`, `'`)
	fmt.Fprintf(&c.buf, "TEXT %d,%d,\"%d\",0,1,1,\"%s\"\r\n", x, y, font, quoted)
	if bold {
		fmt.Fprintf(&c.buf, "TEXT %d,%d,\"%d\",0,1,1,\"%s\"\r\n", x+1, y, font, quoted)
	}

	return nil
}

// Bar draws a filled rectangle, used for separator rules
func (c *Command) Bar(x, y, width, height int) *Command {
	fmt.Fprintf(&c.buf, "BAR %d,%d,%d,%d\r\n", x, y, width, height)
	return c
}

// Bitmap places a packed 1-bit image. The payload length must match the
// declared geometry exactly; the firmware reads widthBytes*height raw
// bytes after the header.
func (c *Command) Bitmap(x, y, widthBytes, height, mode int, data []byte) error {
	if x < 0 || y < 0 {
		return fmt.Errorf("%w: bitmap position (%d,%d) is negative", ErrEncode, x, y)
	}
	if len(data) != widthBytes*height {
		return fmt.Errorf("%w: bitmap payload is %d bytes, geometry %dx%d needs %d",
			ErrEncode, len(data), widthBytes, height, widthBytes*height)
	}

	fmt.Fprintf(&c.buf, "BITMAP %d,%d,%d,%d,%d,", x, y, widthBytes, height, mode)
	c.buf.Write(data)
	c.buf.WriteString("\r\n")
	return nil
}

// Print prints the assembled label
func (c *Command) Print(copies int) *Command {
	fmt.Fprintf(&c.buf, "PRINT %d\r\n", copies)
	return c
}

// Bytes returns the raw stream to send to the printer
func (c *Command) Bytes() []byte {
	return []byte(c.buf.String())
}

// String returns the stream as a string for debugging
func (c *Command) String() string {
	return c.buf.String()
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
