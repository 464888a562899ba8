// Package labelformat defines the types for the .label design and shipment formats
package labelformat

import (
	"time"
)

// LabelConfig describes the physical label stock loaded in the printer
type LabelConfig struct {
	Name      string  `json:"name,omitempty"`
	WidthMm   float64 `json:"width_mm"`
	HeightMm  float64 `json:"height_mm"`
	SpacingMm float64 `json:"spacing_mm"` // Gap between consecutive labels
}

// ContactInfo is one postal/phone identity on a shipping label
type ContactInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone1  string `json:"phone1"`
	Phone2  string `json:"phone2,omitempty"`
}

// Complete reports whether the contact carries enough data to print
func (c ContactInfo) Complete() bool {
	return c.Name != "" && c.Address != "" && c.Phone1 != ""
}

// ShippingLabel is one printable shipment record
type ShippingLabel struct {
	ID             string      `json:"id"`
	CreatedAt      time.Time   `json:"created_at"`
	From           ContactInfo `json:"from"`
	To             ContactInfo `json:"to"`
	CODEnabled     bool        `json:"cod_enabled,omitempty"`
	CODAmount      float64     `json:"cod_amount,omitempty"`
	IncludeLogo    bool        `json:"include_logo,omitempty"`
	TrackingNumber string      `json:"tracking_number,omitempty"`
}

// ReadyToPrint reports whether both contact blocks are complete and the
// COD amount is consistent with the COD flag
func (l ShippingLabel) ReadyToPrint() bool {
	if !l.To.Complete() || !l.From.Complete() {
		return false
	}
	if l.CODEnabled && l.CODAmount <= 0 {
		return false
	}
	return true
}

// LabelElementType is the closed set of placeable element kinds
type LabelElementType string

const (
	ElementToHeader    LabelElementType = "to_header"
	ElementFromHeader  LabelElementType = "from_header"
	ElementToName      LabelElementType = "to_name"
	ElementFromName    LabelElementType = "from_name"
	ElementToAddress   LabelElementType = "to_address"
	ElementFromAddress LabelElementType = "from_address"
	ElementToPhone     LabelElementType = "to_phone"
	ElementFromPhone   LabelElementType = "from_phone"
	ElementLabelTitle  LabelElementType = "label_title"
	ElementText        LabelElementType = "text"
	ElementSeparator   LabelElementType = "separator"
	ElementIcon        LabelElementType = "icon"
	ElementQRCode      LabelElementType = "qrcode"
)

// LabelElement is one positioned, styled field on a custom layout.
// X and Y are device dots within the owning design's label dimensions.
type LabelElement struct {
	ID       string           `json:"id"`
	Type     LabelElementType `json:"type"`
	Content  string           `json:"content,omitempty"`
	X        int              `json:"x"`
	Y        int              `json:"y"`
	FontSize int              `json:"font_size"`
	Bold     bool             `json:"bold,omitempty"`
	Visible  bool             `json:"visible"`
}

// CustomLabelDesign is a named, reusable arrangement of elements bound to
// one LabelConfig's dimensions
type CustomLabelDesign struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Config      LabelConfig    `json:"config"`
	Elements    []LabelElement `json:"elements"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
