package labelformat

import (
	"time"

	"github.com/google/uuid"
)

// Font size bounds of the target print head
const (
	MinFontSize = 1
	MaxFontSize = 8
)

// elementDefault is the default styling for one element kind
type elementDefault struct {
	Content  string
	FontSize int
	Bold     bool
}

// elementDefaults is the static styling table for the closed element set
var elementDefaults = map[LabelElementType]elementDefault{
	ElementToHeader:    {Content: "TO:", FontSize: 3, Bold: true},
	ElementFromHeader:  {Content: "FROM:", FontSize: 2, Bold: true},
	ElementToName:      {Content: "Recipient Name", FontSize: 4, Bold: true},
	ElementFromName:    {Content: "Sender Name", FontSize: 2, Bold: false},
	ElementToAddress:   {Content: "Recipient Address", FontSize: 3, Bold: false},
	ElementFromAddress: {Content: "Sender Address", FontSize: 2, Bold: false},
	ElementToPhone:     {Content: "Recipient Phone", FontSize: 3, Bold: false},
	ElementFromPhone:   {Content: "Sender Phone", FontSize: 2, Bold: false},
	ElementLabelTitle:  {Content: "SHIPPING LABEL", FontSize: 4, Bold: true},
	ElementText:        {Content: "Text", FontSize: 3, Bold: false},
	ElementSeparator:   {Content: "", FontSize: 1, Bold: false},
	ElementIcon:        {Content: "", FontSize: 1, Bold: false},

	// For QR elements the font size doubles as a module scale: the
	// rendered code is 32 dots per size step
	ElementQRCode: {Content: "", FontSize: 4, Bold: false},
}

// KnownElementType reports whether t belongs to the closed element set
func KnownElementType(t LabelElementType) bool {
	_, ok := elementDefaults[t]
	return ok
}

// NewElement creates an element of the given kind with its default styling
// and a fresh unique ID
func NewElement(t LabelElementType, x, y int) LabelElement {
	def := elementDefaults[t]
	return LabelElement{
		ID:       uuid.New().String(),
		Type:     t,
		Content:  def.Content,
		X:        x,
		Y:        y,
		FontSize: def.FontSize,
		Bold:     def.Bold,
		Visible:  true,
	}
}

// NewDesign creates an empty design bound to the given stock dimensions
func NewDesign(name string, config LabelConfig) *CustomLabelDesign {
	now := time.Now()
	return &CustomLabelDesign{
		ID:        uuid.New().String(),
		Name:      name,
		Config:    config,
		Elements:  []LabelElement{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewShippingLabel creates a shipping label with a fresh ID and timestamp
func NewShippingLabel(from, to ContactInfo) *ShippingLabel {
	return &ShippingLabel{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		From:      from,
		To:        to,
	}
}

// ClampFontSize forces a font size into the device's valid 1-8 range
func ClampFontSize(size int) int {
	if size < MinFontSize {
		return MinFontSize
	}
	if size > MaxFontSize {
		return MaxFontSize
	}
	return size
}
