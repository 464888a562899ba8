package labelformat

import (
	"fmt"

	"github.com/thelabel/label-engine/internal/geom"
)

// Validate checks a label stock configuration
func (c LabelConfig) Validate() error {
	if c.WidthMm <= 0 {
		return fmt.Errorf("label width must be positive, got %v mm", c.WidthMm)
	}
	if c.HeightMm <= 0 {
		return fmt.Errorf("label height must be positive, got %v mm", c.HeightMm)
	}
	if c.SpacingMm < 0 {
		return fmt.Errorf("label spacing must not be negative, got %v mm", c.SpacingMm)
	}
	return nil
}

// Validate checks a shipping label before it is handed to the encoder
func (l ShippingLabel) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("label id is required")
	}
	if !l.To.Complete() {
		return fmt.Errorf("recipient contact is incomplete (name, address and phone1 are required)")
	}
	if !l.From.Complete() {
		return fmt.Errorf("sender contact is incomplete (name, address and phone1 are required)")
	}
	if l.CODEnabled && l.CODAmount <= 0 {
		return fmt.Errorf("cod amount must be positive when cod is enabled, got %v", l.CODAmount)
	}
	return nil
}

// Validate checks a custom design: valid stock dimensions, unique element
// IDs, known element kinds, font sizes in range, and every element placed
// inside the label bounds
func (d *CustomLabelDesign) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("design name is required")
	}
	if err := d.Config.Validate(); err != nil {
		return fmt.Errorf("design config: %w", err)
	}

	seen := make(map[string]bool, len(d.Elements))
	for i, e := range d.Elements {
		if e.ID == "" {
			return fmt.Errorf("element[%d]: id is required", i)
		}
		if seen[e.ID] {
			return fmt.Errorf("element[%d]: duplicate element id '%s'", i, e.ID)
		}
		seen[e.ID] = true

		if !KnownElementType(e.Type) {
			return fmt.Errorf("element[%d] '%s': unknown element type '%s'", i, e.ID, e.Type)
		}
		if e.FontSize < MinFontSize || e.FontSize > MaxFontSize {
			return fmt.Errorf("element[%d] '%s': font size %d outside %d-%d",
				i, e.ID, e.FontSize, MinFontSize, MaxFontSize)
		}
		if !geom.InBounds(e.X, e.Y, d.Config.WidthMm, d.Config.HeightMm) {
			return fmt.Errorf("element[%d] '%s': position (%d,%d) outside %vx%v mm label",
				i, e.ID, e.X, e.Y, d.Config.WidthMm, d.Config.HeightMm)
		}
	}

	return nil
}
