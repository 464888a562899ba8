package labelformat

import (
	"fmt"
	"time"
)

// ElementField identifies one editable field of a LabelElement. Field
// updates are routed through this enum rather than string tags so an
// unknown field is a compile-time impossibility at call sites.
type ElementField int

const (
	FieldContent ElementField = iota
	FieldX
	FieldY
	FieldFontSize
	FieldBold
	FieldVisible
)

// FieldUpdate carries the new value for exactly one element field
type FieldUpdate struct {
	Field  ElementField
	Text   string // FieldContent
	Number int    // FieldX, FieldY, FieldFontSize
	Flag   bool   // FieldBold, FieldVisible
}

// SetContent returns an update for the element's content
func SetContent(text string) FieldUpdate { return FieldUpdate{Field: FieldContent, Text: text} }

// SetX returns an update for the element's x position in dots
func SetX(x int) FieldUpdate { return FieldUpdate{Field: FieldX, Number: x} }

// SetY returns an update for the element's y position in dots
func SetY(y int) FieldUpdate { return FieldUpdate{Field: FieldY, Number: y} }

// SetFontSize returns an update for the element's font size. The value is
// clamped into the 1-8 device range when applied.
func SetFontSize(size int) FieldUpdate { return FieldUpdate{Field: FieldFontSize, Number: size} }

// SetBold returns an update for the element's bold flag
func SetBold(bold bool) FieldUpdate { return FieldUpdate{Field: FieldBold, Flag: bold} }

// SetVisible returns an update for the element's visibility
func SetVisible(visible bool) FieldUpdate { return FieldUpdate{Field: FieldVisible, Flag: visible} }

// UpdateElement applies a field update to the element with the given ID and
// bumps the design's UpdatedAt timestamp
func (d *CustomLabelDesign) UpdateElement(id string, update FieldUpdate) error {
	for i := range d.Elements {
		if d.Elements[i].ID != id {
			continue
		}

		e := &d.Elements[i]
		switch update.Field {
		case FieldContent:
			e.Content = update.Text
		case FieldX:
			e.X = update.Number
		case FieldY:
			e.Y = update.Number
		case FieldFontSize:
			e.FontSize = ClampFontSize(update.Number)
		case FieldBold:
			e.Bold = update.Flag
		case FieldVisible:
			e.Visible = update.Flag
		default:
			return fmt.Errorf("unknown element field: %d", update.Field)
		}

		d.UpdatedAt = time.Now()
		return nil
	}

	return fmt.Errorf("element not found: %s", id)
}

// AddElement appends an element to the design, rejecting duplicate IDs
func (d *CustomLabelDesign) AddElement(e LabelElement) error {
	for _, existing := range d.Elements {
		if existing.ID == e.ID {
			return fmt.Errorf("duplicate element id: %s", e.ID)
		}
	}

	e.FontSize = ClampFontSize(e.FontSize)
	d.Elements = append(d.Elements, e)
	d.UpdatedAt = time.Now()
	return nil
}

// RemoveElement deletes the element with the given ID, reporting whether
// anything was removed
func (d *CustomLabelDesign) RemoveElement(id string) bool {
	for i := range d.Elements {
		if d.Elements[i].ID == id {
			d.Elements = append(d.Elements[:i], d.Elements[i+1:]...)
			d.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}
