package labelformat

import (
	"testing"
)

func validDesign() *CustomLabelDesign {
	design := NewDesign("warehouse default", LabelConfig{WidthMm: 80, HeightMm: 50, SpacingMm: 3})
	design.AddElement(NewElement(ElementToHeader, 16, 16))
	design.AddElement(NewElement(ElementToName, 16, 64))
	return design
}

func TestValidate_ValidDesign(t *testing.T) {
	if err := validDesign().Validate(); err != nil {
		t.Errorf("Expected valid design, got error: %v", err)
	}
}

func TestValidate_ConfigDimensions(t *testing.T) {
	cases := []LabelConfig{
		{WidthMm: 0, HeightMm: 50},
		{WidthMm: 80, HeightMm: 0},
		{WidthMm: -1, HeightMm: 50},
		{WidthMm: 80, HeightMm: 50, SpacingMm: -2},
	}
	for i, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: expected invalid config %+v", i, cfg)
		}
	}

	ok := LabelConfig{WidthMm: 80, HeightMm: 50, SpacingMm: 0}
	if err := ok.Validate(); err != nil {
		t.Errorf("Expected zero spacing to be valid, got %v", err)
	}
}

func TestValidate_ElementOutOfBounds(t *testing.T) {
	design := validDesign()
	el := NewElement(ElementText, 0, 0)
	// 80mm at 8 dots/mm is 640 dots; 700 is past the right edge
	el.X = 700
	design.AddElement(el)

	if err := design.Validate(); err == nil {
		t.Error("Expected out-of-bounds element to fail validation")
	}
}

func TestValidate_DuplicateElementIDs(t *testing.T) {
	design := validDesign()
	dup := design.Elements[0]
	design.Elements = append(design.Elements, dup)

	if err := design.Validate(); err == nil {
		t.Error("Expected duplicate element ids to fail validation")
	}
}

func TestValidate_UnknownElementType(t *testing.T) {
	design := validDesign()
	el := NewElement(ElementText, 0, 0)
	el.Type = "sticker"
	design.AddElement(el)

	if err := design.Validate(); err == nil {
		t.Error("Expected unknown element type to fail validation")
	}
}

func TestValidate_FontSizeRange(t *testing.T) {
	design := validDesign()
	design.Elements[0].FontSize = 9

	if err := design.Validate(); err == nil {
		t.Error("Expected font size 9 to fail validation")
	}
}

func TestParseDesign_RoundTrip(t *testing.T) {
	design := validDesign()

	data, err := design.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}

	parsed, err := ParseDesign(data)
	if err != nil {
		t.Fatalf("ParseDesign failed: %v", err)
	}

	if parsed.Name != design.Name {
		t.Errorf("Expected name '%s', got '%s'", design.Name, parsed.Name)
	}
	if len(parsed.Elements) != len(design.Elements) {
		t.Errorf("Expected %d elements, got %d", len(design.Elements), len(parsed.Elements))
	}
	if parsed.Config.WidthMm != 80 || parsed.Config.HeightMm != 50 {
		t.Errorf("Unexpected config after round trip: %+v", parsed.Config)
	}
}

func TestParseDesign_Invalid(t *testing.T) {
	if _, err := ParseDesign([]byte("{not json")); err == nil {
		t.Error("Expected error for malformed JSON")
	}

	// Structurally valid JSON failing model validation
	if _, err := ParseDesign([]byte(`{"id":"x","name":"","config":{"width_mm":80,"height_mm":50}}`)); err == nil {
		t.Error("Expected error for design without a name")
	}
}

func TestParseShippingLabel(t *testing.T) {
	label := NewShippingLabel(
		ContactInfo{Name: "Warehouse", Address: "1 Dock Rd", Phone1: "555-0100"},
		ContactInfo{Name: "Dana Reyes", Address: "12 Harbor St", Phone1: "555-0101"},
	)

	data, err := label.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}

	parsed, err := ParseShippingLabel(data)
	if err != nil {
		t.Fatalf("ParseShippingLabel failed: %v", err)
	}
	if parsed.To.Name != "Dana Reyes" {
		t.Errorf("Expected recipient to survive round trip, got '%s'", parsed.To.Name)
	}

	// Incomplete labels are rejected at parse time
	label.To.Address = ""
	data, _ = label.ToJSON()
	if _, err := ParseShippingLabel(data); err == nil {
		t.Error("Expected incomplete label to fail parsing")
	}
}
