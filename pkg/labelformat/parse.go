package labelformat

import (
	"encoding/json"
	"fmt"
	"os"
)

// ParseDesign parses a .label design file from a byte slice
func ParseDesign(data []byte) (*CustomLabelDesign, error) {
	var design CustomLabelDesign
	if err := json.Unmarshal(data, &design); err != nil {
		return nil, fmt.Errorf("failed to parse design: %w", err)
	}

	if err := design.Validate(); err != nil {
		return nil, err
	}

	return &design, nil
}

// ParseDesignFile parses a .label design file from disk
func ParseDesignFile(path string) (*CustomLabelDesign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read design file: %w", err)
	}

	return ParseDesign(data)
}

// ParseShippingLabel parses a shipping label from a byte slice
func ParseShippingLabel(data []byte) (*ShippingLabel, error) {
	var label ShippingLabel
	if err := json.Unmarshal(data, &label); err != nil {
		return nil, fmt.Errorf("failed to parse shipping label: %w", err)
	}

	if err := label.Validate(); err != nil {
		return nil, err
	}

	return &label, nil
}

// ParseShippingLabelFile parses a shipping label file from disk
func ParseShippingLabelFile(path string) (*ShippingLabel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shipping label file: %w", err)
	}

	return ParseShippingLabel(data)
}

// ToJSON converts a design to indented JSON bytes
func (d *CustomLabelDesign) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// SaveToFile saves a design to a file
func (d *CustomLabelDesign) SaveToFile(path string) error {
	data, err := d.ToJSON()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ToJSON converts a shipping label to indented JSON bytes
func (l *ShippingLabel) ToJSON() ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// SaveToFile saves a shipping label to a file
func (l *ShippingLabel) SaveToFile(path string) error {
	data, err := l.ToJSON()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
