package command

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/thelabel/label-engine/internal/printer"
	"github.com/thelabel/label-engine/internal/registry"
)

type stubLink struct{ connected bool }

func (l *stubLink) Write(data []byte) (int, error) { return len(data), nil }
func (l *stubLink) Connected() bool                { return l.connected }
func (l *stubLink) Close() error                   { l.connected = false; return nil }

type stubTransport struct {
	devices []printer.Device
	link    *stubLink
}

func (t *stubTransport) Scan(ctx context.Context, includeKnown bool) ([]printer.Device, error) {
	return t.devices, nil
}

func (t *stubTransport) Connect(ctx context.Context, address string) (printer.Link, error) {
	return t.link, nil
}

func newTestExecutor(t *testing.T, transport *stubTransport) *Executor {
	t.Helper()

	reg, err := registry.New(filepath.Join(t.TempDir(), "devices.json"))
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}

	manager := printer.NewManager(transport, reg)
	manager.SettleDelay = time.Millisecond
	batch := printer.NewBatch(manager)
	batch.Delay = time.Millisecond

	return NewExecutor(manager, batch, reg)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"status", []string{"status"}},
		{"connect AA:BB:CC:DD:EE:FF", []string{"connect", "AA:BB:CC:DD:EE:FF"}},
		{`device rename AA:BB "Front Desk"`, []string{"device", "rename", "AA:BB", "Front Desk"}},
		{"  status  ", []string{"status"}},
		{"", nil},
	}

	for _, tt := range tests {
		got := parseCommand(tt.input)
		if len(got) != len(tt.expected) {
			t.Errorf("parseCommand(%q) = %v, want %v", tt.input, got, tt.expected)
			continue
		}
		for i := range got {
			if got[i] != tt.expected[i] {
				t.Errorf("parseCommand(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.expected[i])
			}
		}
	}
}

func TestExecute_EmptyCommand(t *testing.T) {
	e := newTestExecutor(t, &stubTransport{})

	result := e.Execute("")
	if result.Success {
		t.Error("Expected failure for empty command")
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	e := newTestExecutor(t, &stubTransport{})

	result := e.Execute("reboot")
	if result.Success {
		t.Error("Expected failure for unknown command")
	}
	if !strings.Contains(result.Error, "unknown command") {
		t.Errorf("Expected unknown command error, got %q", result.Error)
	}
}

func TestExecute_Status(t *testing.T) {
	e := newTestExecutor(t, &stubTransport{})

	result := e.Execute("status")
	if !result.Success {
		t.Fatalf("status failed: %s", result.Error)
	}
	if result.Data["connected"] != false {
		t.Error("Expected connected = false")
	}
	if result.Data["state"] != "disconnected" {
		t.Errorf("Expected state disconnected, got %v", result.Data["state"])
	}
}

func TestExecute_Devices(t *testing.T) {
	transport := &stubTransport{
		devices: []printer.Device{
			{Name: "P21", Address: "AA:BB:CC:DD:EE:FF", Kind: "bluetooth"},
		},
	}
	e := newTestExecutor(t, transport)

	result := e.Execute("devices")
	if !result.Success {
		t.Fatalf("devices failed: %s", result.Error)
	}

	list, ok := result.Data["devices"].([]map[string]interface{})
	if !ok {
		t.Fatalf("Expected device list, got %T", result.Data["devices"])
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 device, got %d", len(list))
	}
	if list[0]["address"] != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("Unexpected device: %v", list[0])
	}
}

func TestExecute_ConnectAndDisconnect(t *testing.T) {
	transport := &stubTransport{link: &stubLink{connected: true}}
	e := newTestExecutor(t, transport)

	result := e.Execute("connect AA:BB:CC:DD:EE:FF")
	if !result.Success {
		t.Fatalf("connect failed: %s", result.Error)
	}

	status := e.Execute("status")
	if status.Data["connected"] != true {
		t.Error("Expected connected status after connect")
	}

	result = e.Execute("disconnect")
	if !result.Success {
		t.Fatalf("disconnect failed: %s", result.Error)
	}

	status = e.Execute("status")
	if status.Data["connected"] != false {
		t.Error("Expected disconnected status after disconnect")
	}
}

func TestExecute_VerifyNotConnected(t *testing.T) {
	e := newTestExecutor(t, &stubTransport{})

	result := e.Execute("verify")
	if result.Success {
		t.Error("Expected verify to fail while disconnected")
	}
}

func TestExecute_DeviceRename(t *testing.T) {
	transport := &stubTransport{link: &stubLink{connected: true}}
	e := newTestExecutor(t, transport)

	// Connecting remembers the device
	if result := e.Execute("connect AA:BB:CC:DD:EE:FF"); !result.Success {
		t.Fatalf("connect failed: %s", result.Error)
	}

	result := e.Execute(`device rename AA:BB:CC:DD:EE:FF "Front Desk"`)
	if !result.Success {
		t.Fatalf("rename failed: %s", result.Error)
	}

	result = e.Execute("device list")
	if !result.Success {
		t.Fatalf("device list failed: %s", result.Error)
	}
	list := result.Data["devices"].([]map[string]interface{})
	if len(list) != 1 || list[0]["name"] != "Front Desk" {
		t.Errorf("Expected renamed device, got %v", list)
	}
}

func TestExecute_DeviceRenameUnknown(t *testing.T) {
	e := newTestExecutor(t, &stubTransport{})

	result := e.Execute("device rename FF:FF:FF:FF:FF:FF x")
	if result.Success {
		t.Error("Expected rename of unknown device to fail")
	}
}

func TestExecute_PrintMissingSize(t *testing.T) {
	e := newTestExecutor(t, &stubTransport{})

	result := e.Execute("print shipping /tmp/label.json")
	if result.Success {
		t.Error("Expected failure without --size")
	}
	if !strings.Contains(result.Error, "--size") {
		t.Errorf("Expected size usage error, got %q", result.Error)
	}
}

func TestConfigFromFlags(t *testing.T) {
	cfg, result := configFromFlags(map[string]string{"size": "80x100", "spacing": "3"})
	if result != nil {
		t.Fatalf("Unexpected error: %s", result.Error)
	}
	if cfg.WidthMm != 80 || cfg.HeightMm != 100 || cfg.SpacingMm != 3 {
		t.Errorf("Unexpected config: %+v", cfg)
	}

	if _, result := configFromFlags(map[string]string{"size": "80"}); result == nil {
		t.Error("Expected error for malformed size")
	}
	if _, result := configFromFlags(map[string]string{"size": "0x100"}); result == nil {
		t.Error("Expected error for zero width")
	}
}
