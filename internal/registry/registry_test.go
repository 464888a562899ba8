package registry

import (
	"path/filepath"
	"testing"
)

func tempRegistry(t *testing.T) *Registry {
	t.Helper()

	reg, err := New(filepath.Join(t.TempDir(), "devices.json"))
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}
	return reg
}

func TestRemember_StableID(t *testing.T) {
	reg := tempRegistry(t)

	id1 := reg.Remember("AA:BB:CC:DD:EE:FF", "bluetooth", "P21 Printer")
	if id1 == "" {
		t.Error("Expected non-empty device ID")
	}

	id2 := reg.Remember("AA:BB:CC:DD:EE:FF", "bluetooth", "Renamed")
	if id1 != id2 {
		t.Errorf("Expected same ID for same address: %s != %s", id1, id2)
	}
}

func TestRemember_DistinctKinds(t *testing.T) {
	reg := tempRegistry(t)

	btID := reg.Remember("192.168.1.50", "bluetooth", "")
	netID := reg.Remember("192.168.1.50", "network", "")
	if btID == netID {
		t.Error("Expected distinct IDs for distinct kinds")
	}
}

func TestSetAndGetDeviceName(t *testing.T) {
	reg := tempRegistry(t)

	reg.Remember("AA:BB:CC:DD:EE:FF", "bluetooth", "")

	if !reg.SetDeviceName("AA:BB:CC:DD:EE:FF", "Warehouse Printer") {
		t.Error("Expected successful name set")
	}
	if name := reg.DeviceName("AA:BB:CC:DD:EE:FF"); name != "Warehouse Printer" {
		t.Errorf("Expected 'Warehouse Printer', got '%s'", name)
	}

	if reg.SetDeviceName("unknown", "x") {
		t.Error("Expected name set on unknown address to fail")
	}
	if name := reg.DeviceName("unknown"); name != "" {
		t.Errorf("Expected empty name for unknown address, got '%s'", name)
	}
}

func TestForget(t *testing.T) {
	reg := tempRegistry(t)

	reg.Remember("AA:BB:CC:DD:EE:FF", "bluetooth", "P21")

	if !reg.Forget("AA:BB:CC:DD:EE:FF") {
		t.Error("Expected successful removal")
	}
	if reg.Forget("AA:BB:CC:DD:EE:FF") {
		t.Error("Expected second removal to report false")
	}
	if name := reg.DeviceName("AA:BB:CC:DD:EE:FF"); name != "" {
		t.Error("Expected no name after removal")
	}
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.json")

	reg1, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}
	id1 := reg1.Remember("AA:BB:CC:DD:EE:FF", "bluetooth", "")
	reg1.SetDeviceName("AA:BB:CC:DD:EE:FF", "Persistent Name")

	// New instance simulating an engine restart
	reg2, err := New(path)
	if err != nil {
		t.Fatalf("Failed to reload registry: %v", err)
	}

	id2 := reg2.Remember("AA:BB:CC:DD:EE:FF", "bluetooth", "")
	if id1 != id2 {
		t.Errorf("Expected same ID after reload: %s != %s", id1, id2)
	}
	if name := reg2.DeviceName("AA:BB:CC:DD:EE:FF"); name != "Persistent Name" {
		t.Errorf("Expected name to persist, got '%s'", name)
	}
}

func TestAll(t *testing.T) {
	reg := tempRegistry(t)

	reg.Remember("AA:BB:CC:DD:EE:FF", "bluetooth", "Printer 1")
	reg.Remember("192.168.1.50:9100", "network", "Printer 2")

	all := reg.All()
	if len(all) != 2 {
		t.Errorf("Expected 2 devices, got %d", len(all))
	}
}
