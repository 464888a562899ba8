package printer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tarm/serial"
)

// BluetoothTransport reaches printers over Bluetooth serial (RFCOMM).
// Discovery combines bound /dev/rfcomm* device nodes with the system's
// paired-device list; the address of a peer is its device path.
type BluetoothTransport struct {
	Baud int // defaults to 9600, the norm for thermal printers
}

// NewBluetoothTransport creates a Bluetooth serial transport
func NewBluetoothTransport() *BluetoothTransport {
	return &BluetoothTransport{Baud: 9600}
}

// Scan lists bound RFCOMM device nodes, and with includeKnown also the
// peers the system has paired but not bound yet
func (t *BluetoothTransport) Scan(ctx context.Context, includeKnown bool) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var devices []Device

	nodes, _ := filepath.Glob("/dev/rfcomm*")
	for _, node := range nodes {
		if _, err := os.Stat(node); err != nil {
			continue
		}
		devices = append(devices, Device{
			Name:    filepath.Base(node),
			Address: node,
			Kind:    "bluetooth",
		})
	}

	if includeKnown {
		paired, err := pairedDevices(ctx)
		if err == nil {
			devices = append(devices, paired...)
		}
	}

	return devices, nil
}

// pairedDevices asks bluetoothctl for the paired peer list
func pairedDevices(ctx context.Context) ([]Device, error) {
	out, err := exec.CommandContext(ctx, "bluetoothctl", "devices", "Paired").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list paired devices: %w", err)
	}

	var devices []Device
	for _, line := range strings.Split(string(out), "\n") {
		// Format: "Device XX:XX:XX:XX:XX:XX DeviceName"
		if !strings.HasPrefix(line, "Device ") {
			continue
		}
		parts := strings.SplitN(strings.TrimPrefix(line, "Device "), " ", 2)
		if len(parts) != 2 {
			continue
		}
		devices = append(devices, Device{
			Name:    parts[1],
			Address: parts[0],
			Kind:    "bluetooth",
		})
	}

	return devices, nil
}

// Connect opens the serial port behind an RFCOMM device node
func (t *BluetoothTransport) Connect(ctx context.Context, address string) (Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	baud := t.Baud
	if baud == 0 {
		baud = 9600
	}

	port, err := serial.OpenPort(&serial.Config{Name: address, Baud: baud})
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("failed to open serial port %s: %w", address, err)
	}

	return &serialLink{port: port, path: address, up: true}, nil
}

// serialLink is an open RFCOMM serial connection
type serialLink struct {
	port *serial.Port
	path string
	mu   sync.Mutex
	up   bool
}

// Write sends data to the printer, marking the link down on failure
func (l *serialLink) Write(data []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.port == nil || !l.up {
		return 0, ErrNotConnected
	}

	n, err := l.port.Write(data)
	if err != nil {
		l.up = false
		return n, err
	}
	return n, nil
}

// Connected reports whether the device node is still present and no
// write has failed. RFCOMM nodes vanish when the peer drops the link.
func (l *serialLink) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.port == nil || !l.up {
		return false
	}
	if _, err := os.Stat(l.path); err != nil {
		l.up = false
		return false
	}
	return true
}

// Close closes the port
func (l *serialLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.up = false
	if l.port != nil {
		err := l.port.Close()
		l.port = nil
		return err
	}
	return nil
}
