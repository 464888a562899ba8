package printer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/gousb"
)

// USBTransport reaches tethered printers over USB. Peers are printer-class
// devices (class 7); the address of a peer is "VID:PID" in hex.
type USBTransport struct{}

// NewUSBTransport creates a USB transport
func NewUSBTransport() *USBTransport {
	return &USBTransport{}
}

// Scan enumerates connected printer-class USB devices
func (t *USBTransport) Scan(ctx context.Context, includeKnown bool) ([]Device, error) {
	usbCtx := gousb.NewContext()
	defer usbCtx.Close()

	var devices []Device

	opened, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return isPrinterClass(desc)
	})
	if err != nil && len(opened) == 0 {
		return nil, fmt.Errorf("failed to enumerate usb devices: %w", err)
	}

	for _, dev := range opened {
		desc := dev.Desc
		name := fmt.Sprintf("USB %04X:%04X", uint16(desc.Vendor), uint16(desc.Product))
		if manufacturer, err := dev.Manufacturer(); err == nil && manufacturer != "" {
			product, _ := dev.Product()
			name = strings.TrimSpace(fmt.Sprintf("%s %s", manufacturer, product))
		}

		devices = append(devices, Device{
			Name:    name,
			Address: fmt.Sprintf("%04X:%04X", uint16(desc.Vendor), uint16(desc.Product)),
			Kind:    "usb",
		})
		dev.Close()
	}

	return devices, nil
}

// isPrinterClass checks the device class and every interface class
func isPrinterClass(desc *gousb.DeviceDesc) bool {
	if desc.Class == gousb.ClassPrinter {
		return true
	}
	for _, cfg := range desc.Configs {
		for _, iface := range cfg.Interfaces {
			for _, alt := range iface.AltSettings {
				if alt.Class == gousb.ClassPrinter {
					return true
				}
			}
		}
	}
	return false
}

// Connect opens the OUT endpoint of the device with the given VID:PID
func (t *USBTransport) Connect(ctx context.Context, address string) (Link, error) {
	var vid, pid uint16
	if _, err := fmt.Sscanf(address, "%04X:%04X", &vid, &pid); err != nil {
		return nil, fmt.Errorf("invalid usb address %q: %w", address, err)
	}

	usbCtx := gousb.NewContext()

	dev, err := usbCtx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		usbCtx.Close()
		return nil, fmt.Errorf("failed to open usb device: %w", err)
	}
	if dev == nil {
		usbCtx.Close()
		return nil, fmt.Errorf("usb device not found: %s", address)
	}

	iface, done, err := dev.DefaultInterface()
	if err != nil {
		dev.SetAutoDetach(true)
		iface, done, err = dev.DefaultInterface()
	}
	if err != nil {
		dev.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("failed to claim usb interface: %w", err)
	}

	var endpoint *gousb.OutEndpoint
	for _, epDesc := range iface.Setting.Endpoints {
		if epDesc.Direction == gousb.EndpointDirectionOut {
			if ep, err := iface.OutEndpoint(epDesc.Number); err == nil {
				endpoint = ep
				break
			}
		}
	}
	if endpoint == nil {
		done()
		dev.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("no OUT endpoint on usb device %s", address)
	}

	return &usbLink{
		ctx:      usbCtx,
		device:   dev,
		release:  done,
		endpoint: endpoint,
		up:       true,
	}, nil
}

// usbLink is an open USB printer connection
type usbLink struct {
	ctx      *gousb.Context
	device   *gousb.Device
	release  func()
	endpoint *gousb.OutEndpoint
	mu       sync.Mutex
	up       bool
}

// Write sends data to the OUT endpoint, marking the link down on failure
func (l *usbLink) Write(data []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.up {
		return 0, ErrNotConnected
	}

	n, err := l.endpoint.Write(data)
	if err != nil {
		l.up = false
		return n, err
	}
	return n, nil
}

// Connected reports whether the link is still usable
func (l *usbLink) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.up
}

// Close releases the interface and device
func (l *usbLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.up && l.device == nil {
		return nil
	}
	l.up = false

	if l.release != nil {
		l.release()
		l.release = nil
	}
	var err error
	if l.device != nil {
		err = l.device.Close()
		l.device = nil
	}
	if l.ctx != nil {
		l.ctx.Close()
		l.ctx = nil
	}
	return err
}
