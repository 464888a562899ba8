package command

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/thelabel/label-engine/internal/printer"
	"github.com/thelabel/label-engine/internal/raster"
	"github.com/thelabel/label-engine/pkg/labelformat"
)

const commandTimeout = 30 * time.Second

// handleDevices handles device discovery
// Usage: devices [--known]
func (e *Executor) handleDevices(args []string) *Result {
	includeKnown := false
	for _, arg := range args {
		if arg == "--known" {
			includeKnown = true
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	devices, err := e.manager.Discover(ctx, includeKnown)
	if err != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("discovery failed: %v", err),
		}
	}

	deviceList := make([]map[string]interface{}, len(devices))
	for i, dev := range devices {
		deviceList[i] = map[string]interface{}{
			"name":    dev.Name,
			"address": dev.Address,
			"kind":    dev.Kind,
		}
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Found %d device(s)", len(devices)),
		Data: map[string]interface{}{
			"devices": deviceList,
		},
	}
}

// handleDevice handles remembered-device management
// Usage: device list | rename <address> <name> | forget <address>
func (e *Executor) handleDevice(args []string) *Result {
	if len(args) == 0 {
		return &Result{
			Success: false,
			Error:   "usage: device <list|rename|forget>",
		}
	}

	switch args[0] {
	case "list":
		entries := e.registry.All()
		deviceList := make([]map[string]interface{}, len(entries))
		for i, entry := range entries {
			deviceList[i] = map[string]interface{}{
				"id":      entry.ID,
				"address": entry.Address,
				"kind":    entry.Kind,
				"name":    entry.Name,
			}
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("%d remembered device(s)", len(entries)),
			Data: map[string]interface{}{
				"devices": deviceList,
			},
		}

	case "rename":
		if len(args) < 3 {
			return &Result{
				Success: false,
				Error:   "usage: device rename <address> <name>",
			}
		}
		if !e.registry.SetDeviceName(args[1], args[2]) {
			return &Result{
				Success: false,
				Error:   fmt.Sprintf("device not remembered: %s", args[1]),
			}
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Renamed %s to %s", args[1], args[2]),
		}

	case "forget":
		if len(args) < 2 {
			return &Result{
				Success: false,
				Error:   "usage: device forget <address>",
			}
		}
		if !e.registry.Forget(args[1]) {
			return &Result{
				Success: false,
				Error:   fmt.Sprintf("device not remembered: %s", args[1]),
			}
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Forgot %s", args[1]),
		}

	default:
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("unknown device subcommand: %s", args[0]),
		}
	}
}

// handleConnect handles connection attempts
// Usage: connect <address> [name]
func (e *Executor) handleConnect(args []string) *Result {
	if len(args) < 1 {
		return &Result{
			Success: false,
			Error:   "usage: connect <address> [name]",
		}
	}

	dev := printer.Device{Address: args[0]}
	if len(args) > 1 {
		dev.Name = args[1]
	} else if name := e.registry.DeviceName(dev.Address); name != "" {
		dev.Name = name
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	ok, err := e.manager.Connect(ctx, dev)
	if err != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("connect failed: %v", err),
		}
	}
	if !ok {
		return &Result{
			Success: false,
			Error:   "connect failed: link did not come up",
		}
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Connected to %s", dev.Address),
		Data: map[string]interface{}{
			"address": dev.Address,
		},
	}
}

// handleDisconnect handles disconnection
func (e *Executor) handleDisconnect(args []string) *Result {
	e.manager.Disconnect()
	return &Result{
		Success: true,
		Message: "Disconnected",
	}
}

// handleStatus handles status queries
func (e *Executor) handleStatus(args []string) *Result {
	status := e.manager.Status()

	data := map[string]interface{}{
		"connected": status.Connected,
		"state":     status.State,
	}
	if status.DeviceAddress != "" {
		data["device_name"] = status.DeviceName
		data["device_address"] = status.DeviceAddress
	}
	if !status.LastSend.IsZero() {
		data["last_send"] = status.LastSend.Format(time.RFC3339)
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Printer is %s", status.State),
		Data:    data,
	}
}

// handleVerify sends a small test label down the link
func (e *Executor) handleVerify(args []string) *Result {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := e.manager.Verify(ctx); err != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("verification failed: %v", err),
		}
	}

	return &Result{
		Success: true,
		Message: "Test label sent",
	}
}

// handlePrint handles print commands
// Usage: print shipping <label-path>... --size WxH [--spacing mm] [--logo path]
//
//	print design <design-path> [--image path]
//	print image <image-path> --size WxH
func (e *Executor) handlePrint(args []string) *Result {
	if len(args) < 2 {
		return &Result{
			Success: false,
			Error:   "usage: print <shipping|design|image> <path> [options]",
		}
	}

	switch args[0] {
	case "shipping":
		return e.handlePrintShipping(args[1:])
	case "design":
		return e.handlePrintDesign(args[1:])
	case "image":
		return e.handlePrintImage(args[1:])
	default:
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("unknown print target: %s", args[0]),
		}
	}
}

func (e *Executor) handlePrintShipping(args []string) *Result {
	paths, flags := splitFlags(args)
	if len(paths) == 0 {
		return &Result{
			Success: false,
			Error:   "usage: print shipping <label-path>... --size WxH [--spacing mm] [--logo path]",
		}
	}

	cfg, result := configFromFlags(flags)
	if result != nil {
		return result
	}

	labels := make([]labelformat.ShippingLabel, 0, len(paths))
	for _, path := range paths {
		label, err := labelformat.ParseShippingLabelFile(path)
		if err != nil {
			return &Result{
				Success: false,
				Error:   fmt.Sprintf("failed to load label %s: %v", path, err),
			}
		}
		labels = append(labels, *label)
	}

	var logo *raster.Processed
	if logoPath, ok := flags["logo"]; ok {
		data, err := os.ReadFile(logoPath)
		if err != nil {
			return &Result{
				Success: false,
				Error:   fmt.Sprintf("failed to read logo: %v", err),
			}
		}
		logo, err = raster.ProcessBytes(data, cfg, raster.DefaultOptions())
		if err != nil {
			return &Result{
				Success: false,
				Error:   fmt.Sprintf("failed to process logo: %v", err),
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout*time.Duration(len(labels)))
	defer cancel()

	count, err := e.batch.PrintShipping(ctx, cfg, labels, logo)
	if err != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("batch stopped after %d label(s): %v", count, err),
			Data: map[string]interface{}{
				"completed": count,
			},
		}
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Printed %d label(s)", count),
		Data: map[string]interface{}{
			"completed": count,
		},
	}
}

func (e *Executor) handlePrintDesign(args []string) *Result {
	paths, flags := splitFlags(args)
	if len(paths) == 0 {
		return &Result{
			Success: false,
			Error:   "usage: print design <design-path> [--image path]",
		}
	}

	design, err := labelformat.ParseDesignFile(paths[0])
	if err != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("failed to load design: %v", err),
		}
	}

	var img *raster.Processed
	if imgPath, ok := flags["image"]; ok {
		data, err := os.ReadFile(imgPath)
		if err != nil {
			return &Result{
				Success: false,
				Error:   fmt.Sprintf("failed to read image: %v", err),
			}
		}
		img, err = raster.ProcessBytes(data, design.Config, raster.DefaultOptions())
		if err != nil {
			return &Result{
				Success: false,
				Error:   fmt.Sprintf("failed to process image: %v", err),
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	count, err := e.batch.Print(ctx, design.Config, []printer.Job{
		printer.DesignJob{Design: design, Image: img},
	})
	if err != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("print failed: %v", err),
		}
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Printed %d label(s)", count),
	}
}

func (e *Executor) handlePrintImage(args []string) *Result {
	paths, flags := splitFlags(args)
	if len(paths) == 0 {
		return &Result{
			Success: false,
			Error:   "usage: print image <image-path> --size WxH",
		}
	}

	cfg, result := configFromFlags(flags)
	if result != nil {
		return result
	}

	data, err := os.ReadFile(paths[0])
	if err != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("failed to read image: %v", err),
		}
	}

	img, err := raster.ProcessBytes(data, cfg, raster.DefaultOptions())
	if err != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("failed to process image: %v", err),
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	count, err := e.batch.Print(ctx, cfg, []printer.Job{
		printer.ImageJob{Config: cfg, Image: img},
	})
	if err != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("print failed: %v", err),
		}
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Printed %d label(s)", count),
	}
}

// handleHelp handles help command
func (e *Executor) handleHelp(args []string) *Result {
	helpText := `Available commands:
  devices [--known]                      - Scan for printers
  device list                            - List remembered printers
  device rename <address> <name>         - Name a remembered printer
  device forget <address>                - Forget a remembered printer
  connect <address> [name]               - Connect to a printer
  disconnect                             - Disconnect
  status                                 - Show connection status
  verify                                 - Print a small test label
  print shipping <path>... --size WxH [--spacing mm] [--logo path]
  print design <path> [--image path]
  print image <path> --size WxH
  help                                   - Show this help`

	return &Result{
		Success: true,
		Message: helpText,
	}
}

// splitFlags separates positional args from "--key value" flag pairs
func splitFlags(args []string) ([]string, map[string]string) {
	var positional []string
	flags := make(map[string]string)

	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "--") {
			key := strings.TrimPrefix(args[i], "--")
			if i+1 < len(args) {
				flags[key] = args[i+1]
				i++
			} else {
				flags[key] = ""
			}
		} else {
			positional = append(positional, args[i])
		}
	}

	return positional, flags
}

// configFromFlags builds the stock config from --size WxH and --spacing
func configFromFlags(flags map[string]string) (labelformat.LabelConfig, *Result) {
	size, ok := flags["size"]
	if !ok {
		return labelformat.LabelConfig{}, &Result{
			Success: false,
			Error:   "missing --size WxH (label dimensions in mm)",
		}
	}

	parts := strings.SplitN(size, "x", 2)
	if len(parts) != 2 {
		return labelformat.LabelConfig{}, &Result{
			Success: false,
			Error:   fmt.Sprintf("invalid --size %q, expected WxH", size),
		}
	}

	width, err1 := strconv.ParseFloat(parts[0], 64)
	height, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return labelformat.LabelConfig{}, &Result{
			Success: false,
			Error:   fmt.Sprintf("invalid --size %q, expected WxH", size),
		}
	}

	cfg := labelformat.LabelConfig{WidthMm: width, HeightMm: height}

	if spacing, ok := flags["spacing"]; ok {
		value, err := strconv.ParseFloat(spacing, 64)
		if err != nil {
			return labelformat.LabelConfig{}, &Result{
				Success: false,
				Error:   fmt.Sprintf("invalid --spacing %q", spacing),
			}
		}
		cfg.SpacingMm = value
	}

	if err := cfg.Validate(); err != nil {
		return labelformat.LabelConfig{}, &Result{
			Success: false,
			Error:   fmt.Sprintf("invalid label size: %v", err),
		}
	}

	return cfg, nil
}
