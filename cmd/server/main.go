package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/thelabel/label-engine/internal/api"
	"github.com/thelabel/label-engine/internal/printer"
	"github.com/thelabel/label-engine/internal/registry"
)

// Version is set during build via ldflags
var Version = "dev"

func main() {
	port := getPort()
	registryPath := getRegistryPath()

	reg, err := registry.New(registryPath)
	if err != nil {
		log.Fatalf("Failed to open device registry: %v", err)
	}

	transport, err := buildTransport()
	if err != nil {
		log.Fatalf("Failed to create transport: %v", err)
	}

	manager := printer.NewManager(transport, reg)
	batch := printer.NewBatch(manager)

	manager.Session().OnStateChange(func(state printer.ConnectionState) {
		log.Printf("Printer state: %s", state)
	})

	server := api.NewServer(manager, batch, reg)

	serverErrChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("0.0.0.0:%s", port)
		log.Printf("Label engine %s listening on %s", Version, addr)
		if err := server.Run(addr); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrChan:
		log.Fatalf("Server error: %v", err)
	case <-sigChan:
		log.Println("Shutting down...")
		manager.Disconnect()
		os.Exit(0)
	}
}

// buildTransport selects the wireless transport from TRANSPORT or
// --transport: bluetooth (default), network, or usb
func buildTransport() (printer.Transport, error) {
	kind := os.Getenv("TRANSPORT")
	for i, arg := range os.Args {
		if arg == "--transport" && i+1 < len(os.Args) {
			kind = os.Args[i+1]
		}
	}

	switch kind {
	case "", "bluetooth":
		return printer.NewBluetoothTransport(), nil
	case "network":
		hosts := strings.Split(os.Getenv("PRINTER_HOSTS"), ",")
		var cleaned []string
		for _, h := range hosts {
			if h = strings.TrimSpace(h); h != "" {
				cleaned = append(cleaned, h)
			}
		}
		return printer.NewNetworkTransport(cleaned), nil
	case "usb":
		return printer.NewUSBTransport(), nil
	default:
		return nil, fmt.Errorf("unknown transport: %s", kind)
	}
}

func getPort() string {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		return port
	}

	// Check command line args
	for i, arg := range os.Args {
		if arg == "--port" && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
	}

	return "12212"
}

// getRegistryPath returns the path to the device registry file.
// It tries to place it next to the executable, or falls back to current directory.
func getRegistryPath() string {
	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		registryPath := filepath.Join(exeDir, "device_registry.json")

		if info, err := os.Stat(exeDir); err == nil && info.IsDir() {
			// Try to create a test file to check write permissions
			testFile := filepath.Join(exeDir, ".label-engine-write-test")
			if f, err := os.Create(testFile); err == nil {
				f.Close()
				os.Remove(testFile)
				return registryPath
			}
		}
	}

	// Fallback: use current directory
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "device_registry.json")
	}

	// Last resort: use home directory config (Unix) or AppData (Windows)
	var configDir string
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			configDir = filepath.Join(appData, "label-engine")
		} else {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "label-engine")
		}
	} else {
		if home := os.Getenv("HOME"); home != "" {
			configDir = filepath.Join(home, ".config", "label-engine")
		}
	}

	if configDir != "" {
		os.MkdirAll(configDir, 0755)
		return filepath.Join(configDir, "device_registry.json")
	}

	return "device_registry.json"
}
