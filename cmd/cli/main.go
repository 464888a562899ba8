package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const (
	defaultServerURL = "http://localhost:12212"
)

func main() {
	var serverURL string
	flag.StringVar(&serverURL, "server", defaultServerURL, "Server URL")
	flag.StringVar(&serverURL, "s", defaultServerURL, "Server URL (short)")
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}

	command := strings.Join(flag.Args(), " ")
	result := executeCommand(serverURL, command)

	if result.Success {
		printSuccess(result)
		os.Exit(0)
	} else {
		printError(result)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Label Engine CLI

Usage:
  label-cli [flags] <command>

Flags:
  -s, -server <url>    Server URL (default: %s)

Commands:
  devices [--known]
    Scan for reachable printers

  device list
    List remembered printers

  device rename <address> <name>
    Set a custom name for a remembered printer

  device forget <address>
    Remove a remembered printer

  connect <address> [name]
    Connect to a printer

  disconnect
    Disconnect from the printer

  status
    Show the connection status

  verify
    Print a small test label

  print shipping <label-path>... --size WxH [--spacing mm] [--logo path]
    Print shipping labels from JSON files

  print design <design-path> [--image path]
    Print a custom label design

  print image <image-path> --size WxH
    Print an image on blank stock

  help
    Show help message

Examples:
  label-cli devices
  label-cli connect AA:BB:CC:DD:EE:FF
  label-cli print shipping ./order-42.json --size 80x100 --spacing 3
  label-cli print image ./logo.png --size 40x30
  label-cli -s http://localhost:8080 status

`, defaultServerURL)
}

type CommandResult struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

func executeCommand(serverURL, command string) *CommandResult {
	url := strings.TrimSuffix(serverURL, "/") + "/command"

	reqBody := map[string]string{
		"command": command,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return &CommandResult{
			Success: false,
			Error:   fmt.Sprintf("failed to marshal request: %v", err),
		}
	}

	resp, err := http.Post(url, "application/json", strings.NewReader(string(jsonData)))
	if err != nil {
		return &CommandResult{
			Success: false,
			Error:   fmt.Sprintf("failed to connect to server: %v", err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &CommandResult{
			Success: false,
			Error:   fmt.Sprintf("failed to read response: %v", err),
		}
	}

	var result CommandResult
	if err := json.Unmarshal(body, &result); err != nil {
		return &CommandResult{
			Success: false,
			Error:   fmt.Sprintf("failed to parse response: %v", err),
		}
	}

	// Flat responses: the server folds result data into the top level
	if result.Data == nil {
		var flat map[string]interface{}
		if err := json.Unmarshal(body, &flat); err == nil {
			delete(flat, "success")
			delete(flat, "message")
			delete(flat, "error")
			if len(flat) > 0 {
				result.Data = flat
			}
		}
	}

	return &result
}

func printSuccess(result *CommandResult) {
	if result.Message != "" {
		fmt.Println(result.Message)
	}

	if result.Data != nil {
		if devices, ok := result.Data["devices"].([]interface{}); ok {
			fmt.Println("\nDevices:")
			for _, d := range devices {
				if dev, ok := d.(map[string]interface{}); ok {
					name := dev["name"]
					if name == "" || name == nil {
						name = "(unnamed)"
					}
					fmt.Printf("  %s: %s (%s)\n", dev["address"], name, dev["kind"])
				}
			}
		}

		if state, ok := result.Data["state"].(string); ok {
			fmt.Printf("State: %s\n", state)
			if addr, ok := result.Data["device_address"].(string); ok {
				fmt.Printf("Device: %s\n", addr)
			}
		}

		if completed, ok := result.Data["completed"].(float64); ok {
			fmt.Printf("Labels printed: %d\n", int(completed))
		}
	}
}

func printError(result *CommandResult) {
	if result.Error != "" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", result.Error)
	} else if result.Message != "" {
		fmt.Fprintf(os.Stderr, "%s\n", result.Message)
	}
}
