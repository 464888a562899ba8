// Package command provides the text command system for the label engine
package command

import (
	"fmt"
	"strings"

	"github.com/thelabel/label-engine/internal/printer"
	"github.com/thelabel/label-engine/internal/registry"
)

// Executor routes command strings to the engine
type Executor struct {
	manager  *printer.Manager
	batch    *printer.Batch
	registry *registry.Registry
}

// NewExecutor creates a new command executor
func NewExecutor(manager *printer.Manager, batch *printer.Batch, reg *registry.Registry) *Executor {
	return &Executor{
		manager:  manager,
		batch:    batch,
		registry: reg,
	}
}

// Result represents the result of executing a command
type Result struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Execute executes a command string and returns a result
func (e *Executor) Execute(cmdStr string) *Result {
	parts := parseCommand(cmdStr)
	if len(parts) == 0 {
		return &Result{
			Success: false,
			Error:   "empty command",
		}
	}

	command := parts[0]
	args := parts[1:]

	switch command {
	case "devices":
		return e.handleDevices(args)
	case "device":
		return e.handleDevice(args)
	case "connect":
		return e.handleConnect(args)
	case "disconnect":
		return e.handleDisconnect(args)
	case "status":
		return e.handleStatus(args)
	case "verify":
		return e.handleVerify(args)
	case "print":
		return e.handlePrint(args)
	case "help":
		return e.handleHelp(args)
	default:
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("unknown command: %s. Type 'help' for available commands", command),
		}
	}
}

// parseCommand parses a command string into parts, handling quoted strings
func parseCommand(cmdStr string) []string {
	cmdStr = strings.TrimSpace(cmdStr)
	if cmdStr == "" {
		return []string{}
	}

	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := byte(0)

	for i := 0; i < len(cmdStr); i++ {
		char := cmdStr[i]

		if char == '"' || char == '\'' {
			if !inQuotes {
				inQuotes = true
				quoteChar = char
			} else if char == quoteChar {
				inQuotes = false
				quoteChar = 0
			} else {
				current.WriteByte(char)
			}
		} else if char == ' ' && !inQuotes {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		} else {
			current.WriteByte(char)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
