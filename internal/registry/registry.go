// Package registry remembers wireless printers across sessions: stable IDs
// and user-set names keyed by peer address
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
)

// Registry manages remembered devices and their custom names
type Registry struct {
	filePath string
	data     map[string]*DeviceEntry
	mu       sync.RWMutex
}

// DeviceEntry stores persistent information about one peer
type DeviceEntry struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Kind    string `json:"kind"` // bluetooth, network, usb
	Name    string `json:"name,omitempty"`
}

// New creates a registry backed by the given file. A missing file is
// fine; it is created on first save.
func New(filePath string) (*Registry, error) {
	r := &Registry{
		filePath: filePath,
		data:     make(map[string]*DeviceEntry),
	}

	if err := r.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load device registry: %w", err)
		}
	}

	return r, nil
}

// Remember records a device, creating a stable ID on first sight. An
// already-known address keeps its ID and any custom name.
func (r *Registry) Remember(address, kind, name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := identityKey(kind, address)
	if entry, exists := r.data[key]; exists {
		return entry.ID
	}

	entry := &DeviceEntry{
		ID:      uuid.New().String(),
		Address: address,
		Kind:    kind,
		Name:    name,
	}
	r.data[key] = entry

	if err := r.save(); err != nil {
		// Non-critical; the next save retries
	}

	return entry.ID
}

// DeviceName returns the custom name for an address, or empty
func (r *Registry) DeviceName(address string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.data {
		if entry.Address == address {
			return entry.Name
		}
	}
	return ""
}

// SetDeviceName sets a custom name for a remembered address
func (r *Registry) SetDeviceName(address, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.data {
		if entry.Address == address {
			entry.Name = name
			if err := r.save(); err != nil {
				// Non-critical; the next save retries
			}
			return true
		}
	}
	return false
}

// Forget removes a remembered device, reporting whether it existed
func (r *Registry) Forget(address string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, entry := range r.data {
		if entry.Address == address {
			delete(r.data, key)
			if err := r.save(); err != nil {
				// Non-critical; the next save retries
			}
			return true
		}
	}
	return false
}

// All returns a copy of every remembered device
func (r *Registry) All() []DeviceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]DeviceEntry, 0, len(r.data))
	for _, entry := range r.data {
		result = append(result, *entry)
	}
	return result
}

func (r *Registry) load() error {
	data, err := os.ReadFile(r.filePath)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &r.data)
}

func (r *Registry) save() error {
	data, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(r.filePath, data, 0644)
}

func identityKey(kind, address string) string {
	return fmt.Sprintf("%s:%s", kind, address)
}
