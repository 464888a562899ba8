// Package printer owns the wireless link to the label printer: discovery,
// connection lifecycle, liveness checks, and batch sends
package printer

import (
	"sync"
	"time"
)

// Device is a discoverable wireless peer. Address uniquely identifies a
// peer for the duration of a session.
type Device struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Kind    string `json:"kind"` // bluetooth, network, usb
}

// ConnectionState is the lifecycle of the printer link
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateScanning
	StateConnecting
	StateConnected
	StateFailed
)

// String returns the state name
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateScanning:
		return "scanning"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is a point-in-time snapshot of the link
type Status struct {
	Connected     bool      `json:"connected"`
	State         string    `json:"state"`
	DeviceName    string    `json:"device_name,omitempty"`
	DeviceAddress string    `json:"device_address,omitempty"`
	LastSend      time.Time `json:"last_send,omitempty"`
}

// Session holds the one piece of shared mutable connection state. The
// Manager is its single writer; everyone else reads through accessors.
// State-change listeners are invoked in transition order with no
// interleaving between callbacks.
type Session struct {
	mu       sync.RWMutex
	state    ConnectionState
	device   *Device
	lastSend time.Time

	notifyMu  sync.Mutex
	listeners []func(ConnectionState)
}

// NewSession creates a session in the Disconnected state
func NewSession() *Session {
	return &Session{state: StateDisconnected}
}

// State returns the current connection state
func (s *Session) State() ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Device returns a copy of the currently selected device, or nil
func (s *Session) Device() *Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.device == nil {
		return nil
	}
	dev := *s.device
	return &dev
}

// Status returns a snapshot of the session
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := Status{
		Connected: s.state == StateConnected,
		State:     s.state.String(),
		LastSend:  s.lastSend,
	}
	if s.device != nil {
		status.DeviceName = s.device.Name
		status.DeviceAddress = s.device.Address
	}
	return status
}

// OnStateChange registers a listener for state transitions
func (s *Session) OnStateChange(fn func(ConnectionState)) {
	s.notifyMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.notifyMu.Unlock()
}

// setState transitions the session and notifies listeners. Holding
// notifyMu across the callbacks keeps transitions observable in order
// without interleaved partial updates.
func (s *Session) setState(state ConnectionState) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	changed := s.state != state
	s.state = state
	listeners := s.listeners
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(state)
	}
}

// setDevice records the selected device
func (s *Session) setDevice(dev *Device) {
	s.mu.Lock()
	s.device = dev
	s.mu.Unlock()
}

// touchSend records a successful send
func (s *Session) touchSend() {
	s.mu.Lock()
	s.lastSend = time.Now()
	s.mu.Unlock()
}
