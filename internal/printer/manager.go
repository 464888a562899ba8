package printer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thelabel/label-engine/internal/registry"
	"github.com/thelabel/label-engine/internal/tspl"
	"github.com/thelabel/label-engine/pkg/labelformat"
)

// Timing defaults for the unreliable wireless link
const (
	DefaultScanTimeout = 10 * time.Second

	// DefaultSettleDelay sits between transport-level connect success and
	// re-verification. The wireless stack may report success before the
	// link is actually usable.
	DefaultSettleDelay = 1500 * time.Millisecond
)

// Manager owns the printer link. It is the single writer of the Session
// state and enforces one active operation at a time: a connect while
// scanning, or a second concurrent connect, is rejected, not queued.
type Manager struct {
	transport Transport
	session   *Session
	registry  *registry.Registry

	ScanTimeout time.Duration
	SettleDelay time.Duration

	busy atomic.Bool
	mu   sync.Mutex
	link Link
}

// NewManager creates a manager over the given transport. The registry is
// optional and only supplies remembered device names.
func NewManager(transport Transport, reg *registry.Registry) *Manager {
	return &Manager{
		transport:   transport,
		session:     NewSession(),
		registry:    reg,
		ScanTimeout: DefaultScanTimeout,
		SettleDelay: DefaultSettleDelay,
	}
}

// Session exposes the session for status reads and state-change listeners
func (m *Manager) Session() *Session {
	return m.session
}

// Discover scans for reachable printers. An empty list is a normal
// outcome, not an error. The previous connection state is restored when
// the scan ends.
func (m *Manager) Discover(ctx context.Context, includeKnown bool) ([]Device, error) {
	if !m.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer m.busy.Store(false)

	prev := m.session.State()
	m.session.setState(StateScanning)

	scanCtx, cancel := context.WithTimeout(ctx, m.ScanTimeout)
	defer cancel()

	devices, err := m.transport.Scan(scanCtx, includeKnown)
	m.session.setState(prev)

	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}

	if m.registry != nil {
		for i := range devices {
			if name := m.registry.DeviceName(devices[i].Address); name != "" {
				devices[i].Name = name
			}
		}
	}

	return devices, nil
}

// Connect attempts a connection to the device. Transport-level success is
// not trusted: after a settle delay the link's own connected flag is read
// again, and only a re-confirmed flag transitions the session to
// Connected. Any other outcome returns false with the session back in
// Disconnected.
func (m *Manager) Connect(ctx context.Context, dev Device) (bool, error) {
	if !m.busy.CompareAndSwap(false, true) {
		return false, ErrBusy
	}
	defer m.busy.Store(false)

	m.closeLink()
	m.session.setDevice(nil)
	m.session.setState(StateConnecting)

	link, err := m.transport.Connect(ctx, dev.Address)
	if err != nil {
		m.session.setState(StateFailed)
		m.session.setState(StateDisconnected)
		return false, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	select {
	case <-time.After(m.SettleDelay):
	case <-ctx.Done():
		link.Close()
		m.session.setState(StateFailed)
		m.session.setState(StateDisconnected)
		return false, fmt.Errorf("%w: %v", ErrConnectFailed, ctx.Err())
	}

	if !link.Connected() {
		link.Close()
		m.session.setState(StateFailed)
		m.session.setState(StateDisconnected)
		return false, fmt.Errorf("%w: link did not survive re-verification", ErrConnectFailed)
	}

	m.mu.Lock()
	m.link = link
	m.mu.Unlock()

	if m.registry != nil {
		m.registry.Remember(dev.Address, dev.Kind, dev.Name)
	}

	m.session.setDevice(&dev)
	m.session.setState(StateConnected)
	return true, nil
}

// Disconnect tears the link down. Best effort: the session always ends
// Disconnected with the device cleared, even when the transport's own
// close errors.
func (m *Manager) Disconnect() error {
	m.closeLink()
	m.session.setDevice(nil)
	m.session.setState(StateDisconnected)
	return nil
}

// Status returns the current link snapshot
func (m *Manager) Status() Status {
	m.refreshLiveness()
	return m.session.Status()
}

// Send writes one command stream down the link. A write rejection is
// treated as a dropped connection: the link is closed and the session
// moves to Disconnected.
func (m *Manager) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	link := m.link
	m.mu.Unlock()

	if link == nil || m.session.State() != StateConnected {
		return ErrNotConnected
	}

	if _, err := link.Write(data); err != nil {
		m.Disconnect()
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	m.session.touchSend()
	return nil
}

// Verify sends a minimal setup + text + print job to prove the link is
// alive. The selected device is left untouched either way.
func (m *Manager) Verify(ctx context.Context) error {
	cfg := labelformat.LabelConfig{WidthMm: 40, HeightMm: 20}

	cmd := tspl.New()
	cmd.Size(cfg.WidthMm, cfg.HeightMm).
		Gap(0, 0).
		Direction(0, 0).
		CLS()
	if err := cmd.Text(8, 8, 1, false, "TEST"); err != nil {
		return err
	}
	cmd.Print(1)

	return m.Send(ctx, cmd.Bytes())
}

// refreshLiveness folds an asynchronous link drop (printer powered off)
// into the session state before a status read
func (m *Manager) refreshLiveness() {
	m.mu.Lock()
	link := m.link
	m.mu.Unlock()

	if link != nil && m.session.State() == StateConnected && !link.Connected() {
		m.Disconnect()
	}
}

// closeLink closes and clears any current link
func (m *Manager) closeLink() {
	m.mu.Lock()
	link := m.link
	m.link = nil
	m.mu.Unlock()

	if link != nil {
		link.Close()
	}
}
