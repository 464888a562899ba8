package printer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// fakeLink is a scriptable in-memory Link
type fakeLink struct {
	written   []byte
	writes    int
	writeErr  error
	failAfter int // writeErr applies after this many successful writes
	connected bool
	closed    bool
}

func (l *fakeLink) Write(data []byte) (int, error) {
	l.writes++
	if l.writeErr != nil && l.writes > l.failAfter {
		return 0, l.writeErr
	}
	l.written = append(l.written, data...)
	return len(data), nil
}

func (l *fakeLink) Connected() bool {
	return l.connected
}

func (l *fakeLink) Close() error {
	l.closed = true
	l.connected = false
	return nil
}

// fakeTransport is a scriptable in-memory Transport
type fakeTransport struct {
	devices    []Device
	scanErr    error
	link       *fakeLink
	connectErr error
	connects   int
}

func (t *fakeTransport) Scan(ctx context.Context, includeKnown bool) ([]Device, error) {
	if t.scanErr != nil {
		return nil, t.scanErr
	}
	return t.devices, nil
}

func (t *fakeTransport) Connect(ctx context.Context, address string) (Link, error) {
	t.connects++
	if t.connectErr != nil {
		return nil, t.connectErr
	}
	return t.link, nil
}

func newTestManager(transport *fakeTransport) *Manager {
	m := NewManager(transport, nil)
	m.SettleDelay = time.Millisecond
	m.ScanTimeout = time.Second
	return m
}

func TestDiscover_EmptyResultIsNotAnError(t *testing.T) {
	m := newTestManager(&fakeTransport{})

	devices, err := m.Discover(context.Background(), false)
	if err != nil {
		t.Fatalf("Discover() error = %v, want nil", err)
	}
	if len(devices) != 0 {
		t.Errorf("Expected empty device list, got %d devices", len(devices))
	}
	if m.Session().State() != StateDisconnected {
		t.Errorf("Expected Disconnected after scan, got %v", m.Session().State())
	}
}

func TestDiscover_RestoresPreviousState(t *testing.T) {
	transport := &fakeTransport{
		devices: []Device{{Name: "P21", Address: "AA:BB:CC:DD:EE:FF", Kind: "bluetooth"}},
		link:    &fakeLink{connected: true},
	}
	m := newTestManager(transport)

	ok, err := m.Connect(context.Background(), transport.devices[0])
	if err != nil || !ok {
		t.Fatalf("Connect() = %v, %v, want true, nil", ok, err)
	}

	if _, err := m.Discover(context.Background(), false); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if m.Session().State() != StateConnected {
		t.Errorf("Expected Connected restored after scan, got %v", m.Session().State())
	}
}

func TestConnect_Success(t *testing.T) {
	link := &fakeLink{connected: true}
	transport := &fakeTransport{link: link}
	m := newTestManager(transport)

	dev := Device{Name: "P21", Address: "AA:BB:CC:DD:EE:FF", Kind: "bluetooth"}
	ok, err := m.Connect(context.Background(), dev)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !ok {
		t.Fatal("Connect() = false, want true")
	}

	status := m.Status()
	if !status.Connected {
		t.Error("Expected connected status")
	}
	if status.DeviceAddress != dev.Address {
		t.Errorf("Expected device address %s, got %s", dev.Address, status.DeviceAddress)
	}
}

func TestConnect_TransportFailure(t *testing.T) {
	transport := &fakeTransport{connectErr: errors.New("host is down")}
	m := newTestManager(transport)

	ok, err := m.Connect(context.Background(), Device{Address: "AA:BB:CC:DD:EE:FF"})
	if ok {
		t.Error("Connect() = true, want false")
	}
	if !errors.Is(err, ErrConnectFailed) {
		t.Errorf("Expected ErrConnectFailed, got %v", err)
	}
	if m.Session().State() != StateDisconnected {
		t.Errorf("Expected Disconnected after failure, got %v", m.Session().State())
	}
}

func TestConnect_LinkDiesBeforeReverification(t *testing.T) {
	// The transport accepts the connection but the link does not survive
	// the settle delay.
	link := &fakeLink{connected: false}
	transport := &fakeTransport{link: link}
	m := newTestManager(transport)

	ok, err := m.Connect(context.Background(), Device{Address: "AA:BB:CC:DD:EE:FF"})
	if ok {
		t.Error("Connect() = true, want false")
	}
	if !errors.Is(err, ErrConnectFailed) {
		t.Errorf("Expected ErrConnectFailed, got %v", err)
	}
	if !link.closed {
		t.Error("Expected the dead link to be closed")
	}
	if m.Session().State() != StateDisconnected {
		t.Errorf("Expected Disconnected, got %v", m.Session().State())
	}
}

func TestConnect_StateTransitionOrder(t *testing.T) {
	link := &fakeLink{connected: true}
	m := newTestManager(&fakeTransport{link: link})

	var seen []ConnectionState
	m.Session().OnStateChange(func(s ConnectionState) {
		seen = append(seen, s)
	})

	if ok, err := m.Connect(context.Background(), Device{Address: "AA:BB:CC:DD:EE:FF"}); !ok || err != nil {
		t.Fatalf("Connect() = %v, %v", ok, err)
	}

	want := []ConnectionState{StateConnecting, StateConnected}
	if len(seen) != len(want) {
		t.Fatalf("Expected %d transitions, got %v", len(want), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("Transition %d: expected %v, got %v", i, want[i], seen[i])
		}
	}
}

func TestConnect_FailureTransitionsThroughFailed(t *testing.T) {
	m := newTestManager(&fakeTransport{connectErr: errors.New("refused")})

	var seen []ConnectionState
	m.Session().OnStateChange(func(s ConnectionState) {
		seen = append(seen, s)
	})

	m.Connect(context.Background(), Device{Address: "AA:BB:CC:DD:EE:FF"})

	want := []ConnectionState{StateConnecting, StateFailed, StateDisconnected}
	if len(seen) != len(want) {
		t.Fatalf("Expected %d transitions, got %v", len(want), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("Transition %d: expected %v, got %v", i, want[i], seen[i])
		}
	}
}

func TestConnect_ReplacesExistingLink(t *testing.T) {
	first := &fakeLink{connected: true}
	transport := &fakeTransport{link: first}
	m := newTestManager(transport)

	if ok, _ := m.Connect(context.Background(), Device{Address: "AA:BB:CC:DD:EE:01"}); !ok {
		t.Fatal("First connect failed")
	}

	second := &fakeLink{connected: true}
	transport.link = second
	if ok, _ := m.Connect(context.Background(), Device{Address: "AA:BB:CC:DD:EE:02"}); !ok {
		t.Fatal("Second connect failed")
	}

	if !first.closed {
		t.Error("Expected the first link to be closed by the second connect")
	}
	if status := m.Status(); status.DeviceAddress != "AA:BB:CC:DD:EE:02" {
		t.Errorf("Expected second device selected, got %s", status.DeviceAddress)
	}
}

func TestBusyGuard(t *testing.T) {
	m := newTestManager(&fakeTransport{link: &fakeLink{connected: true}})
	m.busy.Store(true)

	if _, err := m.Discover(context.Background(), false); !errors.Is(err, ErrBusy) {
		t.Errorf("Discover during operation: expected ErrBusy, got %v", err)
	}
	if _, err := m.Connect(context.Background(), Device{}); !errors.Is(err, ErrBusy) {
		t.Errorf("Connect during operation: expected ErrBusy, got %v", err)
	}
}

func TestDisconnect_Idempotent(t *testing.T) {
	link := &fakeLink{connected: true}
	m := newTestManager(&fakeTransport{link: link})

	if ok, _ := m.Connect(context.Background(), Device{Address: "AA:BB:CC:DD:EE:FF"}); !ok {
		t.Fatal("Connect failed")
	}

	if err := m.Disconnect(); err != nil {
		t.Errorf("First Disconnect() error = %v", err)
	}
	if err := m.Disconnect(); err != nil {
		t.Errorf("Second Disconnect() error = %v", err)
	}

	status := m.Status()
	if status.Connected {
		t.Error("Expected disconnected status")
	}
	if status.DeviceAddress != "" {
		t.Error("Expected device cleared after disconnect")
	}
	if !link.closed {
		t.Error("Expected link closed")
	}
}

func TestSend_NotConnected(t *testing.T) {
	m := newTestManager(&fakeTransport{})

	if err := m.Send(context.Background(), []byte("CLS\r\n")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}

func TestSend_WriteFailureDropsConnection(t *testing.T) {
	link := &fakeLink{connected: true}
	m := newTestManager(&fakeTransport{link: link})

	if ok, _ := m.Connect(context.Background(), Device{Address: "AA:BB:CC:DD:EE:FF"}); !ok {
		t.Fatal("Connect failed")
	}

	link.writeErr = errors.New("broken pipe")
	err := m.Send(context.Background(), []byte("CLS\r\n"))
	if !errors.Is(err, ErrWriteFailed) {
		t.Errorf("Expected ErrWriteFailed, got %v", err)
	}
	if m.Status().Connected {
		t.Error("Expected disconnected status after write failure")
	}
}

func TestSend_RecordsLastSend(t *testing.T) {
	link := &fakeLink{connected: true}
	m := newTestManager(&fakeTransport{link: link})

	if ok, _ := m.Connect(context.Background(), Device{Address: "AA:BB:CC:DD:EE:FF"}); !ok {
		t.Fatal("Connect failed")
	}

	before := m.Status().LastSend
	if err := m.Send(context.Background(), []byte("CLS\r\n")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !m.Status().LastSend.After(before) {
		t.Error("Expected LastSend to advance")
	}
}

func TestStatus_DetectsDroppedLink(t *testing.T) {
	link := &fakeLink{connected: true}
	m := newTestManager(&fakeTransport{link: link})

	if ok, _ := m.Connect(context.Background(), Device{Address: "AA:BB:CC:DD:EE:FF"}); !ok {
		t.Fatal("Connect failed")
	}

	// Printer powered off: the link drops without a write in flight
	link.connected = false

	if m.Status().Connected {
		t.Error("Expected status to reflect the dropped link")
	}
	if m.Session().State() != StateDisconnected {
		t.Errorf("Expected Disconnected, got %v", m.Session().State())
	}
}

func TestVerify(t *testing.T) {
	link := &fakeLink{connected: true}
	m := newTestManager(&fakeTransport{link: link})

	if ok, _ := m.Connect(context.Background(), Device{Address: "AA:BB:CC:DD:EE:FF"}); !ok {
		t.Fatal("Connect failed")
	}

	if err := m.Verify(context.Background()); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	sent := string(link.written)
	for _, want := range []string{
		"SIZE 40.0 mm,20.0 mm\r\n",
		"CLS\r\n",
		fmt.Sprintf("TEXT %d,%d,\"%d\",0,1,1,\"TEST\"\r\n", 8, 8, 1),
		"PRINT 1\r\n",
	} {
		if !strings.Contains(sent, want) {
			t.Errorf("Verify stream missing %q\ngot: %q", want, sent)
		}
	}
}

func TestVerify_NotConnected(t *testing.T) {
	m := newTestManager(&fakeTransport{})

	if err := m.Verify(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}
