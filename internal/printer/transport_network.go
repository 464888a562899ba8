package printer

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// DefaultRawPort is the conventional raw-print TCP port
const DefaultRawPort = 9100

// NetworkTransport reaches printers over raw TCP. It has no broadcast
// discovery; Scan probes a configured candidate host list instead.
type NetworkTransport struct {
	Hosts []string // candidate "host" or "host:port" entries
	Port  int      // default port for entries without one
}

// NewNetworkTransport creates a TCP transport probing the given hosts
func NewNetworkTransport(hosts []string) *NetworkTransport {
	return &NetworkTransport{Hosts: hosts, Port: DefaultRawPort}
}

// Scan probes every candidate host and returns the ones that accept a
// connection within the context deadline
func (t *NetworkTransport) Scan(ctx context.Context, includeKnown bool) ([]Device, error) {
	var devices []Device
	dialer := &net.Dialer{Timeout: 2 * time.Second}

	for _, host := range t.Hosts {
		if err := ctx.Err(); err != nil {
			break
		}

		address := host
		if _, _, err := net.SplitHostPort(host); err != nil {
			address = fmt.Sprintf("%s:%d", host, t.port())
		}

		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			continue
		}
		conn.Close()

		devices = append(devices, Device{
			Name:    host,
			Address: address,
			Kind:    "network",
		})
	}

	return devices, nil
}

// Connect dials the printer's raw port
func (t *NetworkTransport) Connect(ctx context.Context, address string) (Link, error) {
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = fmt.Sprintf("%s:%d", address, t.port())
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to network printer: %w", err)
	}

	return &networkLink{conn: conn, up: true}, nil
}

func (t *NetworkTransport) port() int {
	if t.Port == 0 {
		return DefaultRawPort
	}
	return t.Port
}

// networkLink is an open TCP connection
type networkLink struct {
	conn net.Conn
	mu   sync.Mutex
	up   bool
}

// Write sends data, marking the link down on failure
func (l *networkLink) Write(data []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn == nil || !l.up {
		return 0, ErrNotConnected
	}

	n, err := l.conn.Write(data)
	if err != nil {
		l.up = false
		return n, err
	}
	return n, nil
}

// Connected reports whether the socket is still usable
func (l *networkLink) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.conn != nil && l.up
}

// Close closes the socket
func (l *networkLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.up = false
	if l.conn != nil {
		err := l.conn.Close()
		l.conn = nil
		return err
	}
	return nil
}
