package printer

import "context"

// Transport is the device-discovery/connect capability of one wireless
// (or tethered) stack. The engine depends on this contract, not on any
// particular stack.
type Transport interface {
	// Scan lists reachable peers within the context deadline. An empty
	// result is not an error; it means no peers were found.
	Scan(ctx context.Context, includeKnown bool) ([]Device, error)

	// Connect opens a link to the peer with the given address
	Connect(ctx context.Context, address string) (Link, error)
}

// Link is one open connection to a printer
type Link interface {
	// Write sends raw command bytes down the link
	Write(data []byte) (int, error)

	// Connected reports the transport's own view of the link. Wireless
	// stacks may report a connect as successful before the link is truly
	// up, so the Manager re-reads this after a settle delay.
	Connected() bool

	// Close tears the link down
	Close() error
}
