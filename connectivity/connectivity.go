// Package connectivity answers a single question: does the device
// currently have a working path to the internet?
package connectivity

import (
	"net"
	"time"
)

type State int

const (
	Offline State = iota
	Online
)

func (s State) String() string {
	switch s {
	case Offline:
		return "OFFLINE"
	case Online:
		return "ONLINE"
	default:
		return "INVALID STATE"
	}
}

type Reporter interface {
	CurrentState() State
}

// ProbeReporter decides connectivity by attempting a TCP handshake to a
// well-known host. Any failure counts as Offline, never as an error.
type ProbeReporter struct {
	address string
	timeout time.Duration
}

// check ProbeReporter compliance to its interface during compile time
var _ Reporter = (*ProbeReporter)(nil)

// NewProbeReporter probes address (host:port). A zero timeout defaults
// to two seconds.
func NewProbeReporter(address string, timeout time.Duration) *ProbeReporter {
	if timeout == 0 {
		timeout = 2 * time.Second
	}

	return &ProbeReporter{
		address: address,
		timeout: timeout,
	}
}

func (r *ProbeReporter) CurrentState() State {
	conn, err := net.DialTimeout("tcp", r.address, r.timeout)
	if err != nil {
		return Offline
	}

	_ = conn.Close()

	return Online
}

// StaticReporter always reports the same state. Useful in tests and
// mock runs.
type StaticReporter struct {
	State State
}

var _ Reporter = (*StaticReporter)(nil)

func (r *StaticReporter) CurrentState() State {
	return r.State
}
