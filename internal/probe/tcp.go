package probe

import (
	"context"
	"errors"
	"net"
	"strconv"
	"syscall"
	"time"
)

// Compile-time interface guard.
var _ Prober = (*TCPProber)(nil)

// TCPProber checks reachability with a TCP connect instead of ICMP, for
// environments where ICMP is filtered or needs privileges the process does
// not have. A refused connection still proves the host is up; only a
// timeout or routing failure counts as unreachable.
type TCPProber struct {
	timeout time.Duration
	port    int
}

// NewTCPProber creates a TCP-connect prober against the given port.
func NewTCPProber(timeout time.Duration, port int) *TCPProber {
	if port <= 0 {
		port = 80
	}
	return &TCPProber{timeout: timeout, port: port}
}

// Probe attempts a TCP connection to the target port.
func (p *TCPProber) Probe(ctx context.Context, address string) (Result, error) {
	connCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()

	var d net.Dialer
	conn, err := d.DialContext(connCtx, "tcp", net.JoinHostPort(address, strconv.Itoa(p.port)))
	rtt := time.Since(start)

	if err == nil {
		conn.Close()
		return Result{Alive: true, RTT: rtt}, nil
	}

	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	// A RST came back, so something answered on the address.
	if errors.Is(err, syscall.ECONNREFUSED) {
		return Result{Alive: true, RTT: rtt}, nil
	}

	return Result{}, nil
}
