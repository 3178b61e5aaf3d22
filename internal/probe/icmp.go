package probe

import (
	"context"
	"fmt"
	"runtime"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// Compile-time interface guard.
var _ Prober = (*ICMPProber)(nil)

// ICMPProber pings targets using ICMP via pro-bing. Each Probe call sends
// a single echo request.
type ICMPProber struct {
	timeout    time.Duration
	privileged bool
}

// NewICMPProber creates an ICMP prober with the given per-attempt timeout.
// Privileged (raw-socket) mode is selected automatically on platforms that
// require it.
func NewICMPProber(timeout time.Duration) *ICMPProber {
	return &ICMPProber{
		timeout:    timeout,
		privileged: runtime.GOOS == "windows",
	}
}

// Probe sends one ICMP echo request and waits up to the configured timeout
// for the reply.
func (p *ICMPProber) Probe(ctx context.Context, address string) (Result, error) {
	pinger, err := probing.NewPinger(address)
	if err != nil {
		return Result{}, fmt.Errorf("create pinger for %s: %w", address, err)
	}

	pinger.Count = 1
	pinger.Timeout = p.timeout
	pinger.SetPrivileged(p.privileged)

	// Run pinger in a goroutine for context cancellation.
	done := make(chan error, 1)
	go func() {
		done <- pinger.Run()
	}()

	select {
	case runErr := <-done:
		stats := pinger.Statistics()
		if runErr != nil {
			return Result{}, fmt.Errorf("ping %s: %w", address, runErr)
		}
		if stats.PacketsRecv == 0 {
			return Result{}, nil
		}
		return Result{Alive: true, RTT: stats.AvgRtt}, nil

	case <-ctx.Done():
		pinger.Stop()
		return Result{}, ctx.Err()
	}
}
