// Package probe implements the reachability capability consumed by the
// scan scheduler: one probe attempt against one address, plus best-effort
// reverse-DNS resolution for hosts that answered.
package probe

import (
	"context"
	"time"
)

// Result is the outcome of a single probe attempt.
type Result struct {
	Alive bool
	RTT   time.Duration
}

// Prober executes one probe attempt against an address. Implementations
// must respect ctx for cancellation and deadlines. An unreachable host is
// not an error: it is reported as Alive=false with a nil error. Errors are
// reserved for attempts that could not be made at all (bad address, socket
// setup failure).
type Prober interface {
	Probe(ctx context.Context, address string) (Result, error)
}

// Resolver looks up the hostname for an address. Used best-effort only:
// failures leave the record's hostname empty and never fail the host.
type Resolver interface {
	Reverse(ctx context.Context, address string) (string, error)
}
