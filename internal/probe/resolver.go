package probe

import (
	"context"
	"net"
	"strings"
	"time"
)

// Compile-time interface guard.
var _ Resolver = (*DNSResolver)(nil)

// DNSResolver performs reverse lookups through the system resolver.
type DNSResolver struct {
	resolver *net.Resolver
	timeout  time.Duration
}

// NewDNSResolver creates a reverse-DNS resolver with the given per-lookup
// timeout.
func NewDNSResolver(timeout time.Duration) *DNSResolver {
	return &DNSResolver{
		resolver: net.DefaultResolver,
		timeout:  timeout,
	}
}

// Reverse returns the first PTR name for the address, without the trailing
// dot. A lookup failure returns an error the caller is expected to ignore.
func (r *DNSResolver) Reverse(ctx context.Context, address string) (string, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	names, err := r.resolver.LookupAddr(lookupCtx, address)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", nil
	}
	return strings.TrimSuffix(names[0], "."), nil
}
