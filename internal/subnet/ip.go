// Package subnet parses network descriptors and enumerates their usable
// host addresses. All math is done on 32-bit big-endian representations of
// IPv4 addresses; IPv6 is not supported.
package subnet

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// parseIPv4 converts a dotted-quad literal to its 32-bit representation,
// validating each octet.
func parseIPv4(s string) (uint32, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return 0, fmt.Errorf("%q is not a dotted-quad IPv4 address", s)
	}

	var ip uint32
	for _, part := range parts {
		octet, err := strconv.Atoi(part)
		if err != nil || part != strconv.Itoa(octet) {
			return 0, fmt.Errorf("invalid octet %q in %q", part, s)
		}
		if octet < 0 || octet > 255 {
			return 0, fmt.Errorf("octet %d out of range in %q", octet, s)
		}
		ip = ip<<8 | uint32(octet)
	}
	return ip, nil
}

// formatIPv4 renders a 32-bit address as a dotted quad.
func formatIPv4(ip uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", ip>>24&0xff, ip>>16&0xff, ip>>8&0xff, ip&0xff)
}

// prefixToMask returns the netmask for a prefix length in [0,32].
func prefixToMask(prefix int) uint32 {
	if prefix <= 0 {
		return 0
	}
	if prefix >= 32 {
		return 0xffffffff
	}
	return ^uint32(0) << (32 - prefix)
}

// maskToPrefix converts a netmask to its prefix length. Non-contiguous
// masks (e.g. 255.0.255.0) are rejected.
func maskToPrefix(mask uint32) (int, error) {
	ones := bits.OnesCount32(mask)
	if mask != prefixToMask(ones) {
		return 0, fmt.Errorf("mask %s is not contiguous", formatIPv4(mask))
	}
	return ones, nil
}
