package subnet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Slade-Bennett/pingnetworks/pkg/models"
)

// ErrInvalidFormat is returned when an input matches none of the accepted
// network notations.
var ErrInvalidFormat = errors.New("invalid network format")

// acceptedForms is included in parse errors so operators can see every
// notation the parser understands.
const acceptedForms = `accepted forms: "10.0.0.0/24" (CIDR), ` +
	`"192.168.1.10-192.168.1.50" (range), "10.0.0.5" (single IP), ` +
	`ip + subnet mask ("10.0.0.0" + "255.255.255.0"), ip + cidr ("10.0.0.0" + "24")`

// RawInput is one loosely-typed network row before parsing. It comes from a
// CSV column set, a spreadsheet row, or a plain text line. Either Network
// holds a combined notation, or IP is paired with SubnetMask or CIDR.
type RawInput struct {
	Network    string
	IP         string
	SubnetMask string
	CIDR       string
}

// Parse normalizes one raw input into a NetworkDescriptor. It is a pure
// function: no side effects, same output for same input.
//
// Pattern order, first match wins: combined field, CIDR string, range
// string, single IP, ip+mask/cidr pair.
func Parse(in RawInput) (models.NetworkDescriptor, error) {
	if in.Network != "" {
		return ParseString(in.Network)
	}
	if in.IP != "" && (in.SubnetMask != "" || in.CIDR != "") {
		return parseTraditional(in.IP, in.SubnetMask, in.CIDR)
	}
	return models.NetworkDescriptor{}, fmt.Errorf("%w: %+v (%s)", ErrInvalidFormat, in, acceptedForms)
}

// ParseString normalizes a combined network notation string.
func ParseString(s string) (models.NetworkDescriptor, error) {
	s = strings.TrimSpace(s)

	switch {
	case strings.Contains(s, "/"):
		return parseCIDR(s)
	case strings.Contains(s, "-"):
		return parseRange(s)
	default:
		ip, err := parseIPv4(s)
		if err != nil {
			return models.NetworkDescriptor{}, fmt.Errorf("%w: %q (%s)", ErrInvalidFormat, s, acceptedForms)
		}
		addr := formatIPv4(ip)
		return models.NetworkDescriptor{
			Kind:    models.KindSingleIP,
			StartIP: addr,
			EndIP:   addr,
			Display: addr,
		}, nil
	}
}

func parseCIDR(s string) (models.NetworkDescriptor, error) {
	base, prefixStr, ok := strings.Cut(s, "/")
	if !ok {
		return models.NetworkDescriptor{}, fmt.Errorf("%w: %q (%s)", ErrInvalidFormat, s, acceptedForms)
	}

	ip, err := parseIPv4(base)
	if err != nil {
		return models.NetworkDescriptor{}, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, s, err)
	}

	prefix, err := strconv.Atoi(prefixStr)
	if err != nil || prefix < 0 || prefix > 32 {
		return models.NetworkDescriptor{}, fmt.Errorf("%w: %q: prefix length must be 0-32", ErrInvalidFormat, s)
	}

	return models.NetworkDescriptor{
		Kind:         models.KindCIDR,
		BaseIP:       formatIPv4(ip),
		PrefixLength: prefix,
		Mask:         formatIPv4(prefixToMask(prefix)),
		Display:      fmt.Sprintf("%s/%d", formatIPv4(ip), prefix),
	}, nil
}

func parseRange(s string) (models.NetworkDescriptor, error) {
	startStr, endStr, ok := strings.Cut(s, "-")
	if !ok {
		return models.NetworkDescriptor{}, fmt.Errorf("%w: %q (%s)", ErrInvalidFormat, s, acceptedForms)
	}

	start, err := parseIPv4(strings.TrimSpace(startStr))
	if err != nil {
		return models.NetworkDescriptor{}, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, s, err)
	}
	end, err := parseIPv4(strings.TrimSpace(endStr))
	if err != nil {
		return models.NetworkDescriptor{}, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, s, err)
	}
	if end < start {
		return models.NetworkDescriptor{}, fmt.Errorf("%w: %q: range end is below range start", ErrInvalidFormat, s)
	}

	return models.NetworkDescriptor{
		Kind:    models.KindRange,
		StartIP: formatIPv4(start),
		EndIP:   formatIPv4(end),
		Display: formatIPv4(start) + "-" + formatIPv4(end),
	}, nil
}

func parseTraditional(ipStr, maskStr, cidrStr string) (models.NetworkDescriptor, error) {
	ip, err := parseIPv4(ipStr)
	if err != nil {
		return models.NetworkDescriptor{}, fmt.Errorf("%w: ip %q: %v", ErrInvalidFormat, ipStr, err)
	}

	var prefix int
	switch {
	case maskStr != "":
		mask, err := parseIPv4(maskStr)
		if err != nil {
			return models.NetworkDescriptor{}, fmt.Errorf("%w: mask %q: %v", ErrInvalidFormat, maskStr, err)
		}
		prefix, err = maskToPrefix(mask)
		if err != nil {
			return models.NetworkDescriptor{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	default:
		prefix, err = strconv.Atoi(strings.TrimPrefix(cidrStr, "/"))
		if err != nil || prefix < 0 || prefix > 32 {
			return models.NetworkDescriptor{}, fmt.Errorf("%w: cidr %q: prefix length must be 0-32", ErrInvalidFormat, cidrStr)
		}
	}

	return models.NetworkDescriptor{
		Kind:         models.KindTraditional,
		BaseIP:       formatIPv4(ip),
		PrefixLength: prefix,
		Mask:         formatIPv4(prefixToMask(prefix)),
		Display:      fmt.Sprintf("%s/%d", formatIPv4(ip), prefix),
	}, nil
}
