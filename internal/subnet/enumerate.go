package subnet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Slade-Bennett/pingnetworks/pkg/models"
)

// ErrConflictingParity is returned when both odd-only and even-only
// filtering are requested.
var ErrConflictingParity = errors.New("odd-only and even-only filters are mutually exclusive")

// Filter narrows the enumerated host set. The pipeline order is fixed:
// exclusions first, then last-octet parity, then the per-network cap.
type Filter struct {
	Exclude  *ExclusionSet
	OddOnly  bool
	EvenOnly bool
	MaxHosts int // 0 means unlimited
}

// FilterFromParameters builds a Filter from persisted scan parameters.
func FilterFromParameters(p models.ScanParameters) (Filter, error) {
	excl, err := ParseExclusions(p.ExcludeIPs)
	if err != nil {
		return Filter{}, err
	}
	return Filter{
		Exclude:  excl,
		OddOnly:  p.OddOnly,
		EvenOnly: p.EvenOnly,
		MaxHosts: p.MaxHostsPerNetwork,
	}, nil
}

// Enumerate expands a descriptor into its usable host tasks, in ascending
// address order, with the filter pipeline applied.
//
// CIDR and traditional descriptors exclude the network and broadcast
// addresses; /31 and /32 therefore yield zero hosts, which is not an error.
// An empty post-filter result is likewise valid — the caller just skips the
// network.
func Enumerate(desc models.NetworkDescriptor, filter Filter) ([]models.HostTask, error) {
	if filter.OddOnly && filter.EvenOnly {
		return nil, ErrConflictingParity
	}

	start, end, err := usableRange(desc)
	if err != nil {
		return nil, err
	}
	if start > end {
		return nil, nil
	}

	tasks := make([]models.HostTask, 0, end-start+1)
	for addr := start; ; addr++ {
		if keep(addr, filter) {
			tasks = append(tasks, models.HostTask{
				Network: desc.Display,
				Address: formatIPv4(addr),
			})
			if filter.MaxHosts > 0 && len(tasks) >= filter.MaxHosts {
				break
			}
		}
		if addr == end { // checked after the body so 255.255.255.255 can't wrap
			break
		}
	}
	return tasks, nil
}

// usableRange returns the inclusive [start, end] host range of a descriptor.
// A returned start > end means the descriptor has no usable hosts.
func usableRange(desc models.NetworkDescriptor) (start, end uint32, err error) {
	switch desc.Kind {
	case models.KindCIDR, models.KindTraditional:
		base, err := parseIPv4(desc.BaseIP)
		if err != nil {
			return 0, 0, fmt.Errorf("descriptor base ip: %w", err)
		}
		mask := prefixToMask(desc.PrefixLength)
		network := base & mask
		broadcast := network | ^mask
		if desc.PrefixLength >= 31 {
			return 1, 0, nil // no usable hosts
		}
		return network + 1, broadcast - 1, nil

	case models.KindRange, models.KindSingleIP:
		start, err := parseIPv4(desc.StartIP)
		if err != nil {
			return 0, 0, fmt.Errorf("descriptor start ip: %w", err)
		}
		end, err := parseIPv4(desc.EndIP)
		if err != nil {
			return 0, 0, fmt.Errorf("descriptor end ip: %w", err)
		}
		return start, end, nil

	default:
		return 0, 0, fmt.Errorf("unknown descriptor kind %q", desc.Kind)
	}
}

func keep(addr uint32, filter Filter) bool {
	if filter.Exclude.Contains(addr) {
		return false
	}
	lastOctet := addr & 0xff
	if filter.OddOnly && lastOctet%2 == 0 {
		return false
	}
	if filter.EvenOnly && lastOctet%2 == 1 {
		return false
	}
	return true
}

// ExclusionSet holds individual addresses and sub-ranges to skip during
// enumeration.
type ExclusionSet struct {
	ranges []ipRange
}

type ipRange struct {
	start, end uint32
}

// ParseExclusions builds an ExclusionSet from entries of the form
// "10.0.0.5" or "10.0.0.100-10.0.0.120".
func ParseExclusions(entries []string) (*ExclusionSet, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	set := &ExclusionSet{}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		startStr, endStr, isRange := strings.Cut(entry, "-")
		start, err := parseIPv4(strings.TrimSpace(startStr))
		if err != nil {
			return nil, fmt.Errorf("exclusion %q: %w", entry, err)
		}
		end := start
		if isRange {
			end, err = parseIPv4(strings.TrimSpace(endStr))
			if err != nil {
				return nil, fmt.Errorf("exclusion %q: %w", entry, err)
			}
			if end < start {
				return nil, fmt.Errorf("exclusion %q: range end is below range start", entry)
			}
		}
		set.ranges = append(set.ranges, ipRange{start: start, end: end})
	}
	return set, nil
}

// Contains reports whether addr falls inside any excluded range. A nil set
// contains nothing.
func (s *ExclusionSet) Contains(addr uint32) bool {
	if s == nil {
		return false
	}
	for _, r := range s.ranges {
		if addr >= r.start && addr <= r.end {
			return true
		}
	}
	return false
}
