package models

// DescriptorKind identifies which notation a NetworkDescriptor was parsed from.
type DescriptorKind string

const (
	KindCIDR        DescriptorKind = "cidr"
	KindRange       DescriptorKind = "range"
	KindSingleIP    DescriptorKind = "single"
	KindTraditional DescriptorKind = "traditional"
)

// NetworkDescriptor is the canonical description of one scan target network.
// Exactly one kind-consistent field set is populated:
//
//	cidr/traditional: BaseIP + PrefixLength (+ Mask for traditional input)
//	range/single:     StartIP + EndIP (equal for single)
//
// Descriptors are created once by the parser and never mutated afterwards.
type NetworkDescriptor struct {
	Kind         DescriptorKind `json:"kind"`
	BaseIP       string         `json:"base_ip,omitempty"`
	PrefixLength int            `json:"prefix_length,omitempty"`
	Mask         string         `json:"mask,omitempty"`
	StartIP      string         `json:"start_ip,omitempty"`
	EndIP        string         `json:"end_ip,omitempty"`

	// Display is the identifier hosts report as their originating network,
	// e.g. "10.0.0.0/24" or "192.168.1.1-192.168.1.5".
	Display string `json:"display"`
}

// HostTask is one address queued for probing. Tasks are produced by the
// enumerator and consumed exactly once by the scheduler.
type HostTask struct {
	Network string `json:"network"`
	Address string `json:"address"`
}

// Key returns the (network, address) identity used for checkpoint dedup
// and baseline comparison.
func (t HostTask) Key() string {
	return t.Network + "|" + t.Address
}
