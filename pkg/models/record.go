package models

import "time"

// HostRecord is the immutable result of probing one host.
//
// Invariants: PacketLossPct == 100 * (PingsSent - PingsReceived) / PingsSent,
// and Reachable == (PingsReceived > 0). RTT fields are computed over
// successful probes only and are zero when no probe succeeded.
type HostRecord struct {
	Network       string  `json:"network"`
	Address       string  `json:"address"`
	Reachable     bool    `json:"reachable"`
	Hostname      string  `json:"hostname,omitempty"`
	PingsSent     int     `json:"pings_sent"`
	PingsReceived int     `json:"pings_received"`
	MinRTTMs      float64 `json:"min_rtt_ms"`
	MaxRTTMs      float64 `json:"max_rtt_ms"`
	AvgRTTMs      float64 `json:"avg_rtt_ms"`
	PacketLossPct float64 `json:"packet_loss_pct"`
}

// Key returns the (network, address) identity of the record.
func (r HostRecord) Key() string {
	return r.Network + "|" + r.Address
}

// ScanParameters captures every knob that shaped a scan. They are persisted
// in checkpoints so a resumed scan continues with identical behavior.
type ScanParameters struct {
	Throttle           int           `json:"throttle"`
	Timeout            time.Duration `json:"timeout"`
	Retries            int           `json:"retries"`
	PingsPerHost       int           `json:"pings_per_host"`
	MaxHostsPerNetwork int           `json:"max_hosts_per_network,omitempty"`
	ExcludeIPs         []string      `json:"exclude_ips,omitempty"`
	OddOnly            bool          `json:"odd_only,omitempty"`
	EvenOnly           bool          `json:"even_only,omitempty"`
	RateLimit          int           `json:"rate_limit,omitempty"`
}

// NetworkSummary aggregates the records of one network.
type NetworkSummary struct {
	Network      string  `json:"network"`
	HostsScanned int     `json:"hosts_scanned"`
	HostsOnline  int     `json:"hosts_online"`
	AvgRTTMs     float64 `json:"avg_rtt_ms"`
}

// ScanState is the checkpoint payload. Field names on the wire follow the
// established checkpoint file format.
type ScanState struct {
	Parameters        ScanParameters            `json:"scanParameters"`
	CompletedResults  []HostRecord              `json:"completedResults"`
	Summary           map[string]NetworkSummary `json:"summaryData"`
	RemainingNetworks []NetworkDescriptor       `json:"remainingNetworks"`
	SavedAt           time.Time                 `json:"savedAt"`
}

// ScanMetadata describes when a scan ran and how long it took.
type ScanMetadata struct {
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
}

// ScanReport is the immutable output value handed to renderers and stores.
type ScanReport struct {
	Results  []HostRecord              `json:"results"`
	Summary  map[string]NetworkSummary `json:"summary_by_network"`
	Metadata ScanMetadata              `json:"scan_metadata"`
}

// SummarizeByNetwork builds per-network summaries from a record list.
func SummarizeByNetwork(records []HostRecord) map[string]NetworkSummary {
	out := make(map[string]NetworkSummary)
	rttTotals := make(map[string]float64)
	for _, r := range records {
		s := out[r.Network]
		s.Network = r.Network
		s.HostsScanned++
		if r.Reachable {
			s.HostsOnline++
			rttTotals[r.Network] += r.AvgRTTMs
		}
		out[r.Network] = s
	}
	for network, s := range out {
		if s.HostsOnline > 0 {
			s.AvgRTTMs = rttTotals[network] / float64(s.HostsOnline)
			out[network] = s
		}
	}
	return out
}
