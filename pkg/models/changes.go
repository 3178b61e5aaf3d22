package models

import "time"

// Host status labels used in change reports.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// ChangedDevice is one host whose presence or reachability differs between
// a baseline scan and the current scan.
type ChangedDevice struct {
	Network        string `json:"network"`
	Address        string `json:"address"`
	PreviousStatus string `json:"previous_status,omitempty"`
	CurrentStatus  string `json:"current_status,omitempty"`
}

// ComparisonMetadata describes the two result sets a ChangeReport was
// computed from.
type ComparisonMetadata struct {
	BaselineTime  time.Time `json:"baseline_time"`
	CurrentTime   time.Time `json:"current_time"`
	BaselineHosts int       `json:"baseline_hosts"`
	CurrentHosts  int       `json:"current_hosts"`
}

// ChangeReport classifies topology changes between two scans. Gating only
// sets Actionable; it never removes entries.
type ChangeReport struct {
	NewDevices       []ChangedDevice    `json:"new_devices"`
	OfflineDevices   []ChangedDevice    `json:"offline_devices"`
	RecoveredDevices []ChangedDevice    `json:"recovered_devices"`
	Metadata         ComparisonMetadata `json:"comparison_metadata"`
	Actionable       bool               `json:"actionable"`
}

// TotalChanges returns the number of classified changes across all categories.
func (r *ChangeReport) TotalChanges() int {
	return len(r.NewDevices) + len(r.OfflineDevices) + len(r.RecoveredDevices)
}
