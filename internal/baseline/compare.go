// Package baseline diffs two completed scans and classifies topology
// changes: hosts that appeared, went offline, or recovered.
package baseline

import (
	"sort"
	"time"

	"github.com/Slade-Bennett/pingnetworks/pkg/models"
)

// Compare diffs two immutable record sets keyed by (network, address).
//
// Hosts present only in the baseline are ignored, not reported offline:
// a network excluded from the current run says nothing about its hosts.
// Categories are sorted by (network, address) so reports are stable even
// though scan output order is not.
func Compare(baselineSet, current []models.HostRecord, baselineTime, currentTime time.Time) *models.ChangeReport {
	base := indexByKey(baselineSet)
	report := &models.ChangeReport{
		NewDevices:       []models.ChangedDevice{},
		OfflineDevices:   []models.ChangedDevice{},
		RecoveredDevices: []models.ChangedDevice{},
		Metadata: models.ComparisonMetadata{
			BaselineTime:  baselineTime,
			CurrentTime:   currentTime,
			BaselineHosts: len(baselineSet),
			CurrentHosts:  len(current),
		},
	}

	for _, cur := range current {
		prev, known := base[cur.Key()]
		switch {
		case !known:
			report.NewDevices = append(report.NewDevices, models.ChangedDevice{
				Network:       cur.Network,
				Address:       cur.Address,
				CurrentStatus: statusOf(cur),
			})
		case prev.Reachable && !cur.Reachable:
			report.OfflineDevices = append(report.OfflineDevices, changed(prev, cur))
		case !prev.Reachable && cur.Reachable:
			report.RecoveredDevices = append(report.RecoveredDevices, changed(prev, cur))
		}
	}

	sortDevices(report.NewDevices)
	sortDevices(report.OfflineDevices)
	sortDevices(report.RecoveredDevices)
	return report
}

// GateOptions controls when a change report is flagged actionable for a
// downstream notifier. Gating never discards report data.
type GateOptions struct {
	MinChanges          int
	MinChangePercentage float64
	NewOnly             bool // count only new devices toward the thresholds
	OfflineOnly         bool // count only offline devices toward the thresholds
}

// ApplyGate sets the report's Actionable flag. The report fires when the
// relevant change count meets MinChanges, or when the changed fraction of
// the current host set meets MinChangePercentage.
func ApplyGate(report *models.ChangeReport, opts GateOptions) {
	relevant := report.TotalChanges()
	switch {
	case opts.NewOnly:
		relevant = len(report.NewDevices)
	case opts.OfflineOnly:
		relevant = len(report.OfflineDevices)
	}

	if relevant == 0 {
		report.Actionable = false
		return
	}

	if opts.MinChanges > 0 && relevant >= opts.MinChanges {
		report.Actionable = true
		return
	}
	if opts.MinChangePercentage > 0 && report.Metadata.CurrentHosts > 0 {
		pct := 100 * float64(relevant) / float64(report.Metadata.CurrentHosts)
		if pct >= opts.MinChangePercentage {
			report.Actionable = true
			return
		}
	}

	// No thresholds configured: any relevant change is actionable.
	report.Actionable = opts.MinChanges == 0 && opts.MinChangePercentage == 0
}

func indexByKey(records []models.HostRecord) map[string]models.HostRecord {
	out := make(map[string]models.HostRecord, len(records))
	for _, rec := range records {
		out[rec.Key()] = rec
	}
	return out
}

func statusOf(rec models.HostRecord) string {
	if rec.Reachable {
		return models.StatusOnline
	}
	return models.StatusOffline
}

func changed(prev, cur models.HostRecord) models.ChangedDevice {
	return models.ChangedDevice{
		Network:        cur.Network,
		Address:        cur.Address,
		PreviousStatus: statusOf(prev),
		CurrentStatus:  statusOf(cur),
	}
}

func sortDevices(devices []models.ChangedDevice) {
	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Network != devices[j].Network {
			return devices[i].Network < devices[j].Network
		}
		return devices[i].Address < devices[j].Address
	})
}
