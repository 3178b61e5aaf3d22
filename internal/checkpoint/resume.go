package checkpoint

import (
	"fmt"

	"github.com/Slade-Bennett/pingnetworks/internal/scan"
	"github.com/Slade-Bennett/pingnetworks/internal/subnet"
	"github.com/Slade-Bennett/pingnetworks/pkg/models"
)

// Resume rebuilds the scheduler's work queue from a loaded checkpoint.
//
// Only the networks still listed as remaining are re-enumerated; networks
// fully recorded before the snapshot never run again. Within a remaining
// network, hosts whose (network, address) key already has a record are
// skipped, so the pre-checkpoint portion is never probed twice. The
// checkpoint stores remaining work at network granularity, trading a
// cheaper snapshot for re-deriving addresses here.
func Resume(state *models.ScanState) ([]scan.EnumeratedNetwork, error) {
	filter, err := subnet.FilterFromParameters(state.Parameters)
	if err != nil {
		return nil, fmt.Errorf("rebuild enumeration filter: %w", err)
	}

	done := make(map[string]struct{}, len(state.CompletedResults))
	for _, rec := range state.CompletedResults {
		done[rec.Key()] = struct{}{}
	}

	var networks []scan.EnumeratedNetwork
	for _, desc := range state.RemainingNetworks {
		tasks, err := subnet.Enumerate(desc, filter)
		if err != nil {
			return nil, fmt.Errorf("re-enumerate %s: %w", desc.Display, err)
		}

		pending := tasks[:0]
		for _, task := range tasks {
			if _, ok := done[task.Key()]; ok {
				continue
			}
			pending = append(pending, task)
		}
		networks = append(networks, scan.EnumeratedNetwork{Descriptor: desc, Tasks: pending})
	}

	return networks, nil
}

// MergeRecords combines checkpointed records with freshly produced ones,
// deduplicated by (network, address). Checkpointed records win: a host must
// never appear twice in the final result set.
func MergeRecords(completed, fresh []models.HostRecord) []models.HostRecord {
	out := make([]models.HostRecord, 0, len(completed)+len(fresh))
	seen := make(map[string]struct{}, len(completed)+len(fresh))

	for _, rec := range completed {
		if _, ok := seen[rec.Key()]; ok {
			continue
		}
		seen[rec.Key()] = struct{}{}
		out = append(out, rec)
	}
	for _, rec := range fresh {
		if _, ok := seen[rec.Key()]; ok {
			continue
		}
		seen[rec.Key()] = struct{}{}
		out = append(out, rec)
	}
	return out
}
