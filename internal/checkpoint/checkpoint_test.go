package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Slade-Bennett/pingnetworks/pkg/models"
)

func sampleState() *models.ScanState {
	return &models.ScanState{
		Parameters: models.ScanParameters{
			Throttle:     25,
			Timeout:      2 * time.Second,
			Retries:      1,
			PingsPerHost: 4,
			ExcludeIPs:   []string{"10.0.0.5"},
		},
		CompletedResults: []models.HostRecord{
			{
				Network: "10.0.0.0/24", Address: "10.0.0.1",
				Reachable: true, Hostname: "gw.example.net",
				PingsSent: 4, PingsReceived: 4,
				MinRTTMs: 0.8, MaxRTTMs: 2.1, AvgRTTMs: 1.3,
			},
			{
				Network: "10.0.0.0/24", Address: "10.0.0.2",
				PingsSent: 4, PacketLossPct: 100,
			},
		},
		Summary: map[string]models.NetworkSummary{
			"10.0.0.0/24": {Network: "10.0.0.0/24", HostsScanned: 2, HostsOnline: 1, AvgRTTMs: 1.3},
		},
		RemainingNetworks: []models.NetworkDescriptor{
			{Kind: models.KindCIDR, BaseIP: "10.0.0.0", PrefixLength: 24, Display: "10.0.0.0/24"},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.checkpoint")
	mgr := NewManager(path, zap.NewNop())

	state := sampleState()
	require.NoError(t, mgr.Save(state))
	assert.False(t, state.SavedAt.IsZero(), "Save stamps the snapshot time")

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, state.Parameters, loaded.Parameters)
	assert.Equal(t, state.CompletedResults, loaded.CompletedResults)
	assert.Equal(t, state.Summary, loaded.Summary)
	assert.Equal(t, state.RemainingNetworks, loaded.RemainingNetworks)
	assert.True(t, loaded.SavedAt.Equal(state.SavedAt))
}

func TestSaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.checkpoint")
	mgr := NewManager(path, zap.NewNop())

	require.NoError(t, mgr.Save(sampleState()))

	second := sampleState()
	second.CompletedResults = second.CompletedResults[:1]
	require.NoError(t, mgr.Save(second))

	// No temp files left behind, only the final checkpoint.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "scan.checkpoint", entries[0].Name())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, loaded.CompletedResults, 1)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.checkpoint"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadCorruptFile(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"truncated json", `{"scanParameters": {"throttle": 25`},
		{"not json", "definitely not a checkpoint"},
		{"empty object", `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scan.checkpoint")
			require.NoError(t, os.WriteFile(path, []byte(tc.data), 0o600))

			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
			assert.Contains(t, err.Error(), path, "the error must name the offending file")
		})
	}
}

func TestSaveOrWarnToleratesFailure(t *testing.T) {
	// An unwritable destination must not panic or abort, only warn.
	mgr := NewManager(filepath.Join(t.TempDir(), "no-such-dir", "scan.checkpoint"), zap.NewNop())
	mgr.SaveOrWarn(sampleState())
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.checkpoint")
	mgr := NewManager(path, zap.NewNop())

	require.NoError(t, mgr.Save(sampleState()))
	require.NoError(t, mgr.Remove())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Removing an already-removed checkpoint is fine.
	assert.NoError(t, mgr.Remove())
}
