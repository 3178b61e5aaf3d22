package scan

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Slade-Bennett/pingnetworks/internal/probe"
	"github.com/Slade-Bennett/pingnetworks/pkg/models"
)

// mockProber is a configurable in-memory prober. It tracks the maximum
// number of concurrent Probe calls so tests can assert the throttle bound.
type mockProber struct {
	delay     time.Duration
	aliveFunc func(address string) bool // nil means everything is alive

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
	calls       atomic.Int64
}

func (m *mockProber) Probe(ctx context.Context, address string) (probe.Result, error) {
	cur := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	m.calls.Add(1)

	for {
		max := m.maxInFlight.Load()
		if cur <= max || m.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return probe.Result{}, ctx.Err()
		}
	}

	if m.aliveFunc == nil || m.aliveFunc(address) {
		return probe.Result{Alive: true, RTT: time.Millisecond}, nil
	}
	return probe.Result{}, nil
}

// Compile-time interface guard.
var _ probe.Prober = (*mockProber)(nil)

// mockResolver resolves every address to a fixed name.
type mockResolver struct {
	name  string
	calls atomic.Int64
}

func (m *mockResolver) Reverse(_ context.Context, _ string) (string, error) {
	m.calls.Add(1)
	return m.name, nil
}

var _ probe.Resolver = (*mockResolver)(nil)

func testNetworks(t *testing.T, hostCounts map[string]int) []EnumeratedNetwork {
	t.Helper()
	var networks []EnumeratedNetwork
	for display, count := range hostCounts {
		n := EnumeratedNetwork{
			Descriptor: models.NetworkDescriptor{Kind: models.KindCIDR, Display: display},
		}
		for i := 1; i <= count; i++ {
			n.Tasks = append(n.Tasks, models.HostTask{
				Network: display,
				Address: testAddr(display, i),
			})
		}
		networks = append(networks, n)
	}
	return networks
}

func testAddr(network string, i int) string {
	return network + "-host-" + string(rune('0'+i/100)) + string(rune('0'+i/10%10)) + string(rune('0'+i%10))
}

func TestSchedulerScansAllHosts(t *testing.T) {
	prober := &mockProber{}
	resolver := &mockResolver{name: "host.example.net"}
	sched := NewScheduler(prober, resolver, zap.NewNop(), Options{
		Throttle:     4,
		Timeout:      time.Second,
		PingsPerHost: 2,
	})

	networks := testNetworks(t, map[string]int{"10.0.0.0/28": 14, "192.168.1.0/29": 6})
	records := sched.Run(context.Background(), networks)

	require.Len(t, records, 20)
	seen := make(map[string]struct{})
	for _, rec := range records {
		seen[rec.Key()] = struct{}{}
		assert.True(t, rec.Reachable)
		assert.Equal(t, 2, rec.PingsSent)
		assert.Equal(t, 2, rec.PingsReceived)
		assert.Zero(t, rec.PacketLossPct)
		assert.Equal(t, "host.example.net", rec.Hostname)
		assert.Greater(t, rec.AvgRTTMs, 0.0)
	}
	assert.Len(t, seen, 20, "no host may be recorded twice")
	assert.Equal(t, StateStopped, sched.Control().State())
}

func TestSchedulerUnreachableHostStatistics(t *testing.T) {
	prober := &mockProber{aliveFunc: func(string) bool { return false }}
	sched := NewScheduler(prober, nil, zap.NewNop(), Options{
		Throttle:     2,
		Timeout:      10 * time.Millisecond,
		PingsPerHost: 3,
		Retries:      0,
	})

	networks := testNetworks(t, map[string]int{"10.0.0.0/30": 2})
	records := sched.Run(context.Background(), networks)

	require.Len(t, records, 2)
	for _, rec := range records {
		assert.False(t, rec.Reachable)
		assert.Empty(t, rec.Hostname)
		assert.Equal(t, 3, rec.PingsSent)
		assert.Equal(t, 0, rec.PingsReceived)
		assert.Equal(t, 100.0, rec.PacketLossPct)
		assert.Zero(t, rec.MinRTTMs)
	}
}

func TestSchedulerPartialLoss(t *testing.T) {
	// Every second attempt against each host fails.
	var n atomic.Int64
	prober := &mockProber{aliveFunc: func(string) bool { return n.Add(1)%2 == 1 }}
	sched := NewScheduler(prober, nil, zap.NewNop(), Options{
		Throttle:     1,
		Timeout:      10 * time.Millisecond,
		PingsPerHost: 4,
		Retries:      0,
	})

	records := sched.Run(context.Background(), testNetworks(t, map[string]int{"10.0.0.1": 1}))

	require.Len(t, records, 1)
	rec := records[0]
	assert.True(t, rec.Reachable)
	assert.Equal(t, 4, rec.PingsSent)
	assert.Equal(t, 2, rec.PingsReceived)
	assert.Equal(t, 50.0, rec.PacketLossPct)
}

func TestSchedulerConcurrencyBound(t *testing.T) {
	const throttle = 3

	prober := &mockProber{delay: 5 * time.Millisecond}
	sched := NewScheduler(prober, nil, zap.NewNop(), Options{
		Throttle:     throttle,
		Timeout:      time.Second,
		PingsPerHost: 1,
	})

	records := sched.Run(context.Background(), testNetworks(t, map[string]int{"10.0.0.0/26": 62}))

	require.Len(t, records, 62)
	assert.LessOrEqual(t, prober.maxInFlight.Load(), int64(throttle),
		"in-flight probes must never exceed the throttle")
	assert.Greater(t, prober.maxInFlight.Load(), int64(1),
		"the pool should actually run probes concurrently")
}

func TestSchedulerProgressReachesTotal(t *testing.T) {
	prober := &mockProber{}

	var last Progress
	var callbacks int
	sched := NewScheduler(prober, nil, zap.NewNop(), Options{
		Throttle:     4,
		Timeout:      time.Second,
		PingsPerHost: 1,
		OnProgress: func(p Progress) {
			// Invoked from the single aggregator goroutine, no locking needed.
			callbacks++
			last = p
		},
	})

	sched.Run(context.Background(), testNetworks(t, map[string]int{"10.0.0.0/28": 14}))

	assert.Equal(t, 14, callbacks)
	assert.Equal(t, 14, last.Scanned)
	assert.Equal(t, 14, last.Total)
	assert.Equal(t, 100.0, last.Percent)
	assert.Greater(t, last.RatePerSec, 0.0)
}

func TestSchedulerCheckpointTicks(t *testing.T) {
	prober := &mockProber{}

	type tick struct {
		completed int
		remaining int
	}
	var ticks []tick
	sched := NewScheduler(prober, nil, zap.NewNop(), Options{
		Throttle:           2,
		Timeout:            time.Second,
		PingsPerHost:       1,
		CheckpointInterval: 5,
		OnCheckpoint: func(done []models.HostRecord, remaining []models.NetworkDescriptor) {
			ticks = append(ticks, tick{completed: len(done), remaining: len(remaining)})
		},
	})

	sched.Run(context.Background(), testNetworks(t, map[string]int{"10.0.0.0/28": 14}))

	require.Len(t, ticks, 2, "14 hosts at interval 5 gives ticks at 5 and 10")
	assert.Equal(t, 5, ticks[0].completed)
	assert.Equal(t, 1, ticks[0].remaining)
	assert.Equal(t, 10, ticks[1].completed)
}

func TestSchedulerGracefulAbort(t *testing.T) {
	prober := &mockProber{delay: 20 * time.Millisecond}

	var finalCompleted, finalRemaining int
	sched := NewScheduler(prober, nil, zap.NewNop(), Options{
		Throttle:           2,
		Timeout:            time.Second,
		PingsPerHost:       1,
		CheckpointInterval: 1000, // only the abort-time tick fires
		OnCheckpoint: func(done []models.HostRecord, remaining []models.NetworkDescriptor) {
			finalCompleted = len(done)
			finalRemaining = len(remaining)
		},
	})

	networks := testNetworks(t, map[string]int{"10.0.0.0/25": 126})

	done := make(chan []models.HostRecord, 1)
	go func() {
		done <- sched.Run(context.Background(), networks)
	}()

	time.Sleep(50 * time.Millisecond)
	sched.Control().Stop()

	var records []models.HostRecord
	select {
	case records = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not drain after Stop")
	}

	// The drain contract: a valid partial record list, never nothing.
	require.NotEmpty(t, records)
	require.Less(t, len(records), 126)
	assert.Equal(t, len(records), finalCompleted, "abort-time checkpoint flushes everything collected")
	assert.Equal(t, 1, finalRemaining)
	assert.Equal(t, StateStopped, sched.Control().State())
}

func TestSchedulerStopBeforeRun(t *testing.T) {
	prober := &mockProber{}
	sched := NewScheduler(prober, nil, zap.NewNop(), Options{
		Throttle:     4,
		Timeout:      time.Second,
		PingsPerHost: 1,
	})

	sched.Control().Stop()
	require.Equal(t, StateDraining, sched.Control().State())

	records := sched.Run(context.Background(), testNetworks(t, map[string]int{"10.0.0.0/26": 62}))

	assert.Empty(t, records, "a stop issued before the run starts must prevent admission")
	assert.Zero(t, prober.calls.Load())
	assert.Equal(t, StateStopped, sched.Control().State())
}

func TestSchedulerContextCancelDrains(t *testing.T) {
	prober := &mockProber{delay: 10 * time.Millisecond}
	sched := NewScheduler(prober, nil, zap.NewNop(), Options{
		Throttle:     2,
		Timeout:      time.Second,
		PingsPerHost: 1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	records := sched.Run(ctx, testNetworks(t, map[string]int{"10.0.0.0/25": 126}))
	assert.NotEmpty(t, records)
	assert.Less(t, len(records), 126)
}

func TestSchedulerPauseBlocksAdmission(t *testing.T) {
	prober := &mockProber{}

	var scanned atomic.Int64
	sched := NewScheduler(prober, nil, zap.NewNop(), Options{
		Throttle:     2,
		Timeout:      time.Second,
		PingsPerHost: 1,
		OnProgress:   func(p Progress) { scanned.Store(int64(p.Scanned)) },
	})

	require.True(t, sched.Control().Pause())

	var wg sync.WaitGroup
	wg.Add(1)
	var records []models.HostRecord
	go func() {
		defer wg.Done()
		records = sched.Run(context.Background(), testNetworks(t, map[string]int{"10.0.0.0/28": 14}))
	}()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, scanned.Load(), "paused scheduler must not admit tasks")
	assert.Equal(t, StatePaused, sched.Control().State())

	require.True(t, sched.Control().Resume())
	wg.Wait()

	assert.Len(t, records, 14)
}

func TestSchedulerSkipsEmptyNetworks(t *testing.T) {
	prober := &mockProber{}
	sched := NewScheduler(prober, nil, zap.NewNop(), Options{
		Throttle:     2,
		Timeout:      time.Second,
		PingsPerHost: 1,
	})

	networks := []EnumeratedNetwork{
		{Descriptor: models.NetworkDescriptor{Display: "10.0.0.0/31"}}, // no usable hosts
		{
			Descriptor: models.NetworkDescriptor{Display: "10.0.0.8/30"},
			Tasks: []models.HostTask{
				{Network: "10.0.0.8/30", Address: "10.0.0.9"},
				{Network: "10.0.0.8/30", Address: "10.0.0.10"},
			},
		},
	}

	records := sched.Run(context.Background(), networks)
	require.Len(t, records, 2)
}

func TestSchedulerEmitsInCompletionOrder(t *testing.T) {
	// The first host is slow, so it must be emitted after the others even
	// though it was enqueued first.
	prober := &mockProber{}
	slow := "10.0.0.0/29-host-001"
	prober.delay = 0
	prober.aliveFunc = func(addr string) bool {
		if addr == slow {
			time.Sleep(60 * time.Millisecond)
		}
		return true
	}

	sched := NewScheduler(prober, nil, zap.NewNop(), Options{
		Throttle:     6,
		Timeout:      time.Second,
		PingsPerHost: 1,
	})

	records := sched.Run(context.Background(), testNetworks(t, map[string]int{"10.0.0.0/29": 6}))
	require.Len(t, records, 6)
	assert.Equal(t, slow, records[5].Address, "slowest host completes last")
}

func TestRTTStats(t *testing.T) {
	min, max, avg := rttStats([]time.Duration{
		2 * time.Millisecond,
		8 * time.Millisecond,
		5 * time.Millisecond,
	})
	assert.Equal(t, 2.0, min)
	assert.Equal(t, 8.0, max)
	assert.Equal(t, 5.0, avg)
}
