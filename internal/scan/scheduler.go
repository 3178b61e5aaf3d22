// Package scan drives enumerated hosts through a Prober under a fixed
// concurrency ceiling, with retry, backoff, progress tracking, and a
// graceful-drain cancellation contract.
package scan

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Slade-Bennett/pingnetworks/internal/probe"
	"github.com/Slade-Bennett/pingnetworks/pkg/models"
)

const (
	defaultThrottle           = 50
	defaultTimeout            = 2 * time.Second
	defaultPingsPerHost       = 4
	defaultCheckpointInterval = 50
)

// EnumeratedNetwork couples one descriptor with its enumerated host tasks.
type EnumeratedNetwork struct {
	Descriptor models.NetworkDescriptor
	Tasks      []models.HostTask
}

// Options configures a scheduler run. Zero values fall back to defaults;
// nil callbacks are simply not invoked.
type Options struct {
	Throttle     int           // concurrent hosts in flight
	Timeout      time.Duration // per probe attempt
	PingsPerHost int
	Retries      int // extra attempts per lost ping, backoff 1s, 2s, 4s, ...
	RateLimit    int // probes per second across all workers, 0 = unlimited

	CheckpointInterval int // completed hosts between checkpoint ticks

	// OnProgress and OnCheckpoint are invoked from the single aggregating
	// goroutine, never from workers, so implementations need no locking.
	OnProgress   func(Progress)
	OnCheckpoint func(completed []models.HostRecord, remaining []models.NetworkDescriptor)
}

func (o Options) withDefaults() Options {
	if o.Throttle <= 0 {
		o.Throttle = defaultThrottle
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.PingsPerHost <= 0 {
		o.PingsPerHost = defaultPingsPerHost
	}
	if o.CheckpointInterval <= 0 {
		o.CheckpointInterval = defaultCheckpointInterval
	}
	return o
}

// Scheduler runs host tasks through a prober with a bounded worker pool.
//
// Records are emitted in completion order, which is non-deterministic
// across runs; callers that need a stable order must sort.
type Scheduler struct {
	prober   probe.Prober
	resolver probe.Resolver
	logger   *zap.Logger
	opts     Options
	control  *Control
	limiter  *rate.Limiter
}

// NewScheduler creates a scheduler. resolver may be nil to skip reverse-DNS
// resolution.
func NewScheduler(prober probe.Prober, resolver probe.Resolver, logger *zap.Logger, opts Options) *Scheduler {
	opts = opts.withDefaults()

	s := &Scheduler{
		prober:   prober,
		resolver: resolver,
		logger:   logger,
		opts:     opts,
		control:  NewControl(),
	}
	if opts.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateLimit)
	}
	return s
}

// Control returns the gate used to pause, resume, or stop this scheduler.
func (s *Scheduler) Control() *Control {
	return s.control
}

// Run probes every task of every network and returns the collected records.
//
// Cancelling ctx (or calling Control().Stop()) triggers the graceful drain:
// admission stops, in-flight hosts finish naturally, and Run still returns
// a valid, possibly partial, record list. Callers always get whatever was
// collected, never nothing.
func (s *Scheduler) Run(ctx context.Context, networks []EnumeratedNetwork) []models.HostRecord {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.control.bind(cancel)

	// Probe attempts are detached from the drain signal: an in-flight host
	// finishes its bounded attempt sequence even after Stop.
	probeCtx := context.WithoutCancel(runCtx)

	tracker := newNetworkTracker(networks)
	var tasks []models.HostTask
	for _, n := range networks {
		if len(n.Tasks) == 0 {
			s.logger.Warn("network has no scannable hosts, skipping",
				zap.String("network", n.Descriptor.Display))
			continue
		}
		tasks = append(tasks, n.Tasks...)
	}
	total := len(tasks)
	s.logger.Info("scan starting",
		zap.Int("hosts", total),
		zap.Int("networks", len(networks)),
		zap.Int("throttle", s.opts.Throttle),
	)

	// Unbuffered task channel so pause and drain take effect immediately.
	taskCh := make(chan models.HostTask)
	resultCh := make(chan models.HostRecord, s.opts.Throttle)

	var wg sync.WaitGroup
	for i := 0; i < s.opts.Throttle; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(runCtx, probeCtx, taskCh, resultCh)
		}()
	}

	go s.feed(runCtx, tasks, taskCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Single aggregator: the only writer of results, progress, and
	// checkpoint callbacks.
	records := make([]models.HostRecord, 0, total)
	progress := newProgressTracker(total)
	for rec := range resultCh {
		records = append(records, rec)
		tracker.complete(rec.Network)

		if s.opts.OnProgress != nil {
			s.opts.OnProgress(progress.snapshot(len(records)))
		}
		if s.opts.OnCheckpoint != nil && len(records)%s.opts.CheckpointInterval == 0 {
			s.opts.OnCheckpoint(snapshotRecords(records), tracker.remaining())
		}
	}

	// One final checkpoint at graceful-abort time.
	if runCtx.Err() != nil && s.opts.OnCheckpoint != nil {
		s.opts.OnCheckpoint(snapshotRecords(records), tracker.remaining())
	}

	s.control.markStopped()
	s.logger.Info("scan finished",
		zap.Int("scanned", len(records)),
		zap.Int("total", total),
		zap.Bool("aborted", runCtx.Err() != nil),
	)
	return records
}

// feed dispatches tasks to the worker pool, honoring the pause gate and
// the drain signal before every admission.
func (s *Scheduler) feed(ctx context.Context, tasks []models.HostTask, taskCh chan<- models.HostTask) {
	defer close(taskCh)
	for _, task := range tasks {
		if !s.control.waitIfPaused(ctx) {
			return
		}
		select {
		case taskCh <- task:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) worker(ctx, probeCtx context.Context, taskCh <-chan models.HostTask, resultCh chan<- models.HostRecord) {
	for task := range taskCh {
		inFlightProbes.Inc()
		rec := s.scanHost(ctx, probeCtx, task)
		inFlightProbes.Dec()
		resultCh <- rec
	}
}

// scanHost runs the full per-host algorithm: PingsPerHost sequential
// attempts (each with retry and backoff), statistics over the successes,
// then best-effort reverse DNS when at least one attempt landed.
func (s *Scheduler) scanHost(ctx, probeCtx context.Context, task models.HostTask) models.HostRecord {
	rec := models.HostRecord{Network: task.Network, Address: task.Address}

	var rtts []time.Duration
	for ping := 0; ping < s.opts.PingsPerHost; ping++ {
		if ping > 0 && ctx.Err() != nil {
			// Draining: finish with the attempts made so far.
			break
		}
		alive, rtt := s.attempt(ctx, probeCtx, task.Address)
		rec.PingsSent++
		if alive {
			rec.PingsReceived++
			rtts = append(rtts, rtt)
			probeRTTSeconds.Observe(rtt.Seconds())
		}
	}

	rec.Reachable = rec.PingsReceived > 0
	if rec.PingsSent > 0 {
		rec.PacketLossPct = 100 * float64(rec.PingsSent-rec.PingsReceived) / float64(rec.PingsSent)
	}
	if len(rtts) > 0 {
		rec.MinRTTMs, rec.MaxRTTMs, rec.AvgRTTMs = rttStats(rtts)
	}

	if rec.Reachable && s.resolver != nil {
		if name, err := s.resolver.Reverse(probeCtx, task.Address); err == nil {
			rec.Hostname = name
		}
	}

	status := models.StatusOffline
	if rec.Reachable {
		status = models.StatusOnline
	}
	hostsScannedTotal.WithLabelValues(status).Inc()

	return rec
}

// attempt issues one ping with up to Retries re-tries. Backoff doubles from
// one second and is interruptible by the drain signal.
func (s *Scheduler) attempt(ctx, probeCtx context.Context, address string) (bool, time.Duration) {
	for try := 0; ; try++ {
		if s.limiter != nil {
			_ = s.limiter.Wait(probeCtx)
		}

		attemptCtx, cancel := context.WithTimeout(probeCtx, s.opts.Timeout)
		res, err := s.prober.Probe(attemptCtx, address)
		cancel()
		probesSentTotal.Inc()

		if err != nil {
			s.logger.Debug("probe attempt failed",
				zap.String("address", address), zap.Int("try", try), zap.Error(err))
		}
		if res.Alive {
			return true, res.RTT
		}
		if try >= s.opts.Retries {
			return false, 0
		}

		probeRetriesTotal.Inc()
		backoff := time.Second << try
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return false, 0
		}
	}
}

func rttStats(rtts []time.Duration) (minMs, maxMs, avgMs float64) {
	min, max := rtts[0], rtts[0]
	var sum time.Duration
	for _, rtt := range rtts {
		if rtt < min {
			min = rtt
		}
		if rtt > max {
			max = rtt
		}
		sum += rtt
	}
	avg := sum / time.Duration(len(rtts))
	toMs := func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
	return toMs(min), toMs(max), toMs(avg)
}

func snapshotRecords(records []models.HostRecord) []models.HostRecord {
	out := make([]models.HostRecord, len(records))
	copy(out, records)
	return out
}

// networkTracker knows which networks still have unrecorded hosts. A
// network leaves the remaining set only when every one of its hosts has a
// record, matching the checkpoint's network-level resume granularity.
type networkTracker struct {
	order []models.NetworkDescriptor
	left  map[string]int
}

func newNetworkTracker(networks []EnumeratedNetwork) *networkTracker {
	t := &networkTracker{left: make(map[string]int, len(networks))}
	for _, n := range networks {
		if len(n.Tasks) == 0 {
			continue
		}
		t.order = append(t.order, n.Descriptor)
		t.left[n.Descriptor.Display] += len(n.Tasks)
	}
	return t
}

func (t *networkTracker) complete(network string) {
	t.left[network]--
}

func (t *networkTracker) remaining() []models.NetworkDescriptor {
	var out []models.NetworkDescriptor
	for _, desc := range t.order {
		if t.left[desc.Display] > 0 {
			out = append(out, desc)
		}
	}
	return out
}
