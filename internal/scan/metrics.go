package scan

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the probing engine. Registered on the default
// registry; the binary decides whether to expose them.
//
// Naming follows Prometheus conventions: pingnetworks_ prefix, _total for
// counters, _seconds for durations.
var (
	probesSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pingnetworks_probes_sent_total",
		Help: "Total probe attempts issued, including retries.",
	})

	probeRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pingnetworks_probe_retries_total",
		Help: "Total probe attempts that were retried after a failure.",
	})

	hostsScannedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pingnetworks_hosts_scanned_total",
		Help: "Total hosts fully scanned, by resulting status.",
	}, []string{"status"})

	inFlightProbes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pingnetworks_inflight_probes",
		Help: "Hosts currently being probed. Bounded by the throttle.",
	})

	probeRTTSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pingnetworks_probe_rtt_seconds",
		Help:    "Round-trip time of successful probes.",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})
)

func init() {
	prometheus.MustRegister(
		probesSentTotal,
		probeRetriesTotal,
		hostsScannedTotal,
		inFlightProbes,
		probeRTTSeconds,
	)
}
