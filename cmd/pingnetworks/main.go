package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Slade-Bennett/pingnetworks/internal/config"
	"github.com/Slade-Bennett/pingnetworks/internal/version"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to configuration file")
		showVersion = flag.Bool("version", false, "print version and exit")

		networks  = flag.String("networks", "", "comma-separated networks to scan (CIDR, range, or single IP)")
		inputFile = flag.String("input-file", "", "file of networks to scan, one per line or CSV")

		throttle  = flag.Int("throttle", 0, "maximum hosts probed concurrently")
		timeout   = flag.Duration("timeout", 0, "timeout per probe attempt")
		retries   = flag.Int("retries", -1, "retries per lost ping")
		count     = flag.Int("count", 0, "pings per host")
		maxPings  = flag.Int("max-pings", -1, "cap on hosts scanned per network, 0 = unlimited")
		exclude   = flag.String("exclude", "", "comma-separated IPs or IP ranges to skip")
		oddOnly   = flag.Bool("odd-only", false, "scan only hosts with an odd last octet")
		evenOnly  = flag.Bool("even-only", false, "scan only hosts with an even last octet")
		rateLimit = flag.Int("rate-limit", -1, "probes per second across all workers, 0 = unlimited")

		probeMode = flag.String("probe-mode", "", "probe primitive: icmp or tcp")

		checkpointPath     = flag.String("checkpoint", "", "write progress snapshots to this path")
		checkpointInterval = flag.Int("checkpoint-interval", 0, "completed hosts between snapshots")
		resumePath         = flag.String("resume", "", "resume an interrupted scan from this checkpoint")

		compareBaseline  = flag.String("compare-baseline", "", "JSON report to diff the scan against")
		compareLast      = flag.Bool("compare-last", false, "diff against the most recent scan in the history database")
		minChanges       = flag.Int("min-changes", -1, "minimum change count before the report is actionable")
		minChangePct     = flag.Float64("min-change-pct", -1, "minimum changed percentage before the report is actionable")
		alertNewOnly     = flag.Bool("alert-new-only", false, "gate alerts on new devices only")
		alertOfflineOnly = flag.Bool("alert-offline-only", false, "gate alerts on offline devices only")

		outputJSON  = flag.String("output-json", "", "write the scan report as JSON to this path")
		outputCSV   = flag.String("output-csv", "", "write the scan report as CSV to this path")
		historyDB   = flag.String("history-db", "", "SQLite database archiving completed scans")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("starting", zap.Any("build", version.Map()))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	// Explicitly passed flags override file and environment values.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "networks":
			cfg.Set("scan.networks", splitList(*networks))
		case "input-file":
			cfg.Set("scan.input_file", *inputFile)
		case "throttle":
			cfg.Set("scan.throttle", *throttle)
		case "timeout":
			cfg.Set("scan.timeout", *timeout)
		case "retries":
			cfg.Set("scan.retries", *retries)
		case "count":
			cfg.Set("scan.count", *count)
		case "max-pings":
			cfg.Set("scan.max_pings", *maxPings)
		case "exclude":
			cfg.Set("scan.exclude", splitList(*exclude))
		case "odd-only":
			cfg.Set("scan.odd_only", *oddOnly)
		case "even-only":
			cfg.Set("scan.even_only", *evenOnly)
		case "rate-limit":
			cfg.Set("scan.rate_limit", *rateLimit)
		case "probe-mode":
			cfg.Set("probe.mode", *probeMode)
		case "checkpoint":
			cfg.Set("checkpoint.path", *checkpointPath)
		case "checkpoint-interval":
			cfg.Set("checkpoint.interval", *checkpointInterval)
		case "resume":
			cfg.Set("checkpoint.resume", *resumePath)
		case "compare-baseline":
			cfg.Set("compare.baseline", *compareBaseline)
		case "compare-last":
			cfg.Set("compare.last", *compareLast)
		case "min-changes":
			cfg.Set("compare.min_changes", *minChanges)
		case "min-change-pct":
			cfg.Set("compare.min_change_pct", *minChangePct)
		case "alert-new-only":
			cfg.Set("compare.alert_new_only", *alertNewOnly)
		case "alert-offline-only":
			cfg.Set("compare.alert_offline_only", *alertOfflineOnly)
		case "output-json":
			cfg.Set("output.json", *outputJSON)
		case "output-csv":
			cfg.Set("output.csv", *outputCSV)
		case "history-db":
			cfg.Set("output.history_db", *historyDB)
		case "metrics-addr":
			cfg.Set("metrics.addr", *metricsAddr)
		}
	})

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("scan failed", zap.Error(err))
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
