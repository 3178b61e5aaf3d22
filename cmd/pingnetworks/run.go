package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Slade-Bennett/pingnetworks/internal/baseline"
	"github.com/Slade-Bennett/pingnetworks/internal/checkpoint"
	"github.com/Slade-Bennett/pingnetworks/internal/config"
	"github.com/Slade-Bennett/pingnetworks/internal/history"
	"github.com/Slade-Bennett/pingnetworks/internal/input"
	"github.com/Slade-Bennett/pingnetworks/internal/probe"
	"github.com/Slade-Bennett/pingnetworks/internal/report"
	"github.com/Slade-Bennett/pingnetworks/internal/scan"
	"github.com/Slade-Bennett/pingnetworks/internal/subnet"
	"github.com/Slade-Bennett/pingnetworks/pkg/models"
)

func run(cfg *config.Config, logger *zap.Logger) error {
	if addr := cfg.MetricsAddr(); addr != "" {
		go serveMetrics(addr, logger)
	}

	// Build the work queue: either fresh from the configured networks, or
	// rehydrated from a checkpoint. A bad checkpoint is fatal here, never
	// silently replaced by a fresh scan.
	params := cfg.Parameters()
	var prior []models.HostRecord
	var networks []scan.EnumeratedNetwork

	if resumePath := cfg.ResumeCheckpoint(); resumePath != "" {
		state, err := checkpoint.Load(resumePath)
		if err != nil {
			return fmt.Errorf("cannot resume: %w", err)
		}
		params = state.Parameters
		prior = state.CompletedResults
		networks, err = checkpoint.Resume(state)
		if err != nil {
			return err
		}
		logger.Info("resuming from checkpoint",
			zap.String("path", resumePath),
			zap.Int("completed_hosts", len(prior)),
			zap.Int("remaining_networks", len(networks)),
		)
	} else {
		var err error
		networks, err = buildQueue(cfg, params)
		if err != nil {
			return err
		}
	}

	var histStore *history.Store
	if dbPath := cfg.HistoryDB(); dbPath != "" {
		var err error
		histStore, err = history.New(dbPath)
		if err != nil {
			return fmt.Errorf("open history database: %w", err)
		}
		defer histStore.Close()
	}

	// When diffing against the previous archived scan, grab the baseline
	// before this run is saved on top of it.
	baselineReport, err := loadBaseline(cfg, histStore)
	if err != nil {
		return err
	}

	sched := newScheduler(cfg, params, prior, logger)

	// First SIGINT/SIGTERM starts the graceful drain; in-flight hosts
	// finish and a final checkpoint is written.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		sig, ok := <-sigCh
		if !ok {
			return
		}
		logger.Info("received shutdown signal, draining in-flight probes",
			zap.String("signal", sig.String()))
		sched.Control().Stop()
	}()
	notifyPauseSignals(sched.Control(), logger)

	total := 0
	for _, n := range networks {
		total += len(n.Tasks)
	}

	start := time.Now().UTC()
	records := sched.Run(context.Background(), networks)
	end := time.Now().UTC()

	merged := checkpoint.MergeRecords(prior, records)
	rep := report.Build(merged, start, end)

	completed := len(records) == total
	if completed && cfg.CheckpointPath() != "" {
		mgr := checkpoint.NewManager(cfg.CheckpointPath(), logger)
		if err := mgr.Remove(); err != nil {
			logger.Warn("could not remove obsolete checkpoint", zap.Error(err))
		}
	}

	online := 0
	for _, rec := range merged {
		if rec.Reachable {
			online++
		}
	}
	logger.Info("scan complete",
		zap.Int("hosts", len(merged)),
		zap.Int("online", online),
		zap.Duration("duration", end.Sub(start)),
		zap.Bool("partial", !completed),
	)

	if path := cfg.OutputJSON(); path != "" {
		if err := report.WriteJSON(rep, path); err != nil {
			return err
		}
		logger.Info("wrote JSON report", zap.String("path", path))
	}
	if path := cfg.OutputCSV(); path != "" {
		if err := report.WriteCSV(rep, path); err != nil {
			return err
		}
		logger.Info("wrote CSV report", zap.String("path", path))
	}
	if histStore != nil {
		id, err := histStore.SaveReport(context.Background(), rep)
		if err != nil {
			return fmt.Errorf("archive scan: %w", err)
		}
		logger.Info("archived scan", zap.String("scan_id", id))
	}

	if baselineReport != nil {
		if err := compareAndEmit(cfg, baselineReport, rep, logger); err != nil {
			return err
		}
	}

	return nil
}

// buildQueue parses and enumerates the configured networks. Any input
// error fails the whole run before probing starts.
func buildQueue(cfg *config.Config, params models.ScanParameters) ([]scan.EnumeratedNetwork, error) {
	raw := input.FromStrings(cfg.Networks())
	if path := cfg.InputFile(); path != "" {
		fromFile, err := input.ReadFile(path)
		if err != nil {
			return nil, err
		}
		raw = append(raw, fromFile...)
	}
	if len(raw) == 0 {
		return nil, errors.New("no networks to scan: pass -networks, -input-file, or -resume")
	}

	filter, err := subnet.FilterFromParameters(params)
	if err != nil {
		return nil, err
	}

	networks := make([]scan.EnumeratedNetwork, 0, len(raw))
	for _, in := range raw {
		desc, err := subnet.Parse(in)
		if err != nil {
			return nil, err
		}
		tasks, err := subnet.Enumerate(desc, filter)
		if err != nil {
			return nil, err
		}
		networks = append(networks, scan.EnumeratedNetwork{Descriptor: desc, Tasks: tasks})
	}
	return networks, nil
}

func newScheduler(cfg *config.Config, params models.ScanParameters, prior []models.HostRecord, logger *zap.Logger) *scan.Scheduler {
	var prober probe.Prober
	switch cfg.ProbeMode() {
	case "tcp":
		prober = probe.NewTCPProber(params.Timeout, cfg.ProbeTCPPort())
	default:
		prober = probe.NewICMPProber(params.Timeout)
	}
	resolver := probe.NewDNSResolver(params.Timeout)

	opts := scan.Options{
		Throttle:           params.Throttle,
		Timeout:            params.Timeout,
		PingsPerHost:       params.PingsPerHost,
		Retries:            params.Retries,
		RateLimit:          params.RateLimit,
		CheckpointInterval: cfg.CheckpointInterval(),
		OnProgress:         progressLogger(logger),
	}

	if path := cfg.CheckpointPath(); path != "" {
		mgr := checkpoint.NewManager(path, logger)
		opts.OnCheckpoint = func(done []models.HostRecord, remaining []models.NetworkDescriptor) {
			all := checkpoint.MergeRecords(prior, done)
			mgr.SaveOrWarn(&models.ScanState{
				Parameters:        params,
				CompletedResults:  all,
				Summary:           models.SummarizeByNetwork(all),
				RemainingNetworks: remaining,
			})
		}
	}

	return scan.NewScheduler(prober, resolver, logger, opts)
}

// progressLogger logs scan progress at most every five seconds, plus the
// final completion line.
func progressLogger(logger *zap.Logger) func(scan.Progress) {
	var last time.Time
	return func(p scan.Progress) {
		if time.Since(last) < 5*time.Second && p.Scanned != p.Total {
			return
		}
		last = time.Now()
		logger.Info("scan progress",
			zap.Int("scanned", p.Scanned),
			zap.Int("total", p.Total),
			zap.Float64("percent", p.Percent),
			zap.Float64("hosts_per_sec", p.RatePerSec),
			zap.Float64("eta_seconds", p.ETASeconds),
		)
	}
}

func loadBaseline(cfg *config.Config, histStore *history.Store) (*models.ScanReport, error) {
	switch {
	case cfg.CompareBaseline() != "":
		return report.LoadBaseline(cfg.CompareBaseline())
	case cfg.CompareLast():
		if histStore == nil {
			return nil, errors.New("-compare-last requires -history-db")
		}
		rep, err := histStore.LatestReport(context.Background())
		if errors.Is(err, history.ErrNoScans) {
			return nil, nil // first archived scan, nothing to diff against
		}
		return rep, err
	default:
		return nil, nil
	}
}

func compareAndEmit(cfg *config.Config, base, current *models.ScanReport, logger *zap.Logger) error {
	changes := baseline.Compare(base.Results, current.Results,
		base.Metadata.EndTime, current.Metadata.EndTime)
	baseline.ApplyGate(changes, baseline.GateOptions{
		MinChanges:          cfg.MinChangesToAlert(),
		MinChangePercentage: cfg.MinChangePercentage(),
		NewOnly:             cfg.AlertNewOnly(),
		OfflineOnly:         cfg.AlertOfflineOnly(),
	})

	logger.Info("baseline comparison",
		zap.Int("new", len(changes.NewDevices)),
		zap.Int("offline", len(changes.OfflineDevices)),
		zap.Int("recovered", len(changes.RecoveredDevices)),
		zap.Bool("actionable", changes.Actionable),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(changes)
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	logger.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server error", zap.Error(err))
	}
}
