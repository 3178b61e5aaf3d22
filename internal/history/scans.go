package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Slade-Bennett/pingnetworks/pkg/models"
)

// SaveReport archives a completed scan report and returns its scan ID.
func (s *Store) SaveReport(ctx context.Context, report *models.ScanReport) (string, error) {
	id := generateScanID()

	online := 0
	for _, rec := range report.Results {
		if rec.Reachable {
			online++
		}
	}

	err := s.tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO scans (id, started_at, ended_at, duration_ms, total, online)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id,
			report.Metadata.StartTime.UTC().Format(timeFormat),
			report.Metadata.EndTime.UTC().Format(timeFormat),
			report.Metadata.Duration.Milliseconds(),
			len(report.Results),
			online,
		)
		if err != nil {
			return fmt.Errorf("insert scan: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO host_records
				(scan_id, network, address, reachable, hostname, pings_sent,
				 pings_received, min_rtt_ms, max_rtt_ms, avg_rtt_ms, packet_loss_pct)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare record insert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range report.Results {
			if _, err := stmt.ExecContext(ctx,
				id, rec.Network, rec.Address, rec.Reachable, rec.Hostname,
				rec.PingsSent, rec.PingsReceived,
				rec.MinRTTMs, rec.MaxRTTMs, rec.AvgRTTMs, rec.PacketLossPct,
			); err != nil {
				return fmt.Errorf("insert record %s/%s: %w", rec.Network, rec.Address, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// LatestReport returns the most recently started scan as a report, for use
// as a comparison baseline.
func (s *Store) LatestReport(ctx context.Context) (*models.ScanReport, error) {
	var id string
	var startedAt, endedAt string
	var durationMs int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, ended_at, duration_ms
		FROM scans ORDER BY started_at DESC LIMIT 1`,
	).Scan(&id, &startedAt, &endedAt, &durationMs)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoScans
		}
		return nil, fmt.Errorf("query latest scan: %w", err)
	}

	return s.loadReport(ctx, id, startedAt, endedAt, durationMs)
}

func (s *Store) loadReport(ctx context.Context, id, startedAt, endedAt string, durationMs int64) (*models.ScanReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT network, address, reachable, hostname, pings_sent, pings_received,
		       min_rtt_ms, max_rtt_ms, avg_rtt_ms, packet_loss_pct
		FROM host_records WHERE scan_id = ? ORDER BY network, address`, id)
	if err != nil {
		return nil, fmt.Errorf("query records for scan %q: %w", id, err)
	}
	defer rows.Close()

	var records []models.HostRecord
	for rows.Next() {
		var rec models.HostRecord
		if err := rows.Scan(&rec.Network, &rec.Address, &rec.Reachable, &rec.Hostname,
			&rec.PingsSent, &rec.PingsReceived,
			&rec.MinRTTMs, &rec.MaxRTTMs, &rec.AvgRTTMs, &rec.PacketLossPct,
		); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	start, err := time.Parse(timeFormat, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse scan start time: %w", err)
	}
	end, err := time.Parse(timeFormat, endedAt)
	if err != nil {
		return nil, fmt.Errorf("parse scan end time: %w", err)
	}

	return &models.ScanReport{
		Results: records,
		Summary: models.SummarizeByNetwork(records),
		Metadata: models.ScanMetadata{
			StartTime: start,
			EndTime:   end,
			Duration:  time.Duration(durationMs) * time.Millisecond,
		},
	}, nil
}
