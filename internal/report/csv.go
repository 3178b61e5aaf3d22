package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Slade-Bennett/pingnetworks/pkg/models"
)

// csvHeaders returns the CSV column headers.
func csvHeaders() []string {
	return []string{
		"network", "address", "reachable", "hostname",
		"pings_sent", "pings_received", "packet_loss_pct",
		"min_rtt_ms", "max_rtt_ms", "avg_rtt_ms",
	}
}

// recordToCSVRow converts a host record to a CSV row (matching csvHeaders
// order).
func recordToCSVRow(r models.HostRecord) []string {
	return []string{
		r.Network,
		r.Address,
		strconv.FormatBool(r.Reachable),
		r.Hostname,
		strconv.Itoa(r.PingsSent),
		strconv.Itoa(r.PingsReceived),
		formatFloat(r.PacketLossPct),
		formatFloat(r.MinRTTMs),
		formatFloat(r.MaxRTTMs),
		formatFloat(r.AvgRTTMs),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// WriteCSV renders the report's host records as CSV at path.
func WriteCSV(r *models.ScanReport, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv report: %w", err)
	}

	if err := renderCSV(r, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func renderCSV(r *models.ScanReport, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeaders()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range r.Results {
		if err := cw.Write(recordToCSVRow(rec)); err != nil {
			return fmt.Errorf("write csv row for %s: %w", rec.Address, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
