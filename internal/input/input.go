// Package input yields raw network values from the supported sources —
// plain text lines or CSV rows — before they reach the parser.
package input

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Slade-Bennett/pingnetworks/internal/subnet"
)

// FromStrings wraps already-collected notation strings (e.g. CLI arguments)
// as raw inputs.
func FromStrings(values []string) []subnet.RawInput {
	out := make([]subnet.RawInput, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, subnet.RawInput{Network: v})
	}
	return out
}

// ReadFile loads raw network inputs from a file, dispatching on extension:
// .csv is parsed as CSV, anything else as one notation per line.
func ReadFile(path string) ([]subnet.RawInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return readCSV(f)
	}
	return readLines(f)
}

// readLines yields one raw input per non-empty line. Lines starting with
// '#' are comments.
func readLines(r io.Reader) ([]subnet.RawInput, error) {
	var out []subnet.RawInput
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, subnet.RawInput{Network: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input lines: %w", err)
	}
	return out, nil
}

// csvColumn names recognized in the header row.
const (
	colNetwork    = "network"
	colIP         = "ip"
	colSubnetMask = "subnet_mask"
	colCIDR       = "cidr"
)

// readCSV yields one raw input per data row. The header row decides the
// shape: either a combined "network" column, or "ip" plus "subnet_mask"
// and/or "cidr".
func readCSV(r io.Reader) ([]subnet.RawInput, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := index[colNetwork]; !ok {
		if _, ok := index[colIP]; !ok {
			return nil, fmt.Errorf("csv header needs a %q column or an %q column, got %v",
				colNetwork, colIP, header)
		}
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []subnet.RawInput
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		in := subnet.RawInput{
			Network:    field(row, colNetwork),
			IP:         field(row, colIP),
			SubnetMask: field(row, colSubnetMask),
			CIDR:       field(row, colCIDR),
		}
		if in.Network == "" && in.IP == "" {
			continue // blank row
		}
		out = append(out, in)
	}
	return out, nil
}
