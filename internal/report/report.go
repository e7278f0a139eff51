// Package report renders analysis results for people and other tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"busflow/internal/sim"
)

// TopCount is the number of lines listed as highest volume.
const TopCount = 3

// BoardingRow is the (line, boarding, stops) projection shown in tables.
type BoardingRow struct {
	LineID        string `json:"line" yaml:"line"`
	TotalBoarding int    `json:"totalBoarding" yaml:"total_boarding"`
	StopCount     int    `json:"stopCount" yaml:"stop_count"`
}

// BoardingTable projects the ranked lines onto BoardingRow.
func BoardingTable(r *sim.Report) []BoardingRow {
	rows := make([]BoardingRow, 0, len(r.Lines))
	for _, s := range r.Lines {
		rows = append(rows, BoardingRow{LineID: s.LineID, TotalBoarding: s.TotalBoarding, StopCount: s.StopCount})
	}
	return rows
}

// Document is the structured form written as JSON or YAML.
type Document struct {
	Capacity  int                  `json:"capacity" yaml:"capacity"`
	Lines     []sim.LineStatistics `json:"lines" yaml:"lines"`
	Top       []sim.LineStatistics `json:"top" yaml:"top"`
	LeastFlow *sim.LineStatistics  `json:"leastFlow,omitempty" yaml:"least_flow,omitempty"`
	LeastUsed *sim.LineStatistics  `json:"leastUsed,omitempty" yaml:"least_used,omitempty"`
}

func NewDocument(r *sim.Report) Document {
	doc := Document{Capacity: r.Capacity, Lines: r.Lines}
	if r.Empty() {
		doc.Lines = []sim.LineStatistics{}
		doc.Top = []sim.LineStatistics{}
		return doc
	}
	doc.Top, _ = r.Top(TopCount)
	lf, _ := r.LeastFlow()
	lu, _ := r.LeastUsed()
	doc.LeastFlow, doc.LeastUsed = &lf, &lu
	return doc
}

// Write renders r to w in the given format: table, boarding, csv, json or yaml.
func Write(w io.Writer, format string, r *sim.Report) error {
	switch strings.ToLower(format) {
	case "", "table":
		return WriteTable(w, r)
	case "boarding":
		return WriteBoarding(w, r)
	case "csv":
		return WriteCSV(w, r)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewDocument(r))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(r)); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}

// WriteCSV writes the full statistic set, one row per ranked line.
func WriteCSV(w io.Writer, r *sim.Report) error {
	if r.Empty() {
		_, err := io.WriteString(w, "line,total_boarding,total_alighting,net_flow,peak_occupancy,occupancy_ratio,stop_count\n")
		return err
	}
	return gocsv.Marshal(r.Lines, w)
}

// WriteBoarding writes only the (line, boarding, stops) columns, without summaries.
func WriteBoarding(w io.Writer, r *sim.Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %-10s %-10s\n", "Line", "Boarding", "Stops")
	for _, row := range BoardingTable(r) {
		fmt.Fprintf(&b, "%-10s %-10d %-10d\n", row.LineID, row.TotalBoarding, row.StopCount)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteTable writes the human readable report.
func WriteTable(w io.Writer, r *sim.Report) error {
	if r.Empty() {
		_, err := fmt.Fprintln(w, "No valid data found in the input.")
		return err
	}
	top, err := r.Top(TopCount)
	if err != nil {
		return err
	}
	leastFlow, err := r.LeastFlow()
	if err != nil {
		return err
	}
	leastUsed, err := r.LeastUsed()
	if err != nil {
		return err
	}

	rule := strings.Repeat("=", 46)
	var b strings.Builder
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, center("BUS LINE ANALYSIS", len(rule)))
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "%-10s %-10s %-10s %-12s\n", "Line", "Riders", "Stops", "Peak")
	fmt.Fprintln(&b, strings.Repeat("-", len(rule)))
	for _, s := range r.Lines {
		fmt.Fprintf(&b, "%-10s %-10d %-10d %d (%.1f%%)\n", s.LineID, s.TotalBoarding, s.StopCount, s.PeakOccupancy, s.OccupancyRatio*100)
	}
	fmt.Fprintln(&b, strings.Repeat("-", len(rule)))

	fmt.Fprintln(&b, "\nHIGHEST PASSENGER VOLUME:")
	for i, s := range top {
		fmt.Fprintf(&b, "%d. Line %s - %d passengers\n", i+1, s.LineID, s.TotalBoarding)
	}
	fmt.Fprintf(&b, "\nLOWEST FLOW:\nLine %s - %d passengers\n", leastFlow.LineID, leastFlow.TotalBoarding)
	fmt.Fprintf(&b, "\nLEAST USED:\nLine %s - %d stops\n", leastUsed.LineID, leastUsed.StopCount)
	fmt.Fprintf(&b, "\nVEHICLE CAPACITY: %d passengers\n", r.Capacity)

	_, err = io.WriteString(w, b.String())
	return err
}

func center(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}
