package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"busflow/internal/ridership"
	"busflow/internal/sim"
)

func sample() *sim.Report {
	return sim.Aggregate(ridership.Parse([]string{
		"L1,10:2,5:1",
		"L2,3:0",
		"L3,60:0,0:5,2:0",
	}, nil), sim.Capacity)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "table", sample()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"BUS LINE ANALYSIS",
		"1. Line L3 - 62 passengers",
		"2. Line L1 - 15 passengers",
		"3. Line L2 - 3 passengers",
		"LOWEST FLOW:\nLine L2 - 3 passengers",
		"LEAST USED:\nLine L2 - 1 stops",
		"VEHICLE CAPACITY: 50 passengers",
		"50 (100.0%)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, &sim.Report{Capacity: sim.Capacity}); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	if !strings.Contains(buf.String(), "No valid data") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "csv", sample()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d csv lines, want 4:\n%s", len(lines), buf.String())
	}
	if lines[0] != "line,total_boarding,total_alighting,net_flow,peak_occupancy,occupancy_ratio,stop_count" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "L3,62,5,57,50,") {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestWriteJSONAndYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "json", sample()); err != nil {
		t.Fatalf("json: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Top) != 3 || doc.LeastUsed == nil || doc.LeastUsed.LineID != "L2" {
		t.Errorf("json doc = %+v", doc)
	}

	buf.Reset()
	if err := Write(&buf, "yaml", sample()); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var y map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &y); err != nil {
		t.Fatal(err)
	}
	if y["capacity"] != 50 {
		t.Errorf("yaml capacity = %v", y["capacity"])
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, "xml", sample()); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestBoardingTable(t *testing.T) {
	rows := BoardingTable(sample())
	if len(rows) != 3 || rows[0] != (BoardingRow{LineID: "L3", TotalBoarding: 62, StopCount: 3}) {
		t.Errorf("rows = %+v", rows)
	}
}

func TestWriteBoarding(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "boarding", sample()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), buf.String())
	}
	if got := strings.Fields(lines[1]); len(got) != 3 || got[0] != "L3" || got[1] != "62" || got[2] != "3" {
		t.Errorf("first row = %q", lines[1])
	}
	if strings.Contains(buf.String(), "LEAST USED") {
		t.Error("boarding view must not include summaries")
	}

	buf.Reset()
	if err := Write(&buf, "boarding", &sim.Report{Capacity: sim.Capacity}); err != nil {
		t.Fatalf("Write empty: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); !strings.HasPrefix(got, "Line") || strings.Contains(got, "\n") {
		t.Errorf("empty boarding view = %q, want header only", got)
	}
}
