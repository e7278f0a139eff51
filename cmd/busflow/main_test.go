package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"busflow/internal/config"
	"busflow/internal/source"
)

func testConfig(t *testing.T, input string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	if err := os.WriteFile(path, []byte(input), 0o644); err != nil {
		t.Fatal(err)
	}
	return &config.Config{
		InputSource:       config.SourceFile,
		InputFile:         path,
		OutputFormat:      "table",
		RecordsTable:      "ridership_records",
		NATSSubjectPrefix: "ridership",
		MetricsTextfile:   filepath.Join(dir, "busflow.prom"),
		LogLevel:          "info",
	}
}

func TestRun_Table(t *testing.T) {
	cfg := testConfig(t, "L1,10:2,5:1\nL2,3:0\nbad_line_no_colon\nL1,abc:2\n")
	var out bytes.Buffer
	if err := run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "1. Line L1 - 15 passengers") {
		t.Errorf("unexpected report:\n%s", out.String())
	}
	prom, err := os.ReadFile(cfg.MetricsTextfile)
	if err != nil {
		t.Fatalf("metrics textfile: %v", err)
	}
	if !strings.Contains(string(prom), `busflow_malformed_stops_total{line="L1"} 1`) {
		t.Errorf("malformed stop not counted:\n%s", prom)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	cfg := testConfig(t, "\nL9\n")
	var out bytes.Buffer
	if err := run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "No valid data") {
		t.Errorf("unexpected report:\n%s", out.String())
	}
}

func TestRun_MissingFile(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.InputFile = filepath.Join(t.TempDir(), "nope.csv")
	err := run(context.Background(), cfg, &bytes.Buffer{})
	if !errors.Is(err, source.ErrInputUnavailable) {
		t.Fatalf("err = %v, want ErrInputUnavailable", err)
	}
}

func TestApp_FormatFlag(t *testing.T) {
	tests := []struct {
		format     string
		wantPrefix string
	}{
		{"csv", "line,total_boarding"},
		{"CSV", "line,total_boarding"},
		{"Boarding", "Line       Boarding"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out := runApp(t, "L1,1:0\n", "--format", tt.format, "--source", "FILE")
			if !strings.HasPrefix(out, tt.wantPrefix) {
				t.Errorf("unexpected output:\n%s", out)
			}
		})
	}
}

func runApp(t *testing.T, input string, args ...string) string {
	t.Helper()
	cfg := testConfig(t, input)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("INPUT_SOURCE", "")
	t.Setenv("OUTPUT_FORMAT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("NATS_URL", "")
	t.Setenv("METRICS_TEXTFILE", "")

	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	argv := append([]string{"busflow", "--file", cfg.InputFile}, args...)
	if err := app.Run(argv); err != nil {
		t.Fatalf("app: %v", err)
	}
	return out.String()
}
