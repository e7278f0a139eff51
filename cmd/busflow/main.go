package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"busflow/internal/config"
	"busflow/internal/db"
	"busflow/internal/metrics"
	"busflow/internal/publisher"
	"busflow/internal/report"
	"busflow/internal/ridership"
	"busflow/internal/sim"
	"busflow/internal/source"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("busflow failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "busflow",
		Usage: "Analyse per-stop boarding and alighting counts of bus lines",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "records file (overrides INPUT_FILE)",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "records source: file or db (overrides INPUT_SOURCE)",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "output format: table, boarding, csv, json or yaml (overrides OUTPUT_FORMAT)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if c.IsSet("file") {
				cfg.InputFile = c.String("file")
			}
			if c.IsSet("source") {
				cfg.InputSource = strings.ToLower(c.String("source"))
			}
			if c.IsSet("format") {
				cfg.OutputFormat = strings.ToLower(c.String("format"))
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
				zerolog.SetGlobalLevel(lvl)
			}
			return run(c.Context, cfg, c.App.Writer)
		},
	}
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	start := time.Now()
	mcol := metrics.NewCollector(sim.Capacity)

	records, err := loadRecords(ctx, cfg)
	if err != nil {
		return err
	}
	mcol.RecordsRead.Add(float64(len(records)))

	events := ridership.Parse(records, func(e *ridership.MalformedStopError) {
		log.Warn().Str("line", e.LineID).Str("token", e.Token).Err(e.Err).Msg("skipping malformed stop")
		mcol.MalformedStops.WithLabelValues(e.LineID).Inc()
	})

	rep := sim.Aggregate(events, sim.Capacity)
	mcol.ObserveReport(rep)
	if rep.Empty() {
		log.Warn().Int("records", len(records)).Msg("no valid stop data in input")
	}

	if err := report.Write(out, cfg.OutputFormat, rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if cfg.NATSURL != "" {
		pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.LogNATSSubjects, mcol)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		err = pub.PublishReport(rep, report.TopCount)
		pub.Close()
		if err != nil {
			return fmt.Errorf("publish report: %w", err)
		}
		log.Info().Int("lines", len(rep.Lines)).Str("prefix", cfg.NATSSubjectPrefix).Msg("report published")
	}

	mcol.ObserveRun(time.Since(start))
	if cfg.MetricsTextfile != "" {
		if err := mcol.WriteTextfile(cfg.MetricsTextfile); err != nil {
			log.Error().Err(err).Str("path", cfg.MetricsTextfile).Msg("write metrics textfile")
		}
	}
	return nil
}

func loadRecords(ctx context.Context, cfg *config.Config) ([]string, error) {
	switch cfg.InputSource {
	case config.SourceDB:
		return db.LoadRecords(ctx, cfg.DatabaseURL, cfg.RecordsTable)
	default:
		records, err := source.ReadFile(cfg.InputFile)
		if errors.Is(err, source.ErrInputUnavailable) {
			return nil, fmt.Errorf("records file %q: %w", cfg.InputFile, err)
		}
		return records, err
	}
}
