package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"busflow/internal/sim"
)

type Collector struct {
	reg *prometheus.Registry

	RecordsRead     prometheus.Counter
	StopEvents      prometheus.Counter
	MalformedStops  *prometheus.CounterVec // line label
	LinesAggregated prometheus.Gauge

	TotalBoarding  *prometheus.GaugeVec
	PeakOccupancy  *prometheus.GaugeVec
	OccupancyRatio *prometheus.GaugeVec

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	PublishDuration prometheus.Histogram

	RunDuration prometheus.Gauge // seconds
	Capacity    prometheus.Gauge
}

func NewCollector(capacity int) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busflow_records_read_total",
			Help: "Raw records read from the input source.",
		}),
		StopEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busflow_stop_events_total",
			Help: "Valid stop events parsed.",
		}),
		MalformedStops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busflow_malformed_stops_total",
			Help: "Stop tokens skipped because they could not be parsed.",
		}, []string{"line"}),
		LinesAggregated: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busflow_lines",
			Help: "Number of lines with at least one valid stop event.",
		}),
		TotalBoarding: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "busflow_line_boarding",
			Help: "Total boardings per line.",
		}, []string{"line"}),
		PeakOccupancy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "busflow_line_peak_occupancy",
			Help: "Peak onboard occupancy per line.",
		}, []string{"line"}),
		OccupancyRatio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "busflow_line_occupancy_ratio",
			Help: "Peak occupancy divided by vehicle capacity.",
		}, []string{"line"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busflow_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busflow_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "busflow_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busflow_run_duration_seconds",
			Help: "Wall time of the last analysis run.",
		}),
		Capacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busflow_vehicle_capacity",
			Help: "Vehicle capacity used to clamp occupancy.",
		}),
	}

	reg.MustRegister(
		c.RecordsRead, c.StopEvents, c.MalformedStops, c.LinesAggregated,
		c.TotalBoarding, c.PeakOccupancy, c.OccupancyRatio,
		c.NATSPublished, c.NATSPublishErrs, c.PublishDuration,
		c.RunDuration, c.Capacity,
	)
	c.Capacity.Set(float64(capacity))

	return c
}

// ObserveReport records the per-line statistics of a finished report.
func (c *Collector) ObserveReport(r *sim.Report) {
	c.LinesAggregated.Set(float64(len(r.Lines)))
	for _, s := range r.Lines {
		c.StopEvents.Add(float64(s.StopCount))
		c.TotalBoarding.WithLabelValues(s.LineID).Set(float64(s.TotalBoarding))
		c.PeakOccupancy.WithLabelValues(s.LineID).Set(float64(s.PeakOccupancy))
		c.OccupancyRatio.WithLabelValues(s.LineID).Set(s.OccupancyRatio)
	}
}

func (c *Collector) ObserveRun(d time.Duration) { c.RunDuration.Set(d.Seconds()) }

func (c *Collector) NATSPublishedInc()              { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc()             { c.NATSPublishErrs.Inc() }
func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }

// WriteTextfile writes all metrics to path in the node_exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.reg)
}
