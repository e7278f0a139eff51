package sim

import (
	"cmp"
	"errors"
	"math"
	"slices"

	"busflow/internal/ridership"
)

// Capacity is the maximum number of passengers a vehicle can carry.
const Capacity = 50

// ErrNoData is returned by report summaries when no line produced a valid stop event.
var ErrNoData = errors.New("no line data")

// LineStatistics is the derived usage of a single line.
type LineStatistics struct {
	LineID         string  `json:"line" yaml:"line" csv:"line"`
	TotalBoarding  int     `json:"totalBoarding" yaml:"total_boarding" csv:"total_boarding"`
	TotalAlighting int     `json:"totalAlighting" yaml:"total_alighting" csv:"total_alighting"`
	NetFlow        int     `json:"netFlow" yaml:"net_flow" csv:"net_flow"`
	PeakOccupancy  int     `json:"peakOccupancy" yaml:"peak_occupancy" csv:"peak_occupancy"`
	OccupancyRatio float64 `json:"occupancyRatio" yaml:"occupancy_ratio" csv:"occupancy_ratio"`
	StopCount      int     `json:"stopCount" yaml:"stop_count" csv:"stop_count"`
}

// Report holds per-line statistics ranked by total boarding, highest first.
type Report struct {
	Capacity int
	Lines    []LineStatistics
}

// Aggregate folds every line's stop events into LineStatistics and ranks them.
// Lines with equal boarding keep the order in which they were first seen.
func Aggregate(events *ridership.LineEvents, capacity int) *Report {
	r := &Report{Capacity: capacity}
	for _, id := range events.Lines() {
		seq := events.Events(id)
		if len(seq) == 0 {
			continue
		}
		r.Lines = append(r.Lines, lineStats(id, seq, capacity))
	}
	slices.SortStableFunc(r.Lines, func(a, b LineStatistics) int {
		return cmp.Compare(b.TotalBoarding, a.TotalBoarding)
	})
	return r
}

func lineStats(id string, seq []ridership.StopEvent, capacity int) LineStatistics {
	s := LineStatistics{LineID: id, StopCount: len(seq)}
	running, peak := 0, 0
	for _, ev := range seq {
		s.TotalBoarding += ev.Boarding
		s.TotalAlighting += ev.Alighting
		// clamp per stop: an overshoot is not carried to later stops.
		// running is in [0, capacity], so bounding the delta keeps the sum exact.
		delta := clamp(subSat(ev.Boarding, ev.Alighting), -capacity-1, capacity+1)
		running = clamp(running+delta, 0, capacity)
		if running > peak {
			peak = running
		}
	}
	s.NetFlow = s.TotalBoarding - s.TotalAlighting
	s.PeakOccupancy = peak
	if capacity > 0 {
		s.OccupancyRatio = float64(peak) / float64(capacity)
	}
	return s
}

// subSat returns x-y, saturating at the int bounds.
func subSat(x, y int) int {
	d := x - y
	if y > 0 && d > x {
		return math.MinInt
	}
	if y < 0 && d < x {
		return math.MaxInt
	}
	return d
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (r *Report) Empty() bool { return len(r.Lines) == 0 }

// Top returns up to n of the highest ranked lines.
func (r *Report) Top(n int) ([]LineStatistics, error) {
	if r.Empty() {
		return nil, ErrNoData
	}
	if n > len(r.Lines) {
		n = len(r.Lines)
	}
	if n < 0 {
		n = 0
	}
	return r.Lines[:n], nil
}

// LeastFlow returns the line with the fewest boardings.
func (r *Report) LeastFlow() (LineStatistics, error) {
	return r.minBy(func(s LineStatistics) int { return s.TotalBoarding })
}

// LeastUsed returns the line with the fewest stops.
func (r *Report) LeastUsed() (LineStatistics, error) {
	return r.minBy(func(s LineStatistics) int { return s.StopCount })
}

// minBy scans the ranked lines; the first one holding the minimum wins.
func (r *Report) minBy(key func(LineStatistics) int) (LineStatistics, error) {
	if r.Empty() {
		return LineStatistics{}, ErrNoData
	}
	best := r.Lines[0]
	for _, s := range r.Lines[1:] {
		if key(s) < key(best) {
			best = s
		}
	}
	return best, nil
}
