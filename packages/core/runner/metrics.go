package runner

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// LatencySummary describes the request latencies of a run.
type LatencySummary struct {
	Requests int64         `json:"requests"`
	Min      time.Duration `json:"min"`
	Max      time.Duration `json:"max"`
	Mean     time.Duration `json:"mean"`
	P50      time.Duration `json:"p50"`
	P95      time.Duration `json:"p95"`
	P99      time.Duration `json:"p99"`
}

// latencyRecorder collects request durations with microsecond precision.
// Anything slower than one minute is counted as one minute.
type latencyRecorder struct {
	histogram *hdrhistogram.Histogram
}

func newLatencyRecorder() *latencyRecorder {
	return &latencyRecorder{
		histogram: hdrhistogram.New(1, 60_000_000, 3),
	}
}

func (l *latencyRecorder) record(d time.Duration) {
	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	if ceiling := l.histogram.HighestTrackableValue(); us > ceiling {
		us = ceiling
	}
	_ = l.histogram.RecordValue(us)
}

func (l *latencyRecorder) summary() LatencySummary {
	h := l.histogram
	if h.TotalCount() == 0 {
		return LatencySummary{}
	}
	return LatencySummary{
		Requests: h.TotalCount(),
		Min:      time.Duration(h.Min()) * time.Microsecond,
		Max:      time.Duration(h.Max()) * time.Microsecond,
		Mean:     time.Duration(h.Mean()) * time.Microsecond,
		P50:      time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
		P95:      time.Duration(h.ValueAtQuantile(95)) * time.Microsecond,
		P99:      time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
	}
}
