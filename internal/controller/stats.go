package controller

import (
	"time"

	"github.com/rcrowley/go-metrics"
)

// Stats are safe to read from other goroutines (the status server) while the
// loop updates them.
type Stats struct {
	Registry     metrics.Registry
	Committed    metrics.Meter
	Dropped      metrics.Counter
	Malformed    metrics.Counter
	Commands     metrics.Counter
	Unknown      metrics.Counter
	RenderErrors metrics.Counter
	Reassembly   metrics.Timer
	Brightness   metrics.Gauge
}

func NewStats(r metrics.Registry) *Stats {
	if r == nil {
		r = metrics.NewRegistry()
	}
	return &Stats{
		Registry:     r,
		Committed:    metrics.GetOrRegisterMeter("frames.committed", r),
		Dropped:      metrics.GetOrRegisterCounter("frames.dropped", r),
		Malformed:    metrics.GetOrRegisterCounter("frames.malformed", r),
		Commands:     metrics.GetOrRegisterCounter("control.commands", r),
		Unknown:      metrics.GetOrRegisterCounter("control.unknown", r),
		RenderErrors: metrics.GetOrRegisterCounter("render.errors", r),
		Reassembly:   metrics.GetOrRegisterTimer("frames.reassembly", r),
		Brightness:   metrics.GetOrRegisterGauge("brightness", r),
	}
}

type Snapshot struct {
	Frames       int64   `json:"frames"`
	FPS          float64 `json:"fps"`
	Dropped      int64   `json:"dropped"`
	Malformed    int64   `json:"malformed"`
	Commands     int64   `json:"commands"`
	Unknown      int64   `json:"unknown_commands"`
	RenderErrors int64   `json:"render_errors"`
	Brightness   int64   `json:"brightness"`
	ReassemblyMS float64 `json:"reassembly_p95_ms"`
}

func (s *Stats) Snapshot() Snapshot {
	m := s.Committed.Snapshot()
	return Snapshot{
		Frames:       m.Count(),
		FPS:          m.Rate1(),
		Dropped:      s.Dropped.Count(),
		Malformed:    s.Malformed.Count(),
		Commands:     s.Commands.Count(),
		Unknown:      s.Unknown.Count(),
		RenderErrors: s.RenderErrors.Count(),
		Brightness:   s.Brightness.Value(),
		ReassemblyMS: s.Reassembly.Percentile(0.95) / float64(time.Millisecond),
	}
}
