package metrics

import (
	"math"

	"github.com/golang/geo/s1"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/drivelab/internal/dynamo"
	"github.com/san-kum/drivelab/internal/physics"
)

// Error metrics watch one coordinate of the drive plant state (an index
// such as physics.DiffX or physics.DiffTravel) against a fixed target.

// FinalError is |target - x[index]| at the last sample.
type FinalError struct {
	name   string
	index  int
	target float64
	last   float64
	seen   bool
}

func NewFinalError(index int, target float64) *FinalError {
	return &FinalError{name: "final_error", index: index, target: target}
}

func (f *FinalError) Name() string { return f.name }

func (f *FinalError) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if f.index >= len(x) {
		return
	}
	f.last = math.Abs(f.target - x[f.index])
	f.seen = true
}

func (f *FinalError) Value() float64 {
	if !f.seen {
		return math.NaN()
	}
	return f.last
}

func (f *FinalError) Reset() {
	f.last = 0
	f.seen = false
}

// HeadingError is the absolute heading error in degrees at the last
// sample.
type HeadingError struct {
	name   string
	target s1.Angle
	last   s1.Angle
}

func NewHeadingError(target s1.Angle) *HeadingError {
	return &HeadingError{name: "heading_error_deg", target: target}
}

func (h *HeadingError) Name() string { return h.name }

func (h *HeadingError) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) <= physics.DiffHeading {
		return
	}
	h.last = (h.target - s1.Angle(x[physics.DiffHeading])).Normalized()
}

func (h *HeadingError) Value() float64 { return h.last.Abs().Degrees() }

func (h *HeadingError) Reset() { h.last = 0 }

// SettleTime is the time of the last sample outside +/- band of target,
// i.e. when the coordinate entered the band for good.
type SettleTime struct {
	name    string
	index   int
	target  float64
	band    float64
	outside float64
}

func NewSettleTime(index int, target, band float64) *SettleTime {
	return &SettleTime{name: "settle_time", index: index, target: target, band: band}
}

func (s *SettleTime) Name() string { return s.name }

func (s *SettleTime) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if s.index < len(x) && math.Abs(s.target-x[s.index]) > s.band {
		s.outside = t
	}
}

func (s *SettleTime) Value() float64 { return s.outside }

func (s *SettleTime) Reset() { s.outside = 0 }

// Overshoot is the furthest the coordinate went past the target, in the
// direction it started moving, or 0.
type Overshoot struct {
	name      string
	index     int
	target    float64
	direction float64
	peak      float64
}

func NewOvershoot(index int, target float64) *Overshoot {
	return &Overshoot{name: "overshoot", index: index, target: target}
}

func (o *Overshoot) Name() string { return o.name }

func (o *Overshoot) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if o.index >= len(x) {
		return
	}
	if o.direction == 0 {
		o.direction = math.Copysign(1, o.target-x[o.index])
	}
	o.peak = math.Max(o.peak, o.direction*(x[o.index]-o.target))
}

func (o *Overshoot) Value() float64 { return o.peak }

func (o *Overshoot) Reset() {
	o.direction = 0
	o.peak = 0
}

// RMSError is the root mean square of target - x[index] over the run.
type RMSError struct {
	name   string
	index  int
	target float64
	sq     []float64
}

func NewRMSError(index int, target float64) *RMSError {
	return &RMSError{name: "rms_error", index: index, target: target}
}

func (r *RMSError) Name() string { return r.name }

func (r *RMSError) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if r.index >= len(x) {
		return
	}
	e := r.target - x[r.index]
	r.sq = append(r.sq, e*e)
}

func (r *RMSError) Value() float64 {
	if len(r.sq) == 0 {
		return 0
	}
	return math.Sqrt(stat.Mean(r.sq, nil))
}

func (r *RMSError) Reset() { r.sq = r.sq[:0] }

// Named wraps a metric under a different name, so the same kind of
// metric can be registered twice in one run.
func Named(name string, m dynamo.Metric) dynamo.Metric {
	return &named{Metric: m, name: name}
}

type named struct {
	dynamo.Metric
	name string
}

func (n *named) Name() string { return n.name }
