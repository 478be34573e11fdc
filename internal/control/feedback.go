package control

import (
	"time"

	"github.com/golang/geo/s1"
)

// Feedback computes a control signal from a measured state and a setpoint.
// dt is the time elapsed since the previous update.
type Feedback[S any] interface {
	Update(measured, setpoint S, dt time.Duration) float64
}

// LinearFeedback is a scalar feedback loop that can produce an independent
// copy of itself, accumulators included.
type LinearFeedback[T any] interface {
	Feedback[float64]
	Clone() T
}

// AngularFeedback is a heading feedback loop that can produce an
// independent copy of itself.
type AngularFeedback[T any] interface {
	Feedback[s1.Angle]
	Clone() T
}

func clamp(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
