package control

import (
	"math"
	"time"
)

// Tolerances decides when an axis has settled.
//
// An axis is within tolerance when |error| <= Error and |velocity| <=
// Velocity; a nil threshold is ignored. With Duration set, the condition
// must hold on every sample for at least Duration before Check reports
// settled. Tolerances carries its window state, so each motion needs its
// own copy.
type Tolerances struct {
	Error    *float64
	Velocity *float64
	Duration *time.Duration

	since    time.Time
	inWindow bool
}

func NewTolerances() Tolerances {
	return Tolerances{}
}

func (t Tolerances) WithError(e float64) Tolerances {
	t.Error = &e
	return t
}

func (t Tolerances) WithVelocity(v float64) Tolerances {
	t.Velocity = &v
	return t
}

func (t Tolerances) WithDuration(d time.Duration) Tolerances {
	t.Duration = &d
	return t
}

func (t Tolerances) WithoutError() Tolerances {
	t.Error = nil
	return t
}

func (t Tolerances) WithoutVelocity() Tolerances {
	t.Velocity = nil
	return t
}

func (t Tolerances) WithoutDuration() Tolerances {
	t.Duration = nil
	return t
}

// Clone returns a copy of t with its own thresholds and a cleared window.
func (t Tolerances) Clone() Tolerances {
	return Tolerances{
		Error:    clonePtr(t.Error),
		Velocity: clonePtr(t.Velocity),
		Duration: clonePtr(t.Duration),
	}
}

// Within reports whether a single sample satisfies the thresholds.
func (t *Tolerances) Within(err, velocity float64) bool {
	if t.Error != nil && math.Abs(err) > *t.Error {
		return false
	}
	if t.Velocity != nil && math.Abs(velocity) > *t.Velocity {
		return false
	}
	return true
}

// Check records a sample taken at now and reports whether the axis has
// settled. A failing sample restarts the settling window.
func (t *Tolerances) Check(err, velocity float64, now time.Time) bool {
	if !t.Within(err, velocity) {
		t.inWindow = false
		return false
	}
	if t.Duration == nil {
		return true
	}
	if !t.inWindow {
		t.since = now
		t.inWindow = true
	}
	return now.Sub(t.since) >= *t.Duration
}

// Reset clears the settling window.
func (t *Tolerances) Reset() {
	t.since = time.Time{}
	t.inWindow = false
}
