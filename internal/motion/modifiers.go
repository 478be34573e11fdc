package motion

import (
	"log/slog"
	"time"

	"github.com/golang/geo/s1"

	"github.com/san-kum/drivelab/internal/control"
)

// Modifiers return the drive so calls can be chained before the drive is
// handed to an executor. Changing loops or tolerances after the first poll
// takes effect on the next step.

func (d *Drive[L, A]) WithLinearController(c L) *Drive[L, A] {
	d.linearController = c
	return d
}

func (d *Drive[L, A]) WithAngularController(c A) *Drive[L, A] {
	d.angularController = c
	return d
}

func (d *Drive[L, A]) WithTimeout(timeout time.Duration) *Drive[L, A] {
	d.timeout = &timeout
	return d
}

func (d *Drive[L, A]) WithoutTimeout() *Drive[L, A] {
	d.timeout = nil
	return d
}

func (d *Drive[L, A]) WithLinearTolerances(t control.Tolerances) *Drive[L, A] {
	d.linearTolerances = t.Clone()
	return d
}

func (d *Drive[L, A]) WithAngularTolerances(t control.Tolerances) *Drive[L, A] {
	d.angularTolerances = t.Clone()
	return d
}

func (d *Drive[L, A]) WithLinearErrorTolerance(e float64) *Drive[L, A] {
	d.linearTolerances = d.linearTolerances.WithError(e)
	return d
}

func (d *Drive[L, A]) WithoutLinearErrorTolerance() *Drive[L, A] {
	d.linearTolerances = d.linearTolerances.WithoutError()
	return d
}

func (d *Drive[L, A]) WithLinearVelocityTolerance(v float64) *Drive[L, A] {
	d.linearTolerances = d.linearTolerances.WithVelocity(v)
	return d
}

func (d *Drive[L, A]) WithoutLinearVelocityTolerance() *Drive[L, A] {
	d.linearTolerances = d.linearTolerances.WithoutVelocity()
	return d
}

func (d *Drive[L, A]) WithLinearToleranceDuration(dur time.Duration) *Drive[L, A] {
	d.linearTolerances = d.linearTolerances.WithDuration(dur)
	return d
}

func (d *Drive[L, A]) WithoutLinearToleranceDuration() *Drive[L, A] {
	d.linearTolerances = d.linearTolerances.WithoutDuration()
	return d
}

// WithAngularErrorTolerance sets the heading error threshold.
func (d *Drive[L, A]) WithAngularErrorTolerance(e s1.Angle) *Drive[L, A] {
	d.angularTolerances = d.angularTolerances.WithError(e.Abs().Radians())
	return d
}

func (d *Drive[L, A]) WithoutAngularErrorTolerance() *Drive[L, A] {
	d.angularTolerances = d.angularTolerances.WithoutError()
	return d
}

func (d *Drive[L, A]) WithAngularVelocityTolerance(v float64) *Drive[L, A] {
	d.angularTolerances = d.angularTolerances.WithVelocity(v)
	return d
}

func (d *Drive[L, A]) WithoutAngularVelocityTolerance() *Drive[L, A] {
	d.angularTolerances = d.angularTolerances.WithoutVelocity()
	return d
}

func (d *Drive[L, A]) WithAngularToleranceDuration(dur time.Duration) *Drive[L, A] {
	d.angularTolerances = d.angularTolerances.WithDuration(dur)
	return d
}

func (d *Drive[L, A]) WithoutAngularToleranceDuration() *Drive[L, A] {
	d.angularTolerances = d.angularTolerances.WithoutDuration()
	return d
}

// WithoutToleranceDuration drops the settle window on both axes.
func (d *Drive[L, A]) WithoutToleranceDuration() *Drive[L, A] {
	return d.WithoutLinearToleranceDuration().WithoutAngularToleranceDuration()
}

// TuneLinear applies options to the linear loop, e.g.
// TuneLinear(control.OutputLimit(0.5)) on a PID drive.
func (d *Drive[L, A]) TuneLinear(opts ...func(L)) *Drive[L, A] {
	for _, opt := range opts {
		opt(d.linearController)
	}
	return d
}

// TuneAngular applies options to the angular loop.
func (d *Drive[L, A]) TuneAngular(opts ...func(A)) *Drive[L, A] {
	for _, opt := range opts {
		opt(d.angularController)
	}
	return d
}

func (d *Drive[L, A]) WithLogger(logger *slog.Logger) *Drive[L, A] {
	if logger != nil {
		d.logger = logger
	}
	return d
}
