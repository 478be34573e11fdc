// Package drivetrain defines the collaborators a motion drives and reads:
// an arcade-style actuator, a pose tracker, and a rangefinder.
package drivetrain

import (
	"errors"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
)

var (
	ErrNoMotors   = errors.New("drivetrain: motor group is empty")
	ErrNoReading  = errors.New("drivetrain: no range reading")
	ErrDisconnect = errors.New("drivetrain: device disconnected")
)

// Arcade converts a linear and an angular command into per-side outputs.
// Positive angular turns counter-clockwise. Signals are nominally in
// [-1, 1].
type Arcade interface {
	DriveArcade(linear, angular float64) error
}

// Tracking reports the latest fused pose and velocity estimate. None of
// the methods may block.
type Tracking interface {
	Position() r2.Point
	Heading() s1.Angle
	// ForwardTravel is the signed distance travelled along the heading
	// since tracking started.
	ForwardTravel() float64
	LinearVelocity() float64
	// AngularVelocity is in radians per second.
	AngularVelocity() float64
}

// Rangefinder reports a point-in-time distance along its boresight.
type Rangefinder interface {
	Distance() (float64, error)
}

// Drivetrain pairs an actuator model with the tracker observing it.
type Drivetrain struct {
	Model    Arcade
	Tracking Tracking
}

func New(model Arcade, tracking Tracking) *Drivetrain {
	return &Drivetrain{Model: model, Tracking: tracking}
}

// Stop commands zero output. Callers that cancel a motion by no longer
// polling it use this to leave the actuator safe.
func (d *Drivetrain) Stop() error {
	return d.Model.DriveArcade(0, 0)
}
