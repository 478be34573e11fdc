package drivetrain

import (
	"math"

	"go.uber.org/multierr"
)

// Motor is a single voltage-driven motor.
type Motor interface {
	SetVoltage(volts float64) error
}

// MotorGroup drives several motors on one side with the same voltage.
type MotorGroup []Motor

func (g MotorGroup) SetVoltage(volts float64) error {
	if len(g) == 0 {
		return ErrNoMotors
	}
	var err error
	for _, m := range g {
		err = multierr.Append(err, m.SetVoltage(volts))
	}
	return err
}

const DefaultMaxVoltage = 12.0

// Differential is a skid-steer arcade model. left = linear - angular and
// right = linear + angular; if either side exceeds 1 both are scaled down
// together, preserving the turn ratio, then mapped to MaxVoltage.
type Differential struct {
	Left, Right Motor
	MaxVoltage  float64
}

func NewDifferential(left, right Motor) *Differential {
	return &Differential{Left: left, Right: right, MaxVoltage: DefaultMaxVoltage}
}

// Mix returns the normalized per-side outputs for an arcade command.
func Mix(linear, angular float64) (left, right float64) {
	left = linear - angular
	right = linear + angular
	if peak := math.Max(math.Abs(left), math.Abs(right)); peak > 1 {
		left /= peak
		right /= peak
	}
	return left, right
}

func (d *Differential) DriveArcade(linear, angular float64) error {
	left, right := Mix(linear, angular)
	return multierr.Combine(
		d.Left.SetVoltage(left*d.MaxVoltage),
		d.Right.SetVoltage(right*d.MaxVoltage),
	)
}
