package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/drivelab/internal/dynamo"
)

// State layout of the differential drive plant.
const (
	DiffX = iota
	DiffY
	DiffHeading
	DiffLeftSpeed
	DiffRightSpeed
	DiffTravel
)

const (
	DefaultMaxVoltage   = 12.0
	DefaultMaxSpeed     = 60.0 // in/s at full voltage
	DefaultTrackWidth   = 11.5 // in
	DefaultTimeConstant = 0.08 // s
)

// DifferentialDrive is a two-sided skid-steer platform. Each side is a
// first-order velocity lag driven by its voltage; the body follows
// unicycle kinematics. Heading is counter-clockwise from +X.
//
// Control: [left volts, right volts].
// State: [x, y, heading, left speed, right speed, forward travel].
type DifferentialDrive struct {
	MaxVoltage   float64
	MaxSpeed     float64
	TrackWidth   float64
	TimeConstant float64
}

func NewDifferentialDrive() *DifferentialDrive {
	return &DifferentialDrive{
		MaxVoltage:   DefaultMaxVoltage,
		MaxSpeed:     DefaultMaxSpeed,
		TrackWidth:   DefaultTrackWidth,
		TimeConstant: DefaultTimeConstant,
	}
}

func (d *DifferentialDrive) StateDim() int   { return 6 }
func (d *DifferentialDrive) ControlDim() int { return 2 }

func (d *DifferentialDrive) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	heading := x[DiffHeading]
	vl, vr := x[DiffLeftSpeed], x[DiffRightSpeed]

	var volts [2]float64
	copy(volts[:], u)

	targetL := d.MaxSpeed * clampUnit(volts[0]/d.MaxVoltage)
	targetR := d.MaxSpeed * clampUnit(volts[1]/d.MaxVoltage)

	tau := math.Max(d.TimeConstant, 1e-6)
	v := (vl + vr) / 2

	return dynamo.State{
		v * math.Cos(heading),
		v * math.Sin(heading),
		(vr - vl) / d.TrackWidth,
		(targetL - vl) / tau,
		(targetR - vr) / tau,
		v,
	}
}

// Velocities returns the forward and angular velocity of a plant state.
func (d *DifferentialDrive) Velocities(x dynamo.State) (linear, angular float64) {
	vl, vr := x[DiffLeftSpeed], x[DiffRightSpeed]
	return (vl + vr) / 2, (vr - vl) / d.TrackWidth
}

func (d *DifferentialDrive) GetParams() map[string]float64 {
	return map[string]float64{
		"max_voltage":   d.MaxVoltage,
		"max_speed":     d.MaxSpeed,
		"track_width":   d.TrackWidth,
		"time_constant": d.TimeConstant,
	}
}

func (d *DifferentialDrive) SetParam(name string, value float64) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive: %w", name, dynamo.ErrParameterBounds)
	}
	switch name {
	case "max_voltage":
		d.MaxVoltage = value
	case "max_speed":
		d.MaxSpeed = value
	case "track_width":
		d.TrackWidth = value
	case "time_constant":
		d.TimeConstant = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
