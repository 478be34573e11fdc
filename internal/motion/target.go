package motion

import (
	"fmt"

	"github.com/san-kum/drivelab/internal/drivetrain"
)

// Target selects what the linear axis of a drive converges on.
type Target interface {
	fmt.Stringer
	// begin is called once, on the first poll.
	begin(t drivetrain.Tracking)
	linearError(t drivetrain.Tracking) (float64, error)
}

type axis int

const (
	axisX axis = iota
	axisY
)

type coordinateTarget struct {
	axis  axis
	value float64
}

// ToX targets an absolute X coordinate.
func ToX(x float64) Target { return &coordinateTarget{axis: axisX, value: x} }

// ToY targets an absolute Y coordinate.
func ToY(y float64) Target { return &coordinateTarget{axis: axisY, value: y} }

func (c *coordinateTarget) begin(drivetrain.Tracking) {}

func (c *coordinateTarget) linearError(t drivetrain.Tracking) (float64, error) {
	p := t.Position()
	if c.axis == axisX {
		return c.value - p.X, nil
	}
	return c.value - p.Y, nil
}

func (c *coordinateTarget) String() string {
	if c.axis == axisX {
		return fmt.Sprintf("x=%.3f", c.value)
	}
	return fmt.Sprintf("y=%.3f", c.value)
}

type travelTarget struct {
	distance float64
	start    float64
}

// ByDistance targets a signed distance of forward travel, measured from
// where the platform is when the drive is first polled.
func ByDistance(distance float64) Target { return &travelTarget{distance: distance} }

func (d *travelTarget) begin(t drivetrain.Tracking) {
	d.start = t.ForwardTravel()
}

func (d *travelTarget) linearError(t drivetrain.Tracking) (float64, error) {
	return d.distance - (t.ForwardTravel() - d.start), nil
}

func (d *travelTarget) String() string { return fmt.Sprintf("distance=%.3f", d.distance) }

type rangeTarget struct {
	sensor   drivetrain.Rangefinder
	distance float64
}

// ToRange targets a reading of the rangefinder. The sensor looks opposite
// to forward travel, so driving forward grows the reading.
func ToRange(sensor drivetrain.Rangefinder, distance float64) Target {
	return &rangeTarget{sensor: sensor, distance: distance}
}

func (r *rangeTarget) begin(drivetrain.Tracking) {}

func (r *rangeTarget) linearError(drivetrain.Tracking) (float64, error) {
	reading, err := r.sensor.Distance()
	if err != nil {
		return 0, err
	}
	return r.distance - reading, nil
}

func (r *rangeTarget) String() string { return fmt.Sprintf("range=%.3f", r.distance) }
