package sim

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"

	"github.com/san-kum/drivelab/internal/drivetrain"
	"github.com/san-kum/drivelab/internal/dynamo"
	"github.com/san-kum/drivelab/internal/physics"
)

// ErrNoRange is returned by a RangeSensor that does not see the wall.
var ErrNoRange = fmt.Errorf("sim: wall out of sensor range: %w", drivetrain.ErrNoReading)

type Pose struct {
	Position r2.Point
	Heading  s1.Angle
}

// Robot is a simulated differential drive platform. It is the actuator
// and the tracker for a drivetrain.Drivetrain; the plant advances only
// when Step is called.
type Robot struct {
	plant      *physics.DifferentialDrive
	integrator dynamo.Integrator

	state dynamo.State
	volts dynamo.Control
	t     float64

	motorFault error
}

func NewRobot(plant *physics.DifferentialDrive, integrator dynamo.Integrator, start Pose) *Robot {
	state := make(dynamo.State, plant.StateDim())
	state[physics.DiffX] = start.Position.X
	state[physics.DiffY] = start.Position.Y
	state[physics.DiffHeading] = start.Heading.Radians()
	return &Robot{
		plant:      plant,
		integrator: integrator,
		state:      state,
		volts:      make(dynamo.Control, plant.ControlDim()),
	}
}

// Drivetrain wires the robot's motors through a Differential model and
// uses the robot itself for tracking.
func (r *Robot) Drivetrain() *drivetrain.Drivetrain {
	model := drivetrain.NewDifferential(r.Left(), r.Right())
	model.MaxVoltage = r.plant.MaxVoltage
	return drivetrain.New(model, r)
}

func (r *Robot) Left() drivetrain.Motor  { return sideMotor{robot: r, side: 0} }
func (r *Robot) Right() drivetrain.Motor { return sideMotor{robot: r, side: 1} }

// FailMotors makes every motor write fail with err until called with nil.
func (r *Robot) FailMotors(err error) { r.motorFault = err }

func (r *Robot) Step(dt float64) {
	r.state = r.integrator.Step(r.plant, r.state, r.volts, r.t, dt)
	r.t += dt
}

func (r *Robot) Plant() *physics.DifferentialDrive { return r.plant }

func (r *Robot) State() dynamo.State { return r.state.Clone() }

func (r *Robot) Voltages() dynamo.Control {
	c := make(dynamo.Control, len(r.volts))
	copy(c, r.volts)
	return c
}

func (r *Robot) Position() r2.Point {
	return r2.Point{X: r.state[physics.DiffX], Y: r.state[physics.DiffY]}
}

func (r *Robot) Heading() s1.Angle {
	return s1.Angle(r.state[physics.DiffHeading]).Normalized()
}

func (r *Robot) ForwardTravel() float64 { return r.state[physics.DiffTravel] }

func (r *Robot) LinearVelocity() float64 {
	v, _ := r.plant.Velocities(r.state)
	return v
}

func (r *Robot) AngularVelocity() float64 {
	_, w := r.plant.Velocities(r.state)
	return w
}

type sideMotor struct {
	robot *Robot
	side  int
}

func (m sideMotor) SetVoltage(volts float64) error {
	if m.robot.motorFault != nil {
		return m.robot.motorFault
	}
	m.robot.volts[m.side] = volts
	return nil
}

// RangeSensor is a rear-facing rangefinder looking at a wall on the line
// x = WallX behind the robot.
type RangeSensor struct {
	robot    *Robot
	WallX    float64
	MaxRange float64

	dropouts int
}

func NewRangeSensor(robot *Robot, wallX, maxRange float64) *RangeSensor {
	return &RangeSensor{robot: robot, WallX: wallX, MaxRange: maxRange}
}

// Drop makes the next n reads fail as if the sensor were unplugged.
func (s *RangeSensor) Drop(n int) { s.dropouts = n }

func (s *RangeSensor) Distance() (float64, error) {
	if s.dropouts > 0 {
		s.dropouts--
		return 0, drivetrain.ErrDisconnect
	}

	p := s.robot.Position()
	cos := math.Cos(s.robot.Heading().Radians())
	if math.Abs(cos) < 1e-6 {
		return 0, ErrNoRange
	}
	d := (p.X - s.WallX) / cos
	if d < 0 || d > s.MaxRange {
		return 0, ErrNoRange
	}
	return d, nil
}
