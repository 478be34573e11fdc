package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/drivelab/internal/control"
	"github.com/san-kum/drivelab/internal/physics"
)

var (
	ErrUnknownScenario = errors.New("config: unknown scenario")
	ErrInvalid         = errors.New("config: invalid value")
)

// Scenarios names the motions a config can describe.
var Scenarios = []string{"drive-x", "drive-y", "distance", "turn", "wall"}

const (
	DefaultDt          = 0.001
	DefaultDuration    = 10.0
	DefaultTimeout     = 5 * time.Second
	DefaultSensorRange = 120.0
)

type Config struct {
	Scenario   string         `yaml:"scenario"`
	Integrator string         `yaml:"integrator"`
	Target     float64        `yaml:"target"`
	HeadingDeg float64        `yaml:"heading_deg"`
	Timeout    *time.Duration `yaml:"timeout,omitempty"`
	Dt         float64        `yaml:"dt"`
	Duration   float64        `yaml:"duration"`

	LinearPID  PIDConfig `yaml:"linear_pid"`
	AngularPID PIDConfig `yaml:"angular_pid"`

	LinearTolerance  ToleranceConfig `yaml:"linear_tolerances"`
	AngularTolerance ToleranceConfig `yaml:"angular_tolerances"`

	Robot RobotConfig `yaml:"robot"`
}

// PIDConfig holds loop gains. For the angular loop the integration range
// is in degrees.
type PIDConfig struct {
	Kp               float64  `yaml:"kp"`
	Ki               float64  `yaml:"ki"`
	Kd               float64  `yaml:"kd"`
	IntegrationRange *float64 `yaml:"integration_range,omitempty"`
	OutputLimit      *float64 `yaml:"output_limit,omitempty"`
}

// ToleranceConfig holds optional settling thresholds. For the angular
// axis the error is in degrees and the velocity in radians per second.
type ToleranceConfig struct {
	Error    *float64       `yaml:"error,omitempty"`
	Velocity *float64       `yaml:"velocity,omitempty"`
	Duration *time.Duration `yaml:"duration,omitempty"`
}

type RobotConfig struct {
	MaxVoltage   float64 `yaml:"max_voltage"`
	MaxSpeed     float64 `yaml:"max_speed"`
	TrackWidth   float64 `yaml:"track_width"`
	TimeConstant float64 `yaml:"time_constant"`

	StartX          float64 `yaml:"start_x"`
	StartY          float64 `yaml:"start_y"`
	StartHeadingDeg float64 `yaml:"start_heading_deg"`

	// WallX is the wall seen by the rear rangefinder in the wall scenario.
	WallX       float64 `yaml:"wall_x"`
	SensorRange float64 `yaml:"sensor_range"`
}

func ptr[T any](v T) *T { return &v }

func DefaultConfig() *Config {
	return &Config{
		Scenario:   "drive-x",
		Integrator: "rk4",
		Target:     24,
		Timeout:    ptr(DefaultTimeout),
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		LinearPID: PIDConfig{
			Kp: 0.1, Ki: 0.001, Kd: 0.01,
			IntegrationRange: ptr(3.0),
		},
		AngularPID: PIDConfig{
			Kp: 3.0, Ki: 0.1, Kd: 0.175,
			IntegrationRange: ptr(5.0),
		},
		LinearTolerance: ToleranceConfig{
			Error:    ptr(1.0),
			Velocity: ptr(0.25),
			Duration: ptr(15 * time.Millisecond),
		},
		AngularTolerance: ToleranceConfig{
			Error:    ptr(8.0),
			Velocity: ptr(0.05),
			Duration: ptr(15 * time.Millisecond),
		},
		Robot: RobotConfig{
			MaxVoltage:   physics.DefaultMaxVoltage,
			MaxSpeed:     physics.DefaultMaxSpeed,
			TrackWidth:   physics.DefaultTrackWidth,
			TimeConstant: physics.DefaultTimeConstant,
			SensorRange:  DefaultSensorRange,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var err error
	if !slices.Contains(Scenarios, c.Scenario) {
		err = multierr.Append(err, fmt.Errorf("%w: %q", ErrUnknownScenario, c.Scenario))
	}
	positive := []struct {
		name  string
		value float64
	}{
		{"dt", c.Dt},
		{"duration", c.Duration},
		{"robot.max_voltage", c.Robot.MaxVoltage},
		{"robot.max_speed", c.Robot.MaxSpeed},
		{"robot.track_width", c.Robot.TrackWidth},
		{"robot.time_constant", c.Robot.TimeConstant},
	}
	for _, p := range positive {
		if p.value <= 0 {
			err = multierr.Append(err, fmt.Errorf("%w: %s must be positive, got %g", ErrInvalid, p.name, p.value))
		}
	}
	if c.Timeout != nil && *c.Timeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalid, *c.Timeout))
	}
	if c.Scenario == "wall" && c.Robot.SensorRange <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: robot.sensor_range must be positive", ErrInvalid))
	}
	return err
}

func (p PIDConfig) pid() *control.PID {
	pid := control.NewPID(p.Kp, p.Ki, p.Kd)
	pid.SetIntegrationRange(p.IntegrationRange)
	pid.SetOutputLimit(p.OutputLimit)
	return pid
}

func (c *Config) LinearController() *control.PID {
	return c.LinearPID.pid()
}

func (c *Config) AngularController() *control.AngularPID {
	p := c.AngularPID
	pid := control.NewAngularPID(p.Kp, p.Ki, p.Kd)
	if p.IntegrationRange != nil {
		r := s1.Angle(*p.IntegrationRange) * s1.Degree
		pid.SetIntegrationRange(&r)
	}
	pid.SetOutputLimit(p.OutputLimit)
	return pid
}

func (t ToleranceConfig) tolerances(errorScale float64) control.Tolerances {
	tol := control.NewTolerances()
	if t.Error != nil {
		tol = tol.WithError(*t.Error * errorScale)
	}
	if t.Velocity != nil {
		tol = tol.WithVelocity(*t.Velocity)
	}
	if t.Duration != nil {
		tol = tol.WithDuration(*t.Duration)
	}
	return tol
}

func (c *Config) LinearTolerances() control.Tolerances {
	return c.LinearTolerance.tolerances(1)
}

func (c *Config) AngularTolerances() control.Tolerances {
	return c.AngularTolerance.tolerances(s1.Degree.Radians())
}

func (c *Config) Heading() s1.Angle {
	return s1.Angle(c.HeadingDeg) * s1.Degree
}

func (c *Config) StartPose() (r2.Point, s1.Angle) {
	return r2.Point{X: c.Robot.StartX, Y: c.Robot.StartY}, s1.Angle(c.Robot.StartHeadingDeg) * s1.Degree
}

// Plant returns the drive plant described by the robot section.
func (c *Config) Plant() *physics.DifferentialDrive {
	return &physics.DifferentialDrive{
		MaxVoltage:   c.Robot.MaxVoltage,
		MaxSpeed:     c.Robot.MaxSpeed,
		TrackWidth:   c.Robot.TrackWidth,
		TimeConstant: c.Robot.TimeConstant,
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Timeout = clonePtr(c.Timeout)
	out.LinearPID = c.LinearPID.clone()
	out.AngularPID = c.AngularPID.clone()
	out.LinearTolerance = c.LinearTolerance.clone()
	out.AngularTolerance = c.AngularTolerance.clone()
	return &out
}

func (p PIDConfig) clone() PIDConfig {
	p.IntegrationRange = clonePtr(p.IntegrationRange)
	p.OutputLimit = clonePtr(p.OutputLimit)
	return p
}

func (t ToleranceConfig) clone() ToleranceConfig {
	t.Error = clonePtr(t.Error)
	t.Velocity = clonePtr(t.Velocity)
	t.Duration = clonePtr(t.Duration)
	return t
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
