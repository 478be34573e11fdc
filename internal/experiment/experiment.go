package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/s1"

	"github.com/san-kum/drivelab/internal/config"
	"github.com/san-kum/drivelab/internal/dynamo"
	"github.com/san-kum/drivelab/internal/log"
	"github.com/san-kum/drivelab/internal/motion"
	"github.com/san-kum/drivelab/internal/physics"
	"github.com/san-kum/drivelab/internal/sim"
	"github.com/san-kum/drivelab/internal/task"
)

var ErrAlreadyRun = errors.New("experiment: already run")

// Outcome summarises how the motion ended.
type Outcome struct {
	Phase   motion.Phase
	Elapsed time.Duration
	// FinalError is the distance of the tracked coordinate from its
	// target in the last recorded state.
	FinalError   float64
	HeadingError s1.Angle
}

func (o Outcome) String() string {
	return fmt.Sprintf("%s after %s (error %.3f, heading %.2f°)",
		o.Phase, o.Elapsed, o.FinalError, o.HeadingError.Degrees())
}

// Experiment is one scenario wired from a config: the simulated robot,
// its drivetrain, the motion and the simulator that runs it. An
// experiment runs once.
type Experiment struct {
	cfg       *config.Config
	scenario  *Scenario
	rig       *rig
	simulator *sim.Simulator
	motion    *Motion
	alongside []task.Future
	ran       bool
}

func New(reg *Registry, cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scenario, err := reg.Get(cfg.Scenario)
	if err != nil {
		return nil, err
	}
	integ, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	position, heading := cfg.StartPose()
	robot := sim.NewRobot(cfg.Plant(), integ, sim.Pose{Position: position, Heading: heading})
	rg := &rig{
		cfg:    cfg,
		robot:  robot,
		sensor: sim.NewRangeSensor(robot, cfg.Robot.WallX, cfg.Robot.SensorRange),
		drive:  robot.Drivetrain(),
	}

	simulator := sim.New(robot)
	for _, m := range defaultMetrics(scenario, rg) {
		simulator.AddMetric(m)
	}

	return &Experiment{
		cfg:       cfg,
		scenario:  scenario,
		rig:       rg,
		simulator: simulator,
		motion:    scenario.build(rg),
	}, nil
}

func (e *Experiment) Config() *config.Config    { return e.cfg }
func (e *Experiment) Scenario() *Scenario       { return e.scenario }
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }
func (e *Experiment) Robot() *sim.Robot         { return e.rig.robot }
func (e *Experiment) Sensor() *sim.RangeSensor  { return e.rig.sensor }
func (e *Experiment) Motion() *Motion           { return e.motion }

func (e *Experiment) AddObserver(o dynamo.Observer) { e.simulator.AddObserver(o) }

// Tracked returns the state index the linear metrics watch and the value
// it should reach.
func (e *Experiment) Tracked() (index int, target float64) {
	return e.scenario.track(e.rig)
}

// Alongside runs f concurrently with the motion. The run ends when both
// have completed.
func (e *Experiment) Alongside(f task.Future) {
	e.alongside = append(e.alongside, f)
}

// Run drives the motion to completion on the simulator. With realtime set
// the run is paced against the wall clock. The partial result is returned
// alongside any error.
func (e *Experiment) Run(ctx context.Context, realtime bool) (*dynamo.Result, Outcome, error) {
	if e.ran {
		return nil, Outcome{}, ErrAlreadyRun
	}
	e.ran = true

	var f task.Future = e.motion
	if len(e.alongside) > 0 {
		f = task.Join(append([]task.Future{e.motion}, e.alongside...)...)
	}

	result, err := e.simulator.Run(ctx, f, sim.Config{
		Dt:       e.cfg.Dt,
		Duration: e.cfg.Duration,
		Realtime: realtime,
	})
	if result == nil {
		return nil, Outcome{}, err
	}

	outcome := e.outcome(result)
	result.Metrics["final_error"] = outcome.FinalError
	result.Metrics["heading_error_deg"] = outcome.HeadingError.Abs().Degrees()
	result.Metrics["elapsed"] = outcome.Elapsed.Seconds()

	log.Debug("experiment finished",
		"scenario", e.scenario.Name,
		"outcome", outcome.Phase,
		"elapsed", outcome.Elapsed,
		"final_error", outcome.FinalError,
	)
	return result, outcome, err
}

func (e *Experiment) outcome(result *dynamo.Result) Outcome {
	o := Outcome{
		Phase:      e.motion.Phase(),
		Elapsed:    e.motion.Elapsed(),
		FinalError: math.NaN(),
	}
	final := result.Final()
	if final == nil {
		return o
	}
	index, target := e.Tracked()
	o.FinalError = math.Abs(target - final[index])
	o.HeadingError = (e.cfg.Heading() - s1.Angle(final[physics.DiffHeading])).Normalized()
	return o
}
