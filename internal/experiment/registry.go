package experiment

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/san-kum/drivelab/internal/config"
	"github.com/san-kum/drivelab/internal/control"
	"github.com/san-kum/drivelab/internal/drivetrain"
	"github.com/san-kum/drivelab/internal/dynamo"
	"github.com/san-kum/drivelab/internal/integrators"
	"github.com/san-kum/drivelab/internal/metrics"
	"github.com/san-kum/drivelab/internal/motion"
	"github.com/san-kum/drivelab/internal/physics"
	"github.com/san-kum/drivelab/internal/sim"
)

var (
	ErrUnknownScenario   = errors.New("experiment: unknown scenario")
	ErrUnknownIntegrator = errors.New("experiment: unknown integrator")
)

// Motion is the drive type every scenario produces.
type Motion = motion.Drive[*control.PID, *control.AngularPID]

// StateNames labels the columns of the drive plant state.
var StateNames = []string{"x", "y", "heading", "v_left", "v_right", "travel"}

// rig is what a scenario builds its motion from.
type rig struct {
	cfg    *config.Config
	robot  *sim.Robot
	sensor *sim.RangeSensor
	drive  *drivetrain.Drivetrain
}

func (r *rig) basic() *motion.Basic[*control.PID, *control.AngularPID] {
	return &motion.Basic[*control.PID, *control.AngularPID]{
		LinearController:  r.cfg.LinearController(),
		AngularController: r.cfg.AngularController(),
		LinearTolerances:  r.cfg.LinearTolerances(),
		AngularTolerances: r.cfg.AngularTolerances(),
		Timeout:           r.cfg.Timeout,
	}
}

// Scenario describes one kind of motion and the coordinate its linear
// metrics watch.
type Scenario struct {
	Name        string
	Description string

	build func(r *rig) *Motion
	// track returns the state index and the value it should reach.
	track func(r *rig) (index int, target float64)
}

type Registry struct {
	scenarios map[string]*Scenario
}

func NewRegistry() *Registry {
	r := &Registry{scenarios: make(map[string]*Scenario)}

	r.add(&Scenario{
		Name:        "drive-x",
		Description: "drive until x reaches the target",
		build: func(r *rig) *Motion {
			return r.basic().DriveToX(r.drive, r.cfg.Target, r.cfg.Heading())
		},
		track: func(r *rig) (int, float64) { return physics.DiffX, r.cfg.Target },
	})
	r.add(&Scenario{
		Name:        "drive-y",
		Description: "drive until y reaches the target",
		build: func(r *rig) *Motion {
			return r.basic().DriveToY(r.drive, r.cfg.Target, r.cfg.Heading())
		},
		track: func(r *rig) (int, float64) { return physics.DiffY, r.cfg.Target },
	})
	r.add(&Scenario{
		Name:        "distance",
		Description: "drive a signed distance of forward travel at a heading",
		build: func(r *rig) *Motion {
			return r.basic().DriveDistanceAtHeading(r.drive, r.cfg.Target, r.cfg.Heading())
		},
		track: func(r *rig) (int, float64) { return physics.DiffTravel, r.cfg.Target },
	})
	r.add(&Scenario{
		Name:        "turn",
		Description: "turn in place to a heading",
		build: func(r *rig) *Motion {
			return r.basic().TurnToHeading(r.drive, r.cfg.Heading())
		},
		track: func(r *rig) (int, float64) { return physics.DiffTravel, 0 },
	})
	r.add(&Scenario{
		Name:        "wall",
		Description: "back off a wall until the rear rangefinder reads the target",
		build: func(r *rig) *Motion {
			s := &motion.DistanceSensorDriving[*control.PID, *control.AngularPID]{
				LinearController:  r.cfg.LinearController(),
				AngularController: r.cfg.AngularController(),
				LinearTolerances:  r.cfg.LinearTolerances(),
				AngularTolerances: r.cfg.AngularTolerances(),
				Timeout:           r.cfg.Timeout,
			}
			return s.DriveToDistance(r.drive, r.sensor, r.cfg.Target, r.cfg.Heading())
		},
		// exact while the robot faces straight away from the wall
		track: func(r *rig) (int, float64) { return physics.DiffX, r.cfg.Robot.WallX + r.cfg.Target },
	})

	return r
}

func (r *Registry) add(s *Scenario) { r.scenarios[s.Name] = s }

func (r *Registry) Get(name string) (*Scenario, error) {
	s, ok := r.scenarios[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	return s, nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	integ, ok := integrators.ByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntegrator, name)
	}
	return integ, nil
}

func (r *Registry) ListScenarios() []string {
	return slices.Sorted(maps.Keys(r.scenarios))
}

// defaultMetrics returns the metrics recorded for every run of s.
func defaultMetrics(s *Scenario, rg *rig) []dynamo.Metric {
	index, target := s.track(rg)
	band := 1.0
	if tol := rg.cfg.LinearTolerance.Error; tol != nil && *tol > 0 {
		band = *tol
	}
	return []dynamo.Metric{
		metrics.NewRMSError(index, target),
		metrics.NewSettleTime(index, target, band),
		metrics.NewOvershoot(index, target),
		metrics.NewHeadingError(rg.cfg.Heading()),
		metrics.NewControlEffort(),
		metrics.NewSaturation(rg.cfg.Robot.MaxVoltage),
	}
}
