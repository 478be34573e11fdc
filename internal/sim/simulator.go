package sim

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/san-kum/drivelab/internal/dynamo"
	"github.com/san-kum/drivelab/internal/log"
	"github.com/san-kum/drivelab/internal/task"
)

// Simulator runs futures against a Robot. Executor ticks and plant steps
// are interleaved on a simulated timeline: the plant is advanced in steps
// of at most Config.Dt up to the next requested wake time, then the
// executor is ticked.
type Simulator struct {
	robot     *Robot
	clock     clock.Clock
	start     time.Time
	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

func New(robot *Robot) *Simulator {
	return &Simulator{
		robot:     robot,
		clock:     clock.New(),
		start:     time.Unix(0, 0).UTC(),
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
	}
}

// WithClock sets the clock used to pace realtime runs.
func (s *Simulator) WithClock(clk clock.Clock) *Simulator {
	s.clock = clk
	return s
}

func (s *Simulator) Robot() *Robot { return s.robot }

// Start is the simulated time at which every run begins.
func (s *Simulator) Start() time.Time { return s.start }

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run polls f until it completes, the horizon passes or ctx is cancelled.
// The partial result is returned alongside any error.
func (s *Simulator) Run(ctx context.Context, f task.Future, cfg Config) (*dynamo.Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	result := &dynamo.Result{
		States:   make([]dynamo.State, 0, steps+1),
		Controls: make([]dynamo.Control, 0, steps+1),
		Times:    make([]float64, 0, steps+1),
		Metrics:  make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	ex := task.NewExecutor(s.clock)
	ex.Spawn("motion", f)

	dt := cfg.step()
	horizon := cfg.horizon()
	now := s.start
	record := func() {
		result.States = append(result.States, s.robot.State())
		result.Controls = append(result.Controls, s.robot.Voltages())
		result.Times = append(result.Times, now.Sub(s.start).Seconds())
	}
	record()

	var runErr error
loop:
	for step := 0; ; {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break loop
		default:
		}

		next, pending := ex.Tick(now)
		if !pending {
			break
		}
		if next.IsZero() || !next.After(now) {
			next = now.Add(dt)
		}

		for now.Before(next) {
			if now.Sub(s.start) >= horizon {
				runErr = ErrHorizon
				break loop
			}
			h := min(dt, next.Sub(now))

			x, u, t := s.robot.State(), s.robot.Voltages(), now.Sub(s.start).Seconds()
			for _, m := range s.metrics {
				m.Observe(x, u, t)
			}
			for _, obs := range s.observers {
				obs.OnStep(x, u, t)
			}

			s.robot.Step(h.Seconds())
			now = now.Add(h)
			step++

			if !s.robot.state.IsValid() {
				runErr = &dynamo.SimulationError{
					Step:  step,
					Time:  now.Sub(s.start).Seconds(),
					State: s.robot.State(),
					Err:   dynamo.ErrInvalidState,
				}
				break loop
			}
			record()

			if cfg.Realtime {
				s.clock.Sleep(h)
			}
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	log.Debug("simulation finished",
		"sim_time", result.Duration(),
		"polls", ex.Polls(),
		"error", runErr,
	)
	return result, runErr
}
