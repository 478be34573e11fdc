package sim

import (
	"errors"
	"fmt"
	"time"
)

// ErrHorizon is returned when the motion is still pending at the end of
// the simulated horizon.
var ErrHorizon = errors.New("sim: motion still pending at end of horizon")

type Config struct {
	Dt       float64 // plant step, seconds
	Duration float64 // horizon, seconds
	// Realtime paces the run against the simulator clock.
	Realtime bool
}

func DefaultConfig() Config {
	return Config{
		Dt:       0.001,
		Duration: 10,
	}
}

func (c Config) step() time.Duration {
	return time.Duration(c.Dt * float64(time.Second))
}

func (c Config) horizon() time.Duration {
	return time.Duration(c.Duration * float64(time.Second))
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.step() <= 0 {
		return fmt.Errorf("dt below clock resolution: %g", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}
