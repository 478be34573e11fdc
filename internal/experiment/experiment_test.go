package experiment

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/san-kum/drivelab/internal/config"
	"github.com/san-kum/drivelab/internal/motion"
	"github.com/san-kum/drivelab/internal/task"
)

func run(t *testing.T, cfg *config.Config) (*Experiment, Outcome) {
	t.Helper()
	exp, err := New(NewRegistry(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	result, outcome, err := exp.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.States) == 0 {
		t.Fatal("no states recorded")
	}
	return exp, outcome
}

func TestScenariosSettle(t *testing.T) {
	tests := []struct {
		scenario, preset string
		maxError         float64
	}{
		{"drive-x", "default", 1.5},
		{"drive-y", "default", 1.5},
		{"distance", "default", 1.5},
		{"distance", "reverse", 1.5},
		{"wall", "default", 1.5},
		{"turn", "quarter", 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.scenario+"/"+tt.preset, func(t *testing.T) {
			_, outcome := run(t, config.GetPreset(tt.scenario, tt.preset))

			if outcome.Phase != motion.Settled {
				t.Fatalf("expected settled, got %s", outcome)
			}
			if outcome.Elapsed > 5*time.Second {
				t.Errorf("settled after the timeout: %s", outcome.Elapsed)
			}
			if outcome.FinalError > tt.maxError {
				t.Errorf("final error %f above %f", outcome.FinalError, tt.maxError)
			}
			if math.Abs(outcome.HeadingError.Degrees()) > 10 {
				t.Errorf("heading error %f", outcome.HeadingError.Degrees())
			}
		})
	}
}

func TestStrictTimesOut(t *testing.T) {
	exp, outcome := run(t, config.GetPreset("drive-x", "strict"))

	if outcome.Phase != motion.TimedOut {
		t.Fatalf("expected timeout, got %s", outcome)
	}
	if outcome.Elapsed < 200*time.Millisecond || outcome.Elapsed >= 210*time.Millisecond {
		t.Errorf("expected to stop near 200ms, got %s", outcome.Elapsed)
	}
	for _, v := range exp.Robot().Voltages() {
		if v != 0 {
			t.Errorf("expected zero voltage after timeout, got %v", exp.Robot().Voltages())
		}
	}
}

func TestRunMetrics(t *testing.T) {
	exp, err := New(NewRegistry(), config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	result, outcome, err := exp.Run(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"rms_error", "settle_time", "overshoot", "heading_error_deg", "control_effort", "saturation", "final_error", "elapsed"} {
		if _, ok := result.Metrics[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
	if result.Metrics["final_error"] != outcome.FinalError {
		t.Error("final error metric should come from the last state")
	}
	if result.Metrics["settle_time"] <= 0 {
		t.Error("robot starts outside the band, settle time should be positive")
	}
}

func TestWallSensorDropout(t *testing.T) {
	exp, err := New(NewRegistry(), config.GetPreset("wall", "default"))
	if err != nil {
		t.Fatal(err)
	}
	exp.Sensor().Drop(5)

	_, outcome, err := exp.Run(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Phase != motion.Settled {
		t.Errorf("expected settled after dropouts, got %s", outcome)
	}
}

func TestAlongside(t *testing.T) {
	exp, err := New(NewRegistry(), config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	exp.Alongside(task.Sleep(6 * time.Second))

	result, outcome, err := exp.Run(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Phase != motion.Settled {
		t.Errorf("expected settled, got %s", outcome)
	}
	if result.Duration() < 5.999 {
		t.Errorf("run should last until the sleep ends, got %f", result.Duration())
	}
}

func TestRunOnce(t *testing.T) {
	exp, err := New(NewRegistry(), config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := exp.Run(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if _, _, err := exp.Run(context.Background(), false); !errors.Is(err, ErrAlreadyRun) {
		t.Errorf("expected ErrAlreadyRun, got %v", err)
	}
}

func TestNewErrors(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.Get("spiral"); !errors.Is(err, ErrUnknownScenario) {
		t.Errorf("expected ErrUnknownScenario, got %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Integrator = "verlet"
	if _, err := New(reg, cfg); !errors.Is(err, ErrUnknownIntegrator) {
		t.Errorf("expected ErrUnknownIntegrator, got %v", err)
	}

	cfg = config.DefaultConfig()
	cfg.Dt = -1
	if _, err := New(reg, cfg); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected config.ErrInvalid, got %v", err)
	}
}

func TestListScenarios(t *testing.T) {
	names := NewRegistry().ListScenarios()
	if len(names) != len(config.Scenarios) {
		t.Fatalf("expected %d scenarios, got %v", len(config.Scenarios), names)
	}
	for _, name := range config.Scenarios {
		if _, err := NewRegistry().Get(name); err != nil {
			t.Errorf("config scenario %s has no registry entry", name)
		}
	}
}
