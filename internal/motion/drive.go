package motion

import (
	"log/slog"
	"math"
	"time"

	"github.com/golang/geo/s1"

	"github.com/san-kum/drivelab/internal/control"
	"github.com/san-kum/drivelab/internal/drivetrain"
	"github.com/san-kum/drivelab/internal/log"
	"github.com/san-kum/drivelab/internal/task"
)

// TickInterval is the fixed delay between control steps.
const TickInterval = 5 * time.Millisecond

// Phase is the lifecycle stage of a drive.
type Phase int

const (
	NotStarted Phase = iota
	Running
	Settled
	TimedOut
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Settled:
		return "settled"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Done reports whether p is terminal.
func (p Phase) Done() bool { return p == Settled || p == TimedOut }

// Command is one arcade command sent to the drivetrain.
type Command struct {
	Linear  float64
	Angular float64
}

// Timeout returns d as an optional timeout.
func Timeout(d time.Duration) *time.Duration { return &d }

type driveState struct {
	start time.Time
	prev  time.Time
	wake  time.Time

	linearSettled  bool
	angularSettled bool

	linearError  float64
	angularError s1.Angle
}

// Drive moves the platform toward a linear target while turning to a
// heading. It owns its loops and tolerances; nothing is shared with the
// producer that created it.
//
// The loops must be pointer types: TuneLinear and TuneAngular mutate them
// in place.
type Drive[L control.LinearFeedback[L], A control.AngularFeedback[A]] struct {
	drivetrain    *drivetrain.Drivetrain
	target        Target
	targetHeading s1.Angle
	timeout       *time.Duration

	linearTolerances  control.Tolerances
	angularTolerances control.Tolerances
	linearController  L
	angularController A

	logger *slog.Logger

	phase   Phase
	state   *driveState
	last    Command
	elapsed time.Duration
}

// New returns a drive that takes ownership of the given loops. Callers
// that reuse prototypes should pass clones; the producers do.
func New[L control.LinearFeedback[L], A control.AngularFeedback[A]](
	dt *drivetrain.Drivetrain,
	target Target,
	heading s1.Angle,
	linear L,
	angular A,
	linearTolerances, angularTolerances control.Tolerances,
	timeout *time.Duration,
) *Drive[L, A] {
	d := &Drive[L, A]{
		drivetrain:        dt,
		target:            target,
		targetHeading:     heading,
		linearTolerances:  linearTolerances.Clone(),
		angularTolerances: angularTolerances.Clone(),
		linearController:  linear,
		angularController: angular,
		logger:            log.With("component", "motion"),
	}
	if timeout != nil {
		d.timeout = Timeout(*timeout)
	}
	return d
}

// Poll implements task.Future.
func (d *Drive[L, A]) Poll(cx *task.Context) task.Status {
	if d.phase.Done() {
		return task.Ready
	}

	now := cx.Now()
	if d.state == nil {
		d.state = &driveState{start: now, prev: now, wake: now.Add(TickInterval)}
		d.target.begin(d.drivetrain.Tracking)
		d.phase = Running
	}

	if now.Before(d.state.wake) {
		cx.WakeAt(d.state.wake)
		return task.Pending
	}

	return d.step(cx, now)
}

func (d *Drive[L, A]) step(cx *task.Context, now time.Time) task.Status {
	st := d.state
	tracking := d.drivetrain.Tracking
	dt := now.Sub(st.prev)

	heading := tracking.Heading()
	linearError, err := d.target.linearError(tracking)
	if err != nil {
		d.logger.Debug("linear error unavailable", "target", d.target, "error", err)
		if d.timedOut(now) {
			return d.finish(now, TimedOut)
		}
		return d.rearm(cx, now, false)
	}
	angularError := (d.targetHeading - heading).Normalized()
	st.linearError, st.angularError = linearError, angularError

	if d.linearTolerances.Check(linearError, tracking.LinearVelocity(), now) {
		st.linearSettled = true
	}
	if d.angularTolerances.Check(angularError.Radians(), tracking.AngularVelocity(), now) {
		st.angularSettled = true
	}

	if st.linearSettled && st.angularSettled {
		return d.finish(now, Settled)
	}
	if d.timedOut(now) {
		return d.finish(now, TimedOut)
	}

	cmd := Command{
		Linear:  d.linearController.Update(-linearError, 0, dt) * math.Cos(angularError.Radians()),
		Angular: d.angularController.Update(heading, d.targetHeading, dt),
	}
	d.send(cmd)

	return d.rearm(cx, now, true)
}

func (d *Drive[L, A]) timedOut(now time.Time) bool {
	return d.timeout != nil && now.Sub(d.state.start) > *d.timeout
}

func (d *Drive[L, A]) rearm(cx *task.Context, now time.Time, stepped bool) task.Status {
	d.state.wake = now.Add(TickInterval)
	if stepped {
		d.state.prev = now
	}
	cx.WakeAt(d.state.wake)
	return task.Pending
}

func (d *Drive[L, A]) send(cmd Command) {
	d.last = cmd
	if err := d.drivetrain.Model.DriveArcade(cmd.Linear, cmd.Angular); err != nil {
		d.logger.Debug("drive command failed", "error", err)
	}
}

func (d *Drive[L, A]) finish(now time.Time, phase Phase) task.Status {
	d.phase = phase
	d.elapsed = now.Sub(d.state.start)
	d.send(Command{})

	d.logger.Debug("motion complete",
		"target", d.target,
		"heading_deg", d.targetHeading.Degrees(),
		"phase", phase,
		"elapsed", d.elapsed,
		"linear_error", d.state.linearError,
		"angular_error_deg", d.state.angularError.Degrees(),
	)
	return task.Ready
}

// Phase returns the current lifecycle stage.
func (d *Drive[L, A]) Phase() Phase { return d.phase }

// Elapsed returns the time from the first poll to completion, or zero
// while the drive is unfinished.
func (d *Drive[L, A]) Elapsed() time.Duration { return d.elapsed }

// Errors returns the linear and angular error seen on the latest step.
func (d *Drive[L, A]) Errors() (linear float64, angular s1.Angle) {
	if d.state == nil {
		return 0, 0
	}
	return d.state.linearError, d.state.angularError
}

// Settled reports the per-axis settled flags.
func (d *Drive[L, A]) Settled() (linear, angular bool) {
	if d.state == nil {
		return false, false
	}
	return d.state.linearSettled, d.state.angularSettled
}

// LastCommand returns the most recent command sent to the drivetrain.
func (d *Drive[L, A]) LastCommand() Command { return d.last }

// Target returns the linear target.
func (d *Drive[L, A]) Target() Target { return d.target }

// TargetHeading returns the heading the drive turns to.
func (d *Drive[L, A]) TargetHeading() s1.Angle { return d.targetHeading }

// LinearController returns the drive's own linear loop.
func (d *Drive[L, A]) LinearController() L { return d.linearController }

// AngularController returns the drive's own angular loop.
func (d *Drive[L, A]) AngularController() A { return d.angularController }
