package motion_test

import (
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"

	"github.com/san-kum/drivelab/internal/motion"
	"github.com/san-kum/drivelab/internal/task"
)

type fakeTracking struct {
	position r2.Point
	heading  s1.Angle
	travel   float64
	linVel   float64
	angVel   float64
}

func (f *fakeTracking) Position() r2.Point       { return f.position }
func (f *fakeTracking) Heading() s1.Angle        { return f.heading }
func (f *fakeTracking) ForwardTravel() float64   { return f.travel }
func (f *fakeTracking) LinearVelocity() float64  { return f.linVel }
func (f *fakeTracking) AngularVelocity() float64 { return f.angVel }

type fakeArcade struct {
	commands []motion.Command
	err      error
}

func (f *fakeArcade) DriveArcade(linear, angular float64) error {
	f.commands = append(f.commands, motion.Command{Linear: linear, Angular: angular})
	return f.err
}

func (f *fakeArcade) zeros() int {
	n := 0
	for _, c := range f.commands {
		if c == (motion.Command{}) {
			n++
		}
	}
	return n
}

type fakeRange struct {
	reading float64
	err     error
	reads   int
}

func (f *fakeRange) Distance() (float64, error) {
	f.reads++
	return f.reading, f.err
}

// constLoop returns a fixed output and records what it was fed.
type constLoop struct {
	out      float64
	measured []float64
	dts      []time.Duration
}

func (c *constLoop) Update(measured, setpoint float64, dt time.Duration) float64 {
	c.measured = append(c.measured, measured)
	c.dts = append(c.dts, dt)
	return c.out
}

func (c *constLoop) Clone() *constLoop { return &constLoop{out: c.out} }

type constAngularLoop struct {
	out   float64
	calls int
}

func (c *constAngularLoop) Update(measured, setpoint s1.Angle, dt time.Duration) float64 {
	c.calls++
	return c.out
}

func (c *constAngularLoop) Clone() *constAngularLoop { return &constAngularLoop{out: c.out} }

// poller drives a future by hand on a synthetic timeline.
type poller struct {
	f   task.Future
	now time.Time
}

func newPoller(f task.Future) *poller {
	return &poller{f: f, now: time.Unix(1000, 0)}
}

func (p *poller) poll() task.Status {
	return p.f.Poll(task.NewContext(p.now))
}

// tick advances by one control interval and polls.
func (p *poller) tick() task.Status {
	p.now = p.now.Add(motion.TickInterval)
	return p.poll()
}

func deg(d float64) s1.Angle { return s1.Angle(d) * s1.Degree }

func ptr[T any](v T) *T { return &v }
