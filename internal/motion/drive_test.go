package motion_test

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/drivelab/internal/control"
	"github.com/san-kum/drivelab/internal/drivetrain"
	"github.com/san-kum/drivelab/internal/dynamo"
	"github.com/san-kum/drivelab/internal/integrators"
	"github.com/san-kum/drivelab/internal/motion"
	"github.com/san-kum/drivelab/internal/physics"
	"github.com/san-kum/drivelab/internal/sim"
	"github.com/san-kum/drivelab/internal/task"
)

type fakeDrive = motion.Drive[*constLoop, *constAngularLoop]

var _ = Describe("Drive", func() {
	var (
		tracking *fakeTracking
		arcade   *fakeArcade
		dt       *drivetrain.Drivetrain
		lin      *constLoop
		ang      *constAngularLoop
		never    control.Tolerances
	)

	BeforeEach(func() {
		tracking = &fakeTracking{}
		arcade = &fakeArcade{}
		dt = drivetrain.New(arcade, tracking)
		lin = &constLoop{out: 1}
		ang = &constAngularLoop{out: 0.5}
		never = control.NewTolerances().WithError(0)
	})

	newDrive := func(target motion.Target, heading s1.Angle, timeout *time.Duration) *fakeDrive {
		return motion.New(dt, target, heading, lin, ang, never, control.NewTolerances(), timeout)
	}

	Describe("first poll", func() {
		It("waits one interval before the first step", func() {
			p := newPoller(newDrive(motion.ToX(10), 0, nil))

			Expect(p.poll()).To(Equal(task.Pending))
			Expect(arcade.commands).To(BeEmpty())

			p.now = p.now.Add(motion.TickInterval - time.Millisecond)
			Expect(p.poll()).To(Equal(task.Pending))
			Expect(arcade.commands).To(BeEmpty())

			p.now = p.now.Add(time.Millisecond)
			Expect(p.poll()).To(Equal(task.Pending))
			Expect(arcade.commands).To(HaveLen(1))
		})

		It("requests a wake at the next tick", func() {
			p := newPoller(newDrive(motion.ToX(10), 0, nil))
			cx := task.NewContext(p.now)

			Expect(p.f.Poll(cx)).To(Equal(task.Pending))
			Expect(cx.Wake()).To(BeTemporally("==", p.now.Add(motion.TickInterval)))
		})

		It("reports not started before polling", func() {
			d := newDrive(motion.ToX(10), 0, nil)
			Expect(d.Phase()).To(Equal(motion.NotStarted))
			Expect(d.Phase().Done()).To(BeFalse())
		})
	})

	Describe("angular error", func() {
		It("takes the short way across the wrap", func() {
			tracking.heading = deg(350)
			d := newDrive(motion.ToX(10), deg(10), nil)
			p := newPoller(d)

			p.poll()
			p.tick()

			_, angErr := d.Errors()
			Expect(angErr.Degrees()).To(BeNumerically("~", 20, 1e-9))
		})

		It("maps a half turn to +pi", func() {
			tracking.heading = s1.Angle(math.Pi)
			d := newDrive(motion.ToX(10), 0, nil)
			p := newPoller(d)

			p.poll()
			p.tick()

			_, angErr := d.Errors()
			Expect(angErr.Radians()).To(BeNumerically("~", math.Pi, 1e-12))
		})
	})

	Describe("linear command", func() {
		It("feeds the negated error to the linear loop", func() {
			tracking.position = r2.Point{X: 4}
			p := newPoller(newDrive(motion.ToX(10), 0, nil))

			p.poll()
			p.tick()

			Expect(lin.measured).To(Equal([]float64{-6}))
		})

		It("is unattenuated when aligned", func() {
			p := newPoller(newDrive(motion.ToX(10), 0, nil))
			p.poll()
			p.tick()

			Expect(arcade.commands[0]).To(Equal(motion.Command{Linear: 1, Angular: 0.5}))
		})

		It("vanishes at 90 degrees of heading error", func() {
			p := newPoller(newDrive(motion.ToX(10), deg(90), nil))
			p.poll()
			p.tick()

			Expect(arcade.commands[0].Linear).To(BeNumerically("~", 0, 1e-9))
			Expect(arcade.commands[0].Angular).To(Equal(0.5))
		})

		It("reverses when facing away from the target heading", func() {
			tracking.heading = s1.Angle(math.Pi)
			p := newPoller(newDrive(motion.ToX(10), 0, nil))
			p.poll()
			p.tick()

			Expect(arcade.commands[0].Linear).To(BeNumerically("~", -1, 1e-9))
		})

		It("passes the time since the previous step", func() {
			p := newPoller(newDrive(motion.ToX(10), 0, nil))
			p.poll()
			p.tick()
			p.now = p.now.Add(2 * motion.TickInterval)
			p.poll()

			Expect(lin.dts).To(Equal([]time.Duration{motion.TickInterval, 2 * motion.TickInterval}))
		})
	})

	Describe("settling", func() {
		It("restarts the window after a breach", func() {
			d := motion.New(dt, motion.ToX(0), 0, lin, ang,
				control.NewTolerances().WithError(1).WithDuration(15*time.Millisecond),
				control.NewTolerances(),
				nil,
			)
			p := newPoller(d)
			p.poll()

			samples := []float64{0.5, 0.5, 2, 0.5, 0.5, 0.5}
			for i, x := range samples {
				tracking.position.X = x
				Expect(p.tick()).To(Equal(task.Pending), "sample %d", i)
			}

			tracking.position.X = 0.5
			Expect(p.tick()).To(Equal(task.Ready))
			Expect(d.Phase()).To(Equal(motion.Settled))
			Expect(d.Elapsed()).To(Equal(35 * time.Millisecond))
			Expect(arcade.zeros()).To(Equal(1))
			Expect(arcade.commands[len(arcade.commands)-1]).To(Equal(motion.Command{}))
		})

		It("settles immediately without a duration", func() {
			d := motion.New(dt, motion.ToX(0.5), 0, lin, ang,
				control.NewTolerances().WithError(1),
				control.NewTolerances(),
				nil,
			)
			p := newPoller(d)
			p.poll()

			Expect(p.tick()).To(Equal(task.Ready))
			Expect(arcade.commands).To(Equal([]motion.Command{{}}))
		})

		It("requires both axes", func() {
			tracking.heading = deg(30)
			d := motion.New(dt, motion.ToX(0), 0, lin, ang,
				control.NewTolerances().WithError(1),
				control.NewTolerances().WithError(deg(8).Radians()),
				nil,
			)
			p := newPoller(d)
			p.poll()

			Expect(p.tick()).To(Equal(task.Pending))
			linear, angular := d.Settled()
			Expect(linear).To(BeTrue())
			Expect(angular).To(BeFalse())

			tracking.heading = deg(2)
			tracking.position.X = 5
			Expect(p.tick()).To(Equal(task.Ready))
			Expect(d.Phase()).To(Equal(motion.Settled))
		})

		It("checks settling before the timeout", func() {
			d := motion.New(dt, motion.ToX(0), 0, lin, ang,
				control.NewTolerances().WithError(1).WithDuration(20*time.Millisecond),
				control.NewTolerances(),
				motion.Timeout(20*time.Millisecond),
			)
			p := newPoller(d)
			p.poll()
			for d.Phase() == motion.Running {
				p.tick()
			}

			Expect(d.Phase()).To(Equal(motion.Settled))
		})
	})

	Describe("timeout", func() {
		It("stops strictly after the deadline with one zero command", func() {
			d := newDrive(motion.ToX(10), 0, motion.Timeout(200*time.Millisecond))
			p := newPoller(d)
			p.poll()

			for i := 1; i <= 40; i++ {
				Expect(p.tick()).To(Equal(task.Pending), "tick %d", i)
			}
			Expect(p.tick()).To(Equal(task.Ready))

			Expect(d.Phase()).To(Equal(motion.TimedOut))
			Expect(d.Elapsed()).To(Equal(205 * time.Millisecond))
			Expect(arcade.commands).To(HaveLen(41))
			Expect(arcade.zeros()).To(Equal(1))
			Expect(arcade.commands[40]).To(Equal(motion.Command{}))
		})

		It("runs forever without a timeout", func() {
			d := newDrive(motion.ToX(10), 0, nil)
			p := newPoller(d)
			p.poll()

			for i := 0; i < 2000; i++ {
				Expect(p.tick()).To(Equal(task.Pending))
			}
			Expect(d.Phase()).To(Equal(motion.Running))
		})
	})

	Describe("after completion", func() {
		It("returns ready without commanding again", func() {
			d := newDrive(motion.ToX(10), 0, motion.Timeout(10*time.Millisecond))
			p := newPoller(d)
			p.poll()
			for p.tick() == task.Pending {
			}
			sent := len(arcade.commands)

			for i := 0; i < 5; i++ {
				Expect(p.tick()).To(Equal(task.Ready))
			}
			Expect(arcade.commands).To(HaveLen(sent))
			Expect(lin.measured).To(HaveLen(sent - 1))
		})
	})

	Describe("rangefinder target", func() {
		var rng *fakeRange

		BeforeEach(func() {
			rng = &fakeRange{reading: 10}
		})

		It("drives on target minus reading", func() {
			p := newPoller(newDrive(motion.ToRange(rng, 20), 0, nil))
			p.poll()
			p.tick()

			Expect(lin.measured).To(Equal([]float64{-10}))
		})

		It("skips ticks while the sensor fails", func() {
			d := newDrive(motion.ToRange(rng, 20), 0, nil)
			p := newPoller(d)
			p.poll()
			p.tick()
			Expect(arcade.commands).To(HaveLen(1))

			rng.err = drivetrain.ErrDisconnect
			Expect(p.tick()).To(Equal(task.Pending))
			Expect(p.tick()).To(Equal(task.Pending))
			Expect(arcade.commands).To(HaveLen(1))
			Expect(d.Phase()).To(Equal(motion.Running))

			rng.err = nil
			p.tick()
			Expect(arcade.commands).To(HaveLen(2))
			Expect(lin.dts).To(Equal([]time.Duration{motion.TickInterval, 3 * motion.TickInterval}))
			Expect(ang.calls).To(Equal(2))
		})

		It("still times out while the sensor fails", func() {
			rng.err = drivetrain.ErrNoReading
			d := newDrive(motion.ToRange(rng, 20), 0, motion.Timeout(20*time.Millisecond))
			p := newPoller(d)
			p.poll()

			for i := 0; i < 4; i++ {
				Expect(p.tick()).To(Equal(task.Pending))
			}
			Expect(p.tick()).To(Equal(task.Ready))
			Expect(d.Phase()).To(Equal(motion.TimedOut))
			Expect(arcade.commands).To(Equal([]motion.Command{{}}))
		})
	})

	Describe("relative targets", func() {
		It("measures travel from the first poll", func() {
			tracking.travel = 5
			p := newPoller(newDrive(motion.ByDistance(10), 0, nil))
			p.poll()

			tracking.travel = 12
			p.tick()
			Expect(lin.measured).To(Equal([]float64{-3}))
		})
	})

	It("keeps running when the actuator fails", func() {
		arcade.err = errors.New("motor unplugged")
		d := newDrive(motion.ToX(10), 0, nil)
		p := newPoller(d)
		p.poll()

		Expect(p.tick()).To(Equal(task.Pending))
		Expect(p.tick()).To(Equal(task.Pending))
		Expect(arcade.commands).To(HaveLen(2))
	})

	Describe("modifiers", func() {
		It("take effect on the next tick", func() {
			d := newDrive(motion.ToX(10), 0, nil)
			p := newPoller(d)
			p.poll()
			Expect(p.tick()).To(Equal(task.Pending))

			d.WithLinearErrorTolerance(100)
			Expect(p.tick()).To(Equal(task.Ready))
		})

		It("swap controllers", func() {
			other := &constLoop{out: 0.25}
			d := newDrive(motion.ToX(10), 0, nil).WithLinearController(other)
			p := newPoller(d)
			p.poll()
			p.tick()

			Expect(d.LinearController()).To(BeIdenticalTo(other))
			Expect(d.LastCommand().Linear).To(Equal(0.25))
			Expect(lin.measured).To(BeEmpty())
		})

		It("add and clear a timeout", func() {
			d := newDrive(motion.ToX(10), 0, nil).
				WithTimeout(10 * time.Millisecond).
				WithoutTimeout()
			p := newPoller(d)
			p.poll()
			for i := 0; i < 10; i++ {
				Expect(p.tick()).To(Equal(task.Pending))
			}
		})

		It("clear both settle durations", func() {
			d := newDrive(motion.ToX(0), 0, nil).
				WithLinearTolerances(control.NewTolerances().WithError(1)).
				WithLinearToleranceDuration(time.Second).
				WithAngularToleranceDuration(time.Second).
				WithoutToleranceDuration()
			p := newPoller(d)
			p.poll()

			Expect(p.tick()).To(Equal(task.Ready))
		})

		It("gate velocity on both axes", func() {
			tracking.linVel = 3
			tracking.angVel = 0.2
			d := newDrive(motion.ToX(0), 0, nil).
				WithLinearTolerances(control.NewTolerances().WithError(1)).
				WithLinearVelocityTolerance(1).
				WithAngularVelocityTolerance(0.1)
			p := newPoller(d)
			p.poll()
			Expect(p.tick()).To(Equal(task.Pending))

			tracking.linVel = 0.5
			Expect(p.tick()).To(Equal(task.Pending))

			d.WithoutAngularVelocityTolerance()
			Expect(p.tick()).To(Equal(task.Ready))
		})

		It("take the heading threshold as an angle", func() {
			tracking.heading = deg(5)
			d := newDrive(motion.ToX(0), 0, nil).
				WithLinearTolerances(control.NewTolerances().WithError(1)).
				WithAngularErrorTolerance(deg(2))
			p := newPoller(d)
			p.poll()
			Expect(p.tick()).To(Equal(task.Pending))

			d.WithAngularErrorTolerance(deg(6))
			Expect(p.tick()).To(Equal(task.Ready))
		})
	})
})

var _ = Describe("Basic", func() {
	var (
		tracking *fakeTracking
		dt       *drivetrain.Drivetrain
		basic    *motion.Basic[*control.PID, *control.AngularPID]
	)

	BeforeEach(func() {
		tracking = &fakeTracking{}
		dt = drivetrain.New(&fakeArcade{}, tracking)
		basic = &motion.Basic[*control.PID, *control.AngularPID]{
			LinearController:  control.NewPID(1, 1, 0),
			AngularController: control.NewAngularPID(3, 0.1, 0.175),
			LinearTolerances:  control.NewTolerances().WithError(0),
			AngularTolerances: control.NewTolerances(),
		}
	})

	It("gives each drive its own controllers", func() {
		d1 := basic.DriveToX(dt, 10, 0)
		d2 := basic.DriveToX(dt, 10, 0)

		Expect(d1.LinearController()).NotTo(BeIdenticalTo(basic.LinearController))
		Expect(d1.LinearController()).NotTo(BeIdenticalTo(d2.LinearController()))
		Expect(d1.AngularController()).NotTo(BeIdenticalTo(d2.AngularController()))

		p1 := newPoller(d1)
		p1.poll()
		p1.tick()
		first := d1.LastCommand()
		for i := 0; i < 9; i++ {
			p1.tick()
		}
		Expect(d1.LastCommand().Linear).To(BeNumerically(">", first.Linear))

		p2 := newPoller(d2)
		p2.poll()
		p2.tick()
		Expect(d2.LastCommand()).To(Equal(first))
	})

	It("tunes a drive without touching the prototype", func() {
		d := basic.DriveToY(dt, 10, 0).
			TuneLinear(control.OutputLimit(0.5), control.KD(0.02)).
			TuneAngular(control.AngularOutputLimit(0.8))

		Expect(*d.LinearController().OutputLimit()).To(Equal(0.5))
		Expect(d.LinearController().Kd).To(Equal(0.02))
		Expect(*d.AngularController().OutputLimit()).To(Equal(0.8))
		Expect(basic.LinearController.OutputLimit()).To(BeNil())
		Expect(basic.LinearController.Kd).To(Equal(0.0))

		p := newPoller(d)
		p.poll()
		p.tick()
		Expect(d.LastCommand().Linear).To(Equal(0.5))
	})

	It("targets the y axis", func() {
		tracking.position = r2.Point{X: 100, Y: 4}
		d := basic.DriveToY(dt, 10, 0)
		p := newPoller(d)
		p.poll()
		p.tick()

		linErr, _ := d.Errors()
		Expect(linErr).To(Equal(6.0))
		Expect(d.Target().String()).To(Equal("y=10.000"))
	})

	It("drives a distance at a heading", func() {
		tracking.travel = 2
		d := basic.DriveDistanceAtHeading(dt, -5, deg(45))
		p := newPoller(d)
		p.poll()
		tracking.travel = 1
		p.tick()

		linErr, angErr := d.Errors()
		Expect(linErr).To(Equal(-4.0))
		Expect(angErr.Degrees()).To(BeNumerically("~", 45, 1e-9))
		Expect(d.TargetHeading()).To(Equal(deg(45)))
	})

	It("turns in place", func() {
		tracking.heading = deg(-30)
		d := basic.TurnToHeading(dt, deg(90))
		p := newPoller(d)
		p.poll()
		p.tick()

		linErr, _ := d.Errors()
		Expect(linErr).To(Equal(0.0))
		Expect(d.LastCommand().Angular).To(BeNumerically(">", 0))
	})

	It("copies the timeout", func() {
		basic.Timeout = motion.Timeout(10 * time.Millisecond)
		d := basic.DriveToX(dt, 10, 0)
		*basic.Timeout = time.Hour

		p := newPoller(d)
		p.poll()
		p.tick()
		p.tick()
		Expect(p.tick()).To(Equal(task.Ready))
		Expect(d.Phase()).To(Equal(motion.TimedOut))
	})

	It("keeps its own tolerances and loop limits", func() {
		basic.LinearTolerances = control.NewTolerances().WithError(1)
		basic.LinearController.SetOutputLimit(ptr(2.0))
		d := basic.DriveToX(dt, 10, 0)

		*basic.LinearTolerances.Error = 50
		*basic.LinearController.OutputLimit() = 0.1

		p := newPoller(d)
		p.poll()
		Expect(p.tick()).To(Equal(task.Pending))
		Expect(d.Phase()).To(Equal(motion.Running))
		Expect(d.LastCommand().Linear).To(Equal(2.0))
	})
})

var _ = Describe("DistanceSensorDriving", func() {
	It("produces range drives", func() {
		rng := &fakeRange{reading: 12}
		s := &motion.DistanceSensorDriving[*control.PID, *control.AngularPID]{
			LinearController:  control.NewPID(0.1, 0, 0),
			AngularController: control.NewAngularPID(1, 0, 0),
			LinearTolerances:  control.NewTolerances().WithError(0.5),
			AngularTolerances: control.NewTolerances(),
		}
		d := s.DriveToDistance(drivetrain.New(&fakeArcade{}, &fakeTracking{}), rng, 20, 0)
		p := newPoller(d)
		p.poll()
		p.tick()

		Expect(d.LastCommand().Linear).To(BeNumerically("~", 0.8, 1e-12))
		Expect(rng.reads).To(Equal(1))

		rng.reading = 19.75
		Expect(p.tick()).To(Equal(task.Ready))
		Expect(d.LastCommand()).To(Equal(motion.Command{}))
	})
})

var _ = Describe("Simulated robot", func() {
	var (
		robot *sim.Robot
		basic *motion.Basic[*control.PID, *control.AngularPID]
	)

	BeforeEach(func() {
		robot = sim.NewRobot(physics.NewDifferentialDrive(), integrators.NewRK4(), sim.Pose{})
		basic = &motion.Basic[*control.PID, *control.AngularPID]{
			LinearController:  control.NewPID(0.1, 0.001, 0.01).WithIntegrationRange(3),
			AngularController: control.NewAngularPID(3, 0.1, 0.175).WithIntegrationRange(deg(5)),
			LinearTolerances: control.NewTolerances().
				WithError(1).
				WithVelocity(0.25).
				WithDuration(15 * time.Millisecond),
			AngularTolerances: control.NewTolerances().
				WithError(deg(8).Radians()).
				WithVelocity(0.05).
				WithDuration(15 * time.Millisecond),
			Timeout: motion.Timeout(5 * time.Second),
		}
	})

	It("drives to x = 24 and settles", func() {
		d := basic.DriveToX(robot.Drivetrain(), 24, 0)

		_, err := sim.New(robot).Run(context.Background(), d, sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		Expect(d.Phase()).To(Equal(motion.Settled))
		Expect(d.Elapsed()).To(BeNumerically("<", 5*time.Second))
		Expect(robot.Position().X).To(BeNumerically("~", 24, 1.0))
		Expect(robot.Voltages()).To(Equal(dynamo.Control{0, 0}))
	})

	It("times out on an unreachable tolerance", func() {
		d := basic.DriveToX(robot.Drivetrain(), 24, 0).
			WithLinearErrorTolerance(0).
			WithTimeout(200 * time.Millisecond)

		_, err := sim.New(robot).Run(context.Background(), d, sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		Expect(d.Phase()).To(Equal(motion.TimedOut))
		Expect(d.Elapsed()).To(BeNumerically(">=", 200*time.Millisecond))
		Expect(d.Elapsed()).To(BeNumerically("<", 210*time.Millisecond))
	})

	It("turns to a heading", func() {
		d := basic.TurnToHeading(robot.Drivetrain(), deg(90))

		_, err := sim.New(robot).Run(context.Background(), d, sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		Expect(d.Phase()).To(Equal(motion.Settled))
		Expect(robot.Heading().Degrees()).To(BeNumerically("~", 90, 8))
	})

	It("runs alongside other work", func() {
		d := basic.DriveToX(robot.Drivetrain(), 12, 0)
		pulse := task.Sleep(50 * time.Millisecond)

		_, err := sim.New(robot).Run(context.Background(), task.Join(d, pulse), sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Phase()).To(Equal(motion.Settled))
	})
})
