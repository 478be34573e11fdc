package motion

import (
	"time"

	"github.com/golang/geo/s1"

	"github.com/san-kum/drivelab/internal/control"
	"github.com/san-kum/drivelab/internal/drivetrain"
)

// Basic produces drives on odometry targets from prototype loops and
// tolerances. Each produced drive gets clones, so drives from the same
// Basic never share accumulators.
type Basic[L control.LinearFeedback[L], A control.AngularFeedback[A]] struct {
	LinearController  L
	AngularController A

	LinearTolerances  control.Tolerances
	AngularTolerances control.Tolerances

	Timeout *time.Duration
}

func (b *Basic[L, A]) drive(dt *drivetrain.Drivetrain, target Target, heading s1.Angle) *Drive[L, A] {
	return New(dt, target, heading,
		b.LinearController.Clone(),
		b.AngularController.Clone(),
		b.LinearTolerances,
		b.AngularTolerances,
		b.Timeout,
	)
}

// DriveToX drives to an absolute X coordinate while holding heading.
func (b *Basic[L, A]) DriveToX(dt *drivetrain.Drivetrain, x float64, heading s1.Angle) *Drive[L, A] {
	return b.drive(dt, ToX(x), heading)
}

// DriveToY drives to an absolute Y coordinate while holding heading.
func (b *Basic[L, A]) DriveToY(dt *drivetrain.Drivetrain, y float64, heading s1.Angle) *Drive[L, A] {
	return b.drive(dt, ToY(y), heading)
}

// DriveDistanceAtHeading drives a signed distance of forward travel.
func (b *Basic[L, A]) DriveDistanceAtHeading(dt *drivetrain.Drivetrain, distance float64, heading s1.Angle) *Drive[L, A] {
	return b.drive(dt, ByDistance(distance), heading)
}

// TurnToHeading turns in place.
func (b *Basic[L, A]) TurnToHeading(dt *drivetrain.Drivetrain, heading s1.Angle) *Drive[L, A] {
	return b.drive(dt, ByDistance(0), heading)
}

// DistanceSensorDriving produces drives that converge on a rangefinder
// reading.
type DistanceSensorDriving[L control.LinearFeedback[L], A control.AngularFeedback[A]] struct {
	LinearController  L
	AngularController A

	LinearTolerances  control.Tolerances
	AngularTolerances control.Tolerances

	Timeout *time.Duration
}

// DriveToDistance drives until sensor reads distance while holding heading.
func (s *DistanceSensorDriving[L, A]) DriveToDistance(
	dt *drivetrain.Drivetrain,
	sensor drivetrain.Rangefinder,
	distance float64,
	heading s1.Angle,
) *Drive[L, A] {
	return New(dt, ToRange(sensor, distance), heading,
		s.LinearController.Clone(),
		s.AngularController.Clone(),
		s.LinearTolerances,
		s.AngularTolerances,
		s.Timeout,
	)
}
