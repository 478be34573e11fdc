// Package motion implements feedback-driven drive primitives.
//
// A [Drive] moves the platform along one axis while holding a heading. It
// is a [task.Future]: each poll either waits out the fixed tick interval
// or runs one control step, and the drive completes once both axes have
// settled or its timeout has passed. On completion it commands zero output
// exactly once.
//
// Drives are produced by [Basic] (coordinate, distance and turn motions)
// and [DistanceSensorDriving] (range-relative motions), each of which hands
// every drive its own copy of the prototype loops and tolerances.
//
//	basic := motion.Basic[*control.PID, *control.AngularPID]{...}
//	drive := basic.DriveToX(dt, 24, 0).
//		WithTimeout(time.Second).
//		TuneLinear(control.OutputLimit(0.5))
//	err := ex.Block(ctx, "drive", drive)
package motion
