// Package physics provides the plant models the simulator integrates.
//
// [DifferentialDrive] implements [dynamo.System] for a two-sided
// skid-steer base driven by per-side voltages, and [dynamo.Configurable]
// for changing its parameters by name:
//
//	plant := physics.NewDifferentialDrive()
//	_ = plant.SetParam("time_constant", 0.12)
//	dx := plant.Derive(x, dynamo.Control{6, 6}, 0)
package physics
