// Package control provides the feedback loops and settling checks used by
// the motion primitives.
//
// Feedback loops implement [Feedback] over a measured state type:
//
//   - [PID]: Proportional-Integral-Derivative loop on a scalar error
//   - [AngularPID]: the same loop on an angle, with the error wrapped to
//     the shortest rotation
//
// [Tolerances] decides when an axis has settled.
//
// # Usage
//
//	pid := control.NewPID(0.1, 0.001, 0.01).WithIntegrationRange(3.0)
//	out := pid.Update(measured, setpoint, dt)
//
// Both loops implement [dynamo.Configurable]; the watch view uses it to
// retune a running drive.
package control
