// Package dynamo provides the simulation primitives behind the simulated
// drive platform.
//
//   - [State]: vector representing plant state
//   - [System]: interface for ODE plants (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper interface
//   - [Metric] and [Observer]: per-step hooks used while recording a run
//   - [Configurable]: live parameter tuning by name
//
// # Thread Safety
//
// None of the types here are safe for concurrent use. [ForEach] runs
// independent work items, each of which must own its own plant.
package dynamo
