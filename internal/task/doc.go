// Package task is a single-threaded cooperative executor.
//
// A [Future] is polled with a [Context] carrying the current time. A
// future that is not finished returns [Pending] and asks to be woken at a
// later time with [Context.WakeAt]; the [Executor] polls it again once that
// time has passed. Futures never block and never start goroutines, so
// several of them can interleave on one executor without locking.
//
// # Usage
//
//	ex := task.NewExecutor(clock.New())
//	ex.Spawn("drive", drive)
//	ex.Spawn("pulse", task.Sleep(250*time.Millisecond))
//	err := ex.Run(ctx)
package task
