// Package executor runs robot programs against a simulation.
//
// A Runner owns the tick loop and the single active run. Programs are plain
// Go functions that receive a Robot; blocking commands such as Move, Turn and
// Wait suspend on the tick boundary and resume after the simulation advances.
// Reset, StopProgram and a new run supersede the current one, after which
// every Robot call returns ErrAborted.
//
// Tick driving:
//   - Run(ctx) steps on a real-time ticker
//   - StepSynced and Drive step only once every live program goroutine is
//     waiting for a tick, which makes runs reproducible
package executor
