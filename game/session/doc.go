// Package session provides session management for the robot simulator.
//
// Each session owns one simulation and the executor.Runner that drives it.
// Unless the manager is built WithManualClock, Create also starts a
// goroutine that ticks the runner in real time; Delete and Close stop the
// session's program and that goroutine.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs when the caller does not pick one.
// Lookups are case-insensitive.
//
// Usage:
//
//	manager := session.NewManager(session.WithLogger(logger))
//	defer manager.Close()
//
//	sess, err := manager.Create("", engine.DefaultScenario())
//	if err != nil {
//		return err
//	}
//	sess.Runner.Start(ctx, program)
//
// Cleanup:
//
// StartCleanup removes sessions that have not been accessed within a
// maximum age.
package session
