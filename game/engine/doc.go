// Package engine provides the core simulation of a differential-drive robot.
//
// The engine package implements:
//   - Environment resolution (walls, ramps, colored floor zones)
//   - The ground height field and per-scenario elevation profiles
//   - Touch, bumper and range probes against the wall set
//   - Color classification of floor zones and fixed scenario markers
//   - The per-tick kinematics integrator with slope attenuation
//   - Edge-triggered listeners, run history and success evaluation
//   - Pen trail segmentation
//
// Core Types:
//
// The Engine interface defines the simulation contract, implemented by
// Simulation. A Scenario describes the scenery, start pose and goal; World
// is its resolved, queryable form. Sensor reads are pure functions of a pose
// and a World.
//
// Usage:
//
//	sim, err := engine.NewSimulation(engine.DefaultScenario())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sim.Activate()
//	sim.SetMotorPower(50, 50)
//	for i := 0; i < 60; i++ {
//		sim.Step()
//	}
//	state := sim.Snapshot()
//
// Simulation is not safe for concurrent use. The executor package serializes
// the tick driver and program commands onto a single logical thread.
package engine
