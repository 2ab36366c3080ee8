// Package service provides the business logic layer for the robot simulator.
//
// The service package implements:
//   - Multi-session simulation management
//   - Scenario loading and switching
//   - Program start, stop and reset
//   - Run history and run records
//
// Core Interfaces:
//
// SimService is the main service interface used by the REST, WebSocket and
// MCP transports. SessionManager stores sessions, ScenarioCatalog loads
// scenarios and RunStore keeps the audit log of finished runs. Observers
// receive per-tick snapshots, the one-time goal event and run reports.
//
// Architecture:
//
// Each session owns an executor.Runner, which owns one simulation. The
// session manager starts a tick driver per session; the service only issues
// commands and reads snapshots, so transports never touch the simulation
// directly.
//
// Usage:
//
//	sessions := session.NewManager()
//	scenarios, _ := config.NewManager("configs")
//	sim := service.NewSimService(sessions, scenarios,
//		service.WithRunStore(store),
//		service.WithObserver(hub),
//	)
//
//	info, err := sim.CreateSession(ctx, "line-follow")
//	if err != nil {
//		log.Fatal(err)
//	}
//	run, err := sim.RunScript(ctx, info.ID, program, false)
package service
