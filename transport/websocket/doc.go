// Package websocket pushes simulation readouts to external renderers.
//
// Hub implements service.Observer. Every tick of a session becomes a
// "snapshot" message, the first tick a run meets its goal becomes a
// "success" message and a finished run becomes a "run_end" message carrying
// the run report. Clients subscribe with ?session=<id> and receive the
// current snapshot as their first message.
//
// Only the Run goroutine touches the client registry. Snapshots never block
// the simulation: when the hub falls behind they are dropped and counted.
// Success, run_end and custom events wait up to a second for room instead.
// A client whose queue is full is disconnected.
//
// Usage:
//
//	hub := websocket.NewHub(websocket.WithLogger(logger))
//	go hub.Run(ctx)
//
//	sim := service.NewSimService(sessions, scenarios, service.WithObserver(hub))
package websocket
