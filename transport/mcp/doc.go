// Package mcp exposes the robot simulator to AI agents over the Model
// Context Protocol.
//
// The Client is a thin MCP server whose tools forward to the HTTP API, so
// an agent drives the same sessions a browser renderer is watching.
//
// MCP Tools:
//   - create_session: Create a session on a scenario (default sandbox)
//   - list_sessions: List active sessions
//   - get_session: Session info with run status and readout
//   - list_scenarios: List scenario files and their goals
//   - switch_scenario: Load another scenario into a session
//   - run_program: Start a script (object, JSON or YAML) on the robot
//   - stop_program: Stop the running program
//   - reset_simulation: Abort and return the robot to the start pose
//   - place_robot: Move the robot to x, z
//   - robot_snapshot: Pose, sensors, LEDs and pen state
//   - run_history: Challenge progress plus recent finished runs
//   - drawings: Pen trails
//   - script_reference: Script ops, conditions and an example
//
// Scripts are validated locally before they are sent, so an agent gets the
// parse error without a round trip.
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST single JSON-RPC messages to /mcp on the API server
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
