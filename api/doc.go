// Package api provides the HTTP REST API for the robot simulator.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"scenario_id": "..."} optional)
//   - GET /api/sessions - List sessions (sort=created|accessed, order=asc|desc, limit=N)
//   - GET /api/sessions/{id} - Session info with run status and snapshot
//   - DELETE /api/sessions/{id} - Abort the program and remove the session
//   - PUT /api/sessions/{id}/scenario - Load another scenario ({"scenario_id": "..."})
//
// Programs:
//   - POST /api/sessions/{id}/run - Start a script ({"script": {...}, "reset": bool})
//   - POST /api/sessions/{id}/stop - Stop the running program
//   - POST /api/sessions/{id}/reset - Abort and restore the scenario start
//   - POST /api/sessions/{id}/place - Move the robot ({"x": 0, "z": 0})
//
// State:
//   - GET /api/sessions/{id}/snapshot - Latest simulation readout
//   - GET /api/sessions/{id}/drawings - Pen trails
//   - GET /api/sessions/{id}/history - Run history and challenge outcome
//   - GET /api/sessions/{id}/runs - Finished runs of a session (limit=N)
//   - GET /api/runs - Finished runs of every session (session=ID, limit=N)
//
// Scenarios:
//   - GET /api/scenarios - List scenario files
//   - GET /api/scenarios/{id} - Scenario definition
//   - POST /api/scenarios - Validate and save a scenario
//
// Renderers subscribe to GET /ws?session=<id>; see package websocket.
//
// Error Handling:
//
// Errors are returned as JSON with a status derived from the error kind:
// unknown sessions and scenarios are 404, a program already running is 409,
// invalid scripts and scenarios are 400 and a disabled run store is 501.
//
//	{
//	  "error": "error message",
//	  "code": 404
//	}
package api
