package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/robot-sim/game/engine"
	"github.com/wricardo/robot-sim/game/executor"
	"github.com/wricardo/robot-sim/game/script"
	"github.com/wricardo/robot-sim/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Robot Simulator",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Robot Simulator - MCP Interface

This is a thin client that proxies all requests to the REST API server.

A differential-drive robot moves on a flat floor with walls, ramps and
colored zones. You write programs as scripts (lists of steps), run them in a
session and read back the sensors, the pen drawings and the challenge result.

AVAILABLE TOOLS:
- create_session: Create a session for a scenario
- list_sessions / get_session: Inspect sessions
- list_scenarios / switch_scenario: Pick a scenario
- run_program: Start a script (one program per session at a time)
- stop_program: Stop the running program
- reset_simulation: Abort and put the robot back at the start
- robot_snapshot: Pose, sensors, motors, LEDs and pen
- place_robot: Move the robot to a floor position
- run_history: Challenge progress and finished runs
- drawings: Pen trails drawn so far
- script_reference: Every script step and condition with examples

Call script_reference before writing your first program.`),
	)

	// Register all tools
	c.registerTools()
}

func sessionSchema(extra map[string]interface{}, required ...string) mcp.ToolInputSchema {
	props := map[string]interface{}{
		"session_id": map[string]interface{}{
			"type":        "string",
			"description": "Session ID",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   append([]string{"session_id"}, required...),
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new simulation session with optional scenario selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario_id": map[string]interface{}{
					"type":        "string",
					"description": "Scenario to load (optional, see list_scenarios)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active simulation sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionSchema(nil),
	}, c.handleGetSession)

	// Scenarios
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_scenarios",
		Description: "List the available scenarios and whether they define a challenge",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListScenarios)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "switch_scenario",
		Description: "Load another scenario into a session. Aborts any running program.",
		InputSchema: sessionSchema(map[string]interface{}{
			"scenario_id": map[string]interface{}{
				"type":        "string",
				"description": "Scenario to load",
			},
		}, "scenario_id"),
	}, c.handleSwitchScenario)

	// Program control
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_program",
		Description: "Start a script in a session. Fails if a program is already running; stop or reset first.",
		InputSchema: sessionSchema(map[string]interface{}{
			"script": map[string]interface{}{
				"type":        "object",
				"description": `Script object: {"name": "...", "steps": [{"op": "move", "value": 20}, ...]}`,
			},
			"reset": map[string]interface{}{
				"type":        "boolean",
				"description": "Reset the simulation before starting (default false)",
			},
			"intent": map[string]interface{}{
				"type":        "string",
				"description": "What you expect the program to do",
			},
		}, "script"),
	}, c.handleRunProgram)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "stop_program",
		Description: "Stop the running program and record the run",
		InputSchema: sessionSchema(nil),
	}, c.handleStopProgram)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_simulation",
		Description: "Abort any program and restore the scenario start pose",
		InputSchema: sessionSchema(nil),
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "place_robot",
		Description: "Place the robot at a floor position (world units)",
		InputSchema: sessionSchema(map[string]interface{}{
			"x": map[string]interface{}{"type": "number", "description": "X coordinate"},
			"z": map[string]interface{}{"type": "number", "description": "Z coordinate"},
		}, "x", "z"),
	}, c.handlePlaceRobot)

	// Simulation state
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "robot_snapshot",
		Description: "Get the robot pose, sensor readings, motors, LEDs and pen",
		InputSchema: sessionSchema(nil),
	}, c.handleSnapshot)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_history",
		Description: "Get the challenge progress of the current run and the most recent finished runs",
		InputSchema: sessionSchema(map[string]interface{}{
			"limit": map[string]interface{}{
				"type":        "number",
				"description": "Finished runs to list (default 5)",
			},
		}),
	}, c.handleRunHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "drawings",
		Description: "Get the pen trails drawn in a session",
		InputSchema: sessionSchema(nil),
	}, c.handleDrawings)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "script_reference",
		Description: "Get the script language reference with examples",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleScriptReference)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"].(string); ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func sessionPath(args map[string]interface{}, suffix string) (string, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix, nil
}

// decodeScript accepts the script as an object or as a JSON/YAML string
func decodeScript(raw interface{}) (*script.Script, error) {
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("script is required")
	case string:
		ext := ".json"
		if !strings.HasPrefix(strings.TrimSpace(v), "{") {
			ext = ".yaml"
		}
		return script.Parse([]byte(v), ext)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return script.Parse(data, ".json")
	}
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	scenarioID, _ := args["scenario_id"].(string)

	body := map[string]string{}
	if scenarioID != "" {
		body["scenario_id"] = scenarioID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nScenario: %s\n\n%s", session.ID, session.ScenarioID, formatState(session.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&result, "- %s (Scenario: %s, Run: %s, Created: %s)\n",
			s.ID, s.ScenarioID, s.Run.Status, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var scenarios []service.ScenarioInfo
	if err := c.apiCall(ctx, "GET", "/api/scenarios", nil, &scenarios); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Available Scenarios (%d):\n\n", len(scenarios))
	for _, s := range scenarios {
		challenge := ""
		if s.HasGoal {
			challenge = " [challenge]"
		}
		fmt.Fprintf(&result, "- %s: %s%s\n", s.ScenarioID, s.Title, challenge)
		if s.Description != "" {
			fmt.Fprintf(&result, "    %s\n", s.Description)
		}
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleSwitchScenario(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/scenario")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	scenarioID, _ := args["scenario_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "PUT", path, map[string]string{"scenario_id": scenarioID}, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleRunProgram(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/run")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s, err := decodeScript(args["script"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reset, _ := args["reset"].(bool)

	var run service.RunInfo
	body := map[string]interface{}{"script": s, "reset": reset}
	if err := c.apiCall(ctx, "POST", path, body, &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Started run %d", run.Run.RunID)
	if run.ScriptName != "" {
		fmt.Fprintf(&result, " (%s)", run.ScriptName)
	}
	fmt.Fprintf(&result, " with %d step(s)\n", len(s.Steps))
	if intent, _ := args["intent"].(string); intent != "" {
		fmt.Fprintf(&result, "Intent: %s\n", intent)
	}
	result.WriteString("Use robot_snapshot or run_history to follow progress.\n")

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleStopProgram(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/stop")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var status executor.RunStatus
	if err := c.apiCall(ctx, "POST", path, nil, &status); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRunStatus(&status)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/reset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.State
	if err := c.apiCall(ctx, "POST", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Simulation reset.\n\n" + formatState(&state)), nil
}

func (c *Client) handlePlaceRobot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/place")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	x, okX := args["x"].(float64)
	z, okZ := args["z"].(float64)
	if !okX || !okZ {
		return mcp.NewToolResultError("x and z are required numbers"), nil
	}

	var state engine.State
	if err := c.apiCall(ctx, "POST", path, map[string]float64{"x": x, "z": z}, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatState(&state)), nil
}

func (c *Client) handleSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/snapshot")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.State
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatState(&state)), nil
}

func (c *Client) handleRunHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/history")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	limit := 5
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}
	runsPath, _ := sessionPath(args, fmt.Sprintf("/runs?limit=%d", limit))
	var runs struct {
		Runs []service.RunRecord `json:"runs"`
	}
	// Run records are optional on the server
	runsErr := c.apiCall(ctx, "GET", runsPath, nil, &runs)

	var result strings.Builder
	result.WriteString(formatHistory(&history))
	if runsErr == nil {
		fmt.Fprintf(&result, "\nFinished runs (%d):\n", len(runs.Runs))
		for _, r := range runs.Runs {
			fmt.Fprintf(&result, "- run %d on %s: %s, success=%t, %d ticks", r.RunID, r.ScenarioID, r.Outcome, r.Success, r.Ticks)
			if r.Error != "" {
				fmt.Fprintf(&result, ", error: %s", r.Error)
			}
			result.WriteString("\n")
		}
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleDrawings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/drawings")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var drawings service.DrawingsResponse
	if err := c.apiCall(ctx, "GET", path, nil, &drawings); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Completed trails: %d\n", drawings.Count)
	for _, d := range drawings.Completed {
		fmt.Fprintf(&result, "- %s %s: %d points%s\n", d.ID, d.Color, len(d.Points), formatEndpoints(d.Points))
	}
	if drawings.Current != nil {
		fmt.Fprintf(&result, "Drawing now (%s): %d points%s\n", drawings.Current.Color, len(drawings.Current.Points), formatEndpoints(drawings.Current.Points))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleScriptReference(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(scriptReference), nil
}

const scriptReference = `Robot Simulator - Script Reference

A script is {"name": "...", "steps": [...]}. Steps run in order. Each step is
an object with an "op" and the fields that op needs.

MOTION:
  {"op": "move", "value": 20}              Drive forward (negative = backward), cm
  {"op": "turn", "value": 90}              Turn clockwise (negative = counter-clockwise), degrees
  {"op": "set_heading", "value": 180}      Turn to an absolute heading
  {"op": "set_motor_power", "left": 50, "right": 50}   Free-run motors, -100..100
  {"op": "set_speed", "value": 60}         Speed for move/turn, percent
  {"op": "stop"}                           Stop the motors
  {"op": "wait", "value": 500}             Wait, milliseconds

PEN AND LEDS:
  {"op": "set_pen", "down": true}
  {"op": "set_pen_color", "color": "#22C55E"}
  {"op": "clear_pen"}
  {"op": "set_led", "side": "left|right|both", "color": "red"}

CONTROL FLOW:
  {"op": "repeat", "count": 4, "steps": [...]}
  {"op": "forever", "steps": [...]}
  {"op": "repeat_until", "condition": {...}, "steps": [...]}
  {"op": "if", "condition": {...}, "steps": [...], "else": [...]}
  {"op": "stop_program"}
  {"op": "set_variable", "name": "laps", "set": 3}

EVENTS (the steps run each time the event fires):
  {"op": "on_color", "color": "red", "steps": [...]}
  {"op": "on_obstacle", "steps": [...]}
  {"op": "on_distance", "value": 15, "steps": [...]}
  {"op": "on_message", "name": "go", "steps": [...]}
  {"op": "send_message", "name": "go"}

CONDITIONS:
  {"type": "touch"}
  {"type": "color", "color": "black"}
  {"type": "distance_below", "value": 10}
  {"type": "distance_above", "value": 30}
  {"type": "gyro_between", "min": 80, "max": 100, "mode": "angle|tilt"}
  Add "not": true to negate.

SENSORS:
  touch     true while the bumper presses a wall
  distance  ultrasonic range to the nearest wall, cm (capped)
  color     color under the sensor: black, white, red, green, blue, yellow, ...
  gyro      heading in degrees (angle mode) or ramp pitch (tilt mode)

EXAMPLE - drive to the wall and back:
  {"name": "bounce", "steps": [
    {"op": "repeat_until", "condition": {"type": "touch"}, "steps": [{"op": "move", "value": 5}]},
    {"op": "move", "value": -20},
    {"op": "turn", "value": 180}
  ]}

A program that finishes leaves the session active; call stop_program to
record the run, or reset_simulation to start over.`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	var result strings.Builder
	fmt.Fprintf(&result, "Session: %s\nScenario: %s\nCreated: %s\n",
		session.ID, session.ScenarioID, session.CreatedAt.Format("2006-01-02 15:04:05"))
	if session.Scenario != nil && session.Scenario.Title != "" {
		fmt.Fprintf(&result, "Title: %s\n", session.Scenario.Title)
	}
	result.WriteString(formatRunStatus(&session.Run))
	result.WriteString("\n")
	result.WriteString(formatState(session.State))
	return result.String()
}

func formatRunStatus(status *executor.RunStatus) string {
	s := fmt.Sprintf("Run %d: %s (active=%t, workers=%d)\n", status.RunID, status.Status, status.Active, status.Workers)
	if status.Err != "" {
		s += fmt.Sprintf("Error: %s\n", status.Err)
	}
	return s
}

func formatState(state *engine.State) string {
	if state == nil {
		return "No simulation state available"
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Tick: %d  Active: %t  Success: %t\n", state.Tick, state.Active, state.Success)
	fmt.Fprintf(&result, "Pose: x=%.2f y=%.2f z=%.2f heading=%.1f° tilt=%.1f° roll=%.1f°\n",
		state.Pose.X, state.Pose.Y, state.Pose.Z, state.Pose.Rotation, state.Pose.Tilt, state.Pose.Roll)

	sensors := state.Sensors
	color := sensors.Color
	if color == "" {
		color = "none"
	}
	fmt.Fprintf(&result, "Sensors: touch=%t distance=%.1fcm color=%s gyro=%.1f°\n",
		sensors.Touching, sensors.Distance, color, sensors.Gyro)
	fmt.Fprintf(&result, "Motors: left=%.0f right=%.0f speed=%.0f%%\n",
		state.Motors.LeftPower, state.Motors.RightPower, state.Motors.SpeedScale*100)
	fmt.Fprintf(&result, "LEDs: left=%s right=%s  Pen: down=%t color=%s\n",
		orDash(state.Leds.Left), orDash(state.Leds.Right), state.Pen.Down, state.Pen.Color)

	l := state.Listeners
	if l.Colors+l.Obstacles+l.Distances+l.Messages > 0 {
		fmt.Fprintf(&result, "Listeners: color=%d obstacle=%d distance=%d message=%d\n",
			l.Colors, l.Obstacles, l.Distances, l.Messages)
	}
	if len(state.Variables) > 0 {
		vars, _ := json.Marshal(state.Variables)
		fmt.Fprintf(&result, "Variables: %s\n", vars)
	}
	return result.String()
}

func formatHistory(history *service.HistoryResponse) string {
	h := history.History
	var result strings.Builder
	fmt.Fprintf(&result, "Scenario: %s  Tick: %d\n", history.ScenarioID, history.Tick)
	fmt.Fprintf(&result, "Max distance moved: %.1fcm\n", h.MaxDistanceMoved)
	fmt.Fprintf(&result, "Touched wall: %t\n", h.TouchedWall)
	fmt.Fprintf(&result, "Colors detected: %s\n", orDash(strings.Join(h.DetectedColors, ", ")))
	fmt.Fprintf(&result, "Total rotation: %.1f°\n", h.TotalRotation)
	if history.Goal != nil {
		goal, _ := json.Marshal(history.Goal)
		fmt.Fprintf(&result, "Challenge: %s\n", goal)
	}
	if history.Success {
		result.WriteString("Challenge complete!\n")
	}
	return result.String()
}

func formatEndpoints(points [][3]float64) string {
	if len(points) == 0 {
		return ""
	}
	first, last := points[0], points[len(points)-1]
	return fmt.Sprintf(" from (%.1f, %.1f) to (%.1f, %.1f)", first[0], first[2], last[0], last[2])
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
