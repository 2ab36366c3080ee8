package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/robot-sim/game/engine"
	"github.com/wricardo/robot-sim/game/executor"
	"github.com/wricardo/robot-sim/game/script"
	"github.com/wricardo/robot-sim/game/service"
)

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL + "/")

	if client == nil {
		t.Fatal("Expected client to be created")
	}
	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "healthy"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall(context.Background(), "GET", "/api/health", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("Expected status healthy, got %v", response["status"])
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]interface{}{"error": "simulation is already running", "code": 409})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.apiCall(context.Background(), "GET", "/plain", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "API error") {
		t.Errorf("Expected 'API error' in error message, got: %v", err)
	}

	err = client.apiCall(context.Background(), "GET", "/json", nil, nil)
	if err == nil || err.Error() != "simulation is already running" {
		t.Errorf("Expected the server error message, got: %v", err)
	}
}

func TestClient_createSession(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)

		resp := service.SessionInfo{
			ID:         "ab12",
			ScenarioID: "wall-run",
			State:      &engine.State{ScenarioID: "wall-run", Pose: engine.Pose{Rotation: 180}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleCreateSession(context.Background(), callTool("create_session", map[string]interface{}{
		"scenario_id": "wall-run",
	}))
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "ab12") || !strings.Contains(text, "wall-run") {
		t.Errorf("Expected session and scenario in result, got: %s", text)
	}
	if gotBody["scenario_id"] != "wall-run" {
		t.Errorf("Expected scenario_id to be forwarded, got %v", gotBody)
	}
}

func TestClient_sessionToolsRequireSessionID(t *testing.T) {
	client := NewClient("http://localhost:1")
	ctx := context.Background()

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"get_session":      client.handleGetSession,
		"robot_snapshot":   client.handleSnapshot,
		"stop_program":     client.handleStopProgram,
		"reset_simulation": client.handleReset,
		"drawings":         client.handleDrawings,
		"run_history":      client.handleRunHistory,
	}

	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			result, err := handler(ctx, callTool(name, nil))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if !result.IsError {
				t.Error("Expected a tool error without session_id")
			}
			if text := resultText(t, result); !strings.Contains(text, "session_id is required") {
				t.Errorf("Unexpected error text: %s", text)
			}
		})
	}
}

func TestClient_runProgram(t *testing.T) {
	var got struct {
		Script *script.Script `json:"script"`
		Reset  bool           `json:"reset"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions/ab12/run" {
			t.Errorf("Expected POST /api/sessions/ab12/run, got %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(service.RunInfo{
			SessionID:  "ab12",
			ScriptName: got.Script.Name,
			Run:        executor.RunStatus{RunID: 7, Status: executor.StatusRunning, Active: true},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	t.Run("script object", func(t *testing.T) {
		result, err := client.handleRunProgram(ctx, callTool("run_program", map[string]interface{}{
			"session_id": "ab12",
			"reset":      true,
			"intent":     "reach the wall",
			"script": map[string]interface{}{
				"name":  "forward",
				"steps": []interface{}{map[string]interface{}{"op": "move", "value": 20.0}},
			},
		}))
		if err != nil {
			t.Fatal(err)
		}
		text := resultText(t, result)
		if result.IsError {
			t.Fatalf("Unexpected tool error: %s", text)
		}
		if !strings.Contains(text, "Started run 7 (forward)") || !strings.Contains(text, "reach the wall") {
			t.Errorf("Unexpected result: %s", text)
		}
		if !got.Reset || got.Script == nil || got.Script.Steps[0].Op != script.OpMove {
			t.Errorf("Request not forwarded: %+v", got)
		}
	})

	t.Run("yaml string", func(t *testing.T) {
		result, err := client.handleRunProgram(ctx, callTool("run_program", map[string]interface{}{
			"session_id": "ab12",
			"script":     "name: spin\nsteps:\n  - op: turn\n    value: 90\n",
		}))
		if err != nil {
			t.Fatal(err)
		}
		if result.IsError {
			t.Fatalf("Unexpected tool error: %s", resultText(t, result))
		}
		if got.Script.Name != "spin" || got.Script.Steps[0].Op != script.OpTurn {
			t.Errorf("YAML script not forwarded: %+v", got.Script)
		}
	})

	t.Run("invalid script is rejected locally", func(t *testing.T) {
		result, err := client.handleRunProgram(ctx, callTool("run_program", map[string]interface{}{
			"session_id": "ab12",
			"script":     map[string]interface{}{"steps": []interface{}{map[string]interface{}{"op": "fly"}}},
		}))
		if err != nil {
			t.Fatal(err)
		}
		if !result.IsError || !strings.Contains(resultText(t, result), "unknown op") {
			t.Errorf("Expected an invalid script error, got %s", resultText(t, result))
		}
	})
}

func TestClient_placeRobot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]float64
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(engine.State{Pose: engine.Pose{X: body["x"], Z: body["z"]}})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handlePlaceRobot(context.Background(), callTool("place_robot", map[string]interface{}{
		"session_id": "ab12", "x": 4.0, "z": -2.5,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if text := resultText(t, result); !strings.Contains(text, "x=4.00") || !strings.Contains(text, "z=-2.50") {
		t.Errorf("Unexpected placement result: %s", text)
	}

	result, _ = client.handlePlaceRobot(context.Background(), callTool("place_robot", map[string]interface{}{
		"session_id": "ab12", "x": 4.0,
	}))
	if !result.IsError {
		t.Error("Expected an error without z")
	}
}

func TestClient_runHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/sessions/ab12/history":
			json.NewEncoder(w).Encode(service.HistoryResponse{
				SessionID:  "ab12",
				ScenarioID: "wall-run",
				Success:    true,
				History:    engine.RunHistory{MaxDistanceMoved: 30, TouchedWall: true, DetectedColors: []string{"red"}},
			})
		case "/api/sessions/ab12/runs":
			if r.URL.Query().Get("limit") != "2" {
				t.Errorf("Expected limit=2, got %s", r.URL.RawQuery)
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"runs": []service.RunRecord{{RunID: 3, ScenarioID: "wall-run", Outcome: "completed", Success: true, Ticks: 90, EndedAt: time.Now()}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleRunHistory(context.Background(), callTool("run_history", map[string]interface{}{
		"session_id": "ab12", "limit": 2.0,
	}))
	if err != nil {
		t.Fatal(err)
	}

	text := resultText(t, result)
	for _, want := range []string{"Touched wall: true", "Colors detected: red", "Challenge complete!", "run 3 on wall-run: completed"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in history, got: %s", want, text)
		}
	}
}

func TestFormatState(t *testing.T) {
	state := &engine.State{
		Tick:    12,
		Active:  true,
		Pose:    engine.Pose{X: 1.5, Z: -3, Rotation: 90},
		Sensors: engine.SensorSnapshot{Touching: true, Distance: 4.2, Color: "black"},
		Motors:  engine.MotorState{LeftPower: 50, RightPower: -50, SpeedScale: 1},
		Leds:    engine.LedState{Left: "red"},
		Pen:     engine.PenState{Down: true, Color: "#000000"},
		Listeners: engine.ListenerCounts{
			Colors: 1,
		},
	}

	text := formatState(state)
	for _, want := range []string{
		"Tick: 12",
		"x=1.50",
		"heading=90.0°",
		"touch=true distance=4.2cm color=black",
		"left=50 right=-50 speed=100%",
		"LEDs: left=red right=-",
		"Listeners: color=1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in state, got: %s", want, text)
		}
	}

	if formatState(nil) != "No simulation state available" {
		t.Error("nil state should have a placeholder")
	}
}

func TestClient_handleScriptReference(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleScriptReference(context.Background(), callTool("script_reference", nil))
	if err != nil {
		t.Fatalf("handleScriptReference failed: %v", err)
	}

	text := resultText(t, result)
	for _, content := range []string{"MOTION:", "CONTROL FLOW:", "EVENTS", "CONDITIONS:", "SENSORS:", "EXAMPLE"} {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in reference", content)
		}
	}

	// The documented example must parse
	example := text[strings.Index(text, `{"name": "bounce"`):]
	example = example[:strings.Index(example, "\n\n")]
	if _, err := script.Parse([]byte(example), ".json"); err != nil {
		t.Errorf("example script does not parse: %v", err)
	}
}
