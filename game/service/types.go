package service

import (
	"time"

	"github.com/wricardo/robot-sim/game/engine"
	"github.com/wricardo/robot-sim/game/executor"
)

// SessionInfo provides information about a simulation session
type SessionInfo struct {
	ID             string             `json:"id"`
	ScenarioID     string             `json:"scenario_id"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Run            executor.RunStatus `json:"run"`
	State          *engine.State      `json:"state"`
	Scenario       *engine.Scenario   `json:"scenario"`
}

// RunInfo is returned when a program is started
type RunInfo struct {
	SessionID  string             `json:"session_id"`
	ScriptName string             `json:"script_name,omitempty"`
	Run        executor.RunStatus `json:"run"`
	State      *engine.State      `json:"state"`
}

// DrawingsResponse lists the pen trails of a session
type DrawingsResponse struct {
	SessionID string               `json:"session_id"`
	Completed []engine.DrawingPath `json:"completed"`
	Current   *engine.DrawingPath  `json:"current,omitempty"`
	Count     int                  `json:"count"`
}

// HistoryResponse reports the run history and challenge outcome
type HistoryResponse struct {
	SessionID  string            `json:"session_id"`
	ScenarioID string            `json:"scenario_id"`
	History    engine.RunHistory `json:"history"`
	Success    bool              `json:"success"`
	Goal       *engine.Goal      `json:"goal,omitempty"`
	Tick       uint64            `json:"tick"`
}

// ScenarioInfo provides information about a scenario file
type ScenarioInfo struct {
	Filename    string `json:"filename"`
	ScenarioID  string `json:"scenario_id"` // The identifier to use for session creation
	Title       string `json:"title"`
	Description string `json:"description"`
	Objects     int    `json:"objects"`
	HasGoal     bool   `json:"has_goal"`
}

// RunRecord is one finished run as kept by the run store
type RunRecord struct {
	ID         string            `json:"id"`
	SessionID  string            `json:"session_id"`
	RunID      uint64            `json:"run_id"`
	ScenarioID string            `json:"scenario_id"`
	Outcome    string            `json:"outcome"`
	Success    bool              `json:"success"`
	Ticks      uint64            `json:"ticks"`
	Error      string            `json:"error,omitempty"`
	History    engine.RunHistory `json:"history"`
	StartedAt  time.Time         `json:"started_at"`
	EndedAt    time.Time         `json:"ended_at"`
}
