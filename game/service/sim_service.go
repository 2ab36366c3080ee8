package service

import (
	"context"
	"time"

	"github.com/wricardo/robot-sim/game/engine"
	"github.com/wricardo/robot-sim/game/executor"
	"github.com/wricardo/robot-sim/game/script"
)

// SimService defines all simulation operations exposed to transports
type SimService interface {
	// Session Management
	CreateSession(ctx context.Context, scenarioID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error
	SwitchScenario(ctx context.Context, sessionID, scenarioID string) (*SessionInfo, error)

	// Program Control
	RunScript(ctx context.Context, sessionID string, s *script.Script, reset bool) (*RunInfo, error)
	StopProgram(ctx context.Context, sessionID string) (*executor.RunStatus, error)
	Reset(ctx context.Context, sessionID string) (*engine.State, error)
	PlaceRobot(ctx context.Context, sessionID string, x, z float64) (*engine.State, error)

	// Simulation State
	GetSnapshot(ctx context.Context, sessionID string) (*engine.State, error)
	GetDrawings(ctx context.Context, sessionID string) (*DrawingsResponse, error)
	GetHistory(ctx context.Context, sessionID string) (*HistoryResponse, error)

	// Scenarios
	ListScenarios(ctx context.Context) ([]*ScenarioInfo, error)
	LoadScenario(ctx context.Context, scenarioID string) (*engine.Scenario, error)
	SaveScenario(ctx context.Context, scenarioID string, scenario *engine.Scenario) error

	// Run Records
	ListRuns(ctx context.Context, sessionID string, limit int) ([]*RunRecord, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, scenario *engine.Scenario) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ScenarioCatalog handles scenario loading
type ScenarioCatalog interface {
	LoadScenario(id string) (*engine.Scenario, error)
	ListScenarios() ([]*ScenarioInfo, error)
	GetDefault() *engine.Scenario
	SaveScenario(id string, scenario *engine.Scenario) error
}

// RunStore keeps an audit log of finished runs
type RunStore interface {
	Record(ctx context.Context, sessionID string, report executor.RunReport) error
	List(ctx context.Context, sessionID string, limit int) ([]*RunRecord, error)
}

// Observer receives simulation events for a session. Calls happen on the
// session's tick goroutine and must not block.
type Observer interface {
	SnapshotUpdated(sessionID string, state engine.State)
	GoalReached(sessionID string, state engine.State)
	RunEnded(sessionID string, report executor.RunReport)
}

// Session represents an active simulation session
type Session struct {
	ID             string
	Runner         *executor.Runner
	CreatedAt      time.Time
	LastAccessedAt time.Time

	// Cancel stops the session's tick driver; nil when ticks are driven manually
	Cancel func()
}
