package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/robot-sim/game/engine"
	"github.com/wricardo/robot-sim/game/executor"
	"github.com/wricardo/robot-sim/game/script"
	"github.com/wricardo/robot-sim/game/service"
)

const driveLimit = 2000

// MockSessionManager implements service.SessionManager with manually driven runners
type MockSessionManager struct {
	mu       sync.Mutex
	sessions map[string]*service.Session
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, scenario *engine.Scenario) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	sim, err := engine.NewSimulation(scenario)
	if err != nil {
		return nil, err
	}
	runner, err := executor.NewRunner(sim, executor.WithTickInterval(16*time.Millisecond))
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		Runner:         runner,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) List() []*service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[id]
	if !exists {
		return service.ErrSessionNotFound
	}
	session.Runner.StopProgram()
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return service.ErrSessionNotFound
}

// MockScenarioCatalog implements service.ScenarioCatalog for testing
type MockScenarioCatalog struct {
	scenarios map[string]*engine.Scenario
	saved     []string
}

func headingPtr(v float64) *float64 {
	return &v
}

func NewMockScenarioCatalog() *MockScenarioCatalog {
	flat := &engine.Scenario{
		ID:    "flat",
		Title: "Flat floor",
		Start: engine.StartPose{Rotation: headingPtr(0)},
		Goal:  &engine.Goal{MinDistanceCM: 5},
	}
	walled := &engine.Scenario{
		ID:    "walled",
		Title: "Wall ahead",
		Start: engine.StartPose{Rotation: headingPtr(0)},
		Objects: []engine.EnvironmentObject{
			{Type: engine.Wall, X: 0, Z: 4.5, Width: 2, Length: 1},
		},
	}
	return &MockScenarioCatalog{
		scenarios: map[string]*engine.Scenario{
			"flat":   flat,
			"walled": walled,
		},
	}
}

func (m *MockScenarioCatalog) LoadScenario(id string) (*engine.Scenario, error) {
	scenario, exists := m.scenarios[id]
	if !exists {
		return nil, service.ErrScenarioNotFound
	}
	return scenario, nil
}

func (m *MockScenarioCatalog) ListScenarios() ([]*service.ScenarioInfo, error) {
	result := make([]*service.ScenarioInfo, 0, len(m.scenarios))
	for id, scenario := range m.scenarios {
		result = append(result, &service.ScenarioInfo{
			Filename:   id + ".json",
			ScenarioID: scenario.ID,
			Title:      scenario.Title,
			Objects:    len(scenario.Objects),
			HasGoal:    scenario.Goal != nil,
		})
	}
	return result, nil
}

func (m *MockScenarioCatalog) GetDefault() *engine.Scenario {
	return m.scenarios["flat"]
}

func (m *MockScenarioCatalog) SaveScenario(id string, scenario *engine.Scenario) error {
	if err := engine.ValidateScenario(scenario); err != nil {
		return err
	}
	m.scenarios[id] = scenario
	m.saved = append(m.saved, id)
	return nil
}

// MockRunStore implements service.RunStore in memory
type MockRunStore struct {
	mu      sync.Mutex
	records []*service.RunRecord
}

func (m *MockRunStore) Record(ctx context.Context, sessionID string, report executor.RunReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, &service.RunRecord{
		ID:         fmt.Sprintf("run-%d", len(m.records)+1),
		SessionID:  sessionID,
		RunID:      uint64(report.RunID),
		ScenarioID: report.ScenarioID,
		Outcome:    string(report.Outcome),
		Success:    report.Success,
		Ticks:      report.Ticks,
		Error:      report.Err,
		History:    report.History,
		StartedAt:  report.StartedAt,
		EndedAt:    report.EndedAt,
	})
	return nil
}

func (m *MockRunStore) List(ctx context.Context, sessionID string, limit int) ([]*service.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*service.RunRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if sessionID != "" && m.records[i].SessionID != sessionID {
			continue
		}
		result = append(result, m.records[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// recordingObserver collects every event it receives
type recordingObserver struct {
	mu        sync.Mutex
	snapshots int
	goals     []string
	reports   []executor.RunReport
}

func (o *recordingObserver) SnapshotUpdated(sessionID string, state engine.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshots++
}

func (o *recordingObserver) GoalReached(sessionID string, state engine.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.goals = append(o.goals, sessionID)
}

func (o *recordingObserver) RunEnded(sessionID string, report executor.RunReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reports = append(o.reports, report)
}

type testEnv struct {
	svc       service.SimService
	sessions  *MockSessionManager
	scenarios *MockScenarioCatalog
	store     *MockRunStore
	observer  *recordingObserver
}

func newTestEnv() *testEnv {
	env := &testEnv{
		sessions:  NewMockSessionManager(),
		scenarios: NewMockScenarioCatalog(),
		store:     &MockRunStore{},
		observer:  &recordingObserver{},
	}
	env.svc = service.NewSimService(env.sessions, env.scenarios,
		service.WithRunStore(env.store),
		service.WithObserver(env.observer),
	)
	return env
}

// drive advances a session's clock until its program has finished
func (e *testEnv) drive(t *testing.T, sessionID string) {
	t.Helper()
	sess, err := e.sessions.Get(sessionID)
	if err != nil {
		t.Fatalf("session %s: %v", sessionID, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := sess.Runner.Drive(ctx, driveLimit); err != nil {
		t.Fatalf("Drive() error = %v", err)
	}
}

func value(v float64) *float64 {
	return &v
}

func moveScript(distance float64) *script.Script {
	return &script.Script{
		Name:  "forward",
		Steps: []script.Step{{Op: script.OpMove, Value: value(distance)}},
	}
}

func TestSimService_CreateSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	tests := []struct {
		name       string
		scenarioID string
		wantID     string
		wantErr    error
	}{
		{
			name:       "create with default scenario",
			scenarioID: "",
			wantID:     "flat",
		},
		{
			name:       "create with specific scenario",
			scenarioID: "walled",
			wantID:     "walled",
		},
		{
			name:       "create with unknown scenario",
			scenarioID: "nonexistent",
			wantErr:    service.ErrScenarioNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := env.svc.CreateSession(ctx, tt.scenarioID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CreateSession() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateSession() error = %v", err)
			}
			if info.ScenarioID != tt.wantID {
				t.Errorf("ScenarioID = %s, want %s", info.ScenarioID, tt.wantID)
			}
			if info.State == nil || info.Scenario == nil {
				t.Error("CreateSession() should include state and scenario")
			}
			if info.Run.Status != executor.StatusIdle {
				t.Errorf("new session status = %s, want idle", info.Run.Status)
			}
		})
	}

	t.Run("unknown scenario lists available ids", func(t *testing.T) {
		_, err := env.svc.CreateSession(ctx, "missing")
		if err == nil || !strings.Contains(err.Error(), "walled") {
			t.Errorf("expected available scenarios in error, got %v", err)
		}
	})
}

func TestSimService_SessionNotFound(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	if _, err := env.svc.GetSession(ctx, "nope"); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("GetSession() error = %v, want ErrSessionNotFound", err)
	}
	if _, err := env.svc.GetSnapshot(ctx, "nope"); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("GetSnapshot() error = %v, want ErrSessionNotFound", err)
	}
	if _, err := env.svc.RunScript(ctx, "nope", moveScript(10), false); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("RunScript() error = %v, want ErrSessionNotFound", err)
	}
	if err := env.svc.DeleteSession(ctx, "nope"); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("DeleteSession() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSimService_RunScript(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	info, err := env.svc.CreateSession(ctx, "flat")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	run, err := env.svc.RunScript(ctx, info.ID, moveScript(10), false)
	if err != nil {
		t.Fatalf("RunScript() error = %v", err)
	}
	if run.ScriptName != "forward" || run.Run.Status != executor.StatusRunning {
		t.Errorf("unexpected run info: %+v", run.Run)
	}

	t.Run("second start is rejected", func(t *testing.T) {
		_, err := env.svc.RunScript(ctx, info.ID, moveScript(10), false)
		if !errors.Is(err, executor.ErrAlreadyRunning) {
			t.Errorf("RunScript() error = %v, want ErrAlreadyRunning", err)
		}
	})

	env.drive(t, info.ID)

	state, err := env.svc.GetSnapshot(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if state.Tick == 0 {
		t.Error("expected the clock to have advanced")
	}

	status, err := env.svc.StopProgram(ctx, info.ID)
	if err != nil {
		t.Fatalf("StopProgram() error = %v", err)
	}
	if status.Active {
		t.Error("StopProgram() should stop the clock")
	}

	runs, err := env.svc.ListRuns(ctx, info.ID, 10)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("ListRuns() returned %d runs, want 1", len(runs))
	}
	if runs[0].Outcome != string(executor.StatusCompleted) || !runs[0].Success {
		t.Errorf("unexpected run record: %+v", runs[0])
	}

	env.observer.mu.Lock()
	defer env.observer.mu.Unlock()
	if env.observer.snapshots == 0 {
		t.Error("observer should receive tick snapshots")
	}
	if len(env.observer.goals) != 1 || env.observer.goals[0] != info.ID {
		t.Errorf("observer goal events = %v, want one for %s", env.observer.goals, info.ID)
	}
	if len(env.observer.reports) != 1 {
		t.Errorf("observer run reports = %d, want 1", len(env.observer.reports))
	}
}

func TestSimService_RunScriptInvalid(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	info, _ := env.svc.CreateSession(ctx, "flat")
	bad := &script.Script{Name: "bad", Steps: []script.Step{{Op: "fly"}}}

	if _, err := env.svc.RunScript(ctx, info.ID, bad, false); !errors.Is(err, script.ErrInvalidScript) {
		t.Errorf("RunScript() error = %v, want ErrInvalidScript", err)
	}
	state, _ := env.svc.GetSnapshot(ctx, info.ID)
	if state.Active {
		t.Error("an invalid script must not start the clock")
	}
}

func TestSimService_RunScriptWithReset(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	info, _ := env.svc.CreateSession(ctx, "flat")
	if _, err := env.svc.PlaceRobot(ctx, info.ID, 5, 5); err != nil {
		t.Fatalf("PlaceRobot() error = %v", err)
	}

	stop := &script.Script{Name: "noop", Steps: []script.Step{{Op: script.OpStop}}}
	run, err := env.svc.RunScript(ctx, info.ID, stop, true)
	if err != nil {
		t.Fatalf("RunScript() error = %v", err)
	}
	if run.State.Pose.X != 0 || run.State.Pose.Z != 0 {
		t.Errorf("reset should return the robot to the start, got (%v, %v)", run.State.Pose.X, run.State.Pose.Z)
	}
}

func TestSimService_PlaceRobot(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	info, _ := env.svc.CreateSession(ctx, "flat")

	tests := []struct {
		name    string
		x, z    float64
		wantErr bool
	}{
		{name: "inside the world", x: 3, z: -2},
		{name: "outside on x", x: engine.MaxWorldExtent + 1, z: 0, wantErr: true},
		{name: "outside on z", x: 0, z: -engine.MaxWorldExtent - 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := env.svc.PlaceRobot(ctx, info.ID, tt.x, tt.z)
			if tt.wantErr {
				if !errors.Is(err, engine.ErrInvalidScenario) {
					t.Errorf("PlaceRobot() error = %v, want ErrInvalidScenario", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PlaceRobot() error = %v", err)
			}
			if state.Pose.X != tt.x || state.Pose.Z != tt.z {
				t.Errorf("pose = (%v, %v), want (%v, %v)", state.Pose.X, state.Pose.Z, tt.x, tt.z)
			}
		})
	}

	env.observer.mu.Lock()
	defer env.observer.mu.Unlock()
	if env.observer.snapshots != 1 {
		t.Errorf("placement should push one snapshot, got %d", env.observer.snapshots)
	}
}

func TestSimService_Reset(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	info, _ := env.svc.CreateSession(ctx, "walled")

	long := &script.Script{Name: "long", Steps: []script.Step{{Op: script.OpWait, Value: value(60000)}}}
	if _, err := env.svc.RunScript(ctx, info.ID, long, false); err != nil {
		t.Fatalf("RunScript() error = %v", err)
	}

	state, err := env.svc.Reset(ctx, info.ID)
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if state.Active || state.Tick != 0 {
		t.Errorf("Reset() should stop and rewind the clock, got active=%v tick=%d", state.Active, state.Tick)
	}

	runs, _ := env.svc.ListRuns(ctx, info.ID, 0)
	if len(runs) != 1 || runs[0].Outcome != string(executor.StatusAborted) {
		t.Errorf("reset mid-run should record an aborted run, got %+v", runs)
	}
}

func TestSimService_DrawingsAndHistory(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	info, _ := env.svc.CreateSession(ctx, "flat")

	drawing := &script.Script{
		Name: "draw",
		Steps: []script.Step{
			{Op: script.OpSetPenColor, Color: "#22C55E"},
			{Op: script.OpSetPen, Down: boolPtr(true)},
			{Op: script.OpMove, Value: value(10)},
			{Op: script.OpSetPen, Down: boolPtr(false)},
		},
	}
	if _, err := env.svc.RunScript(ctx, info.ID, drawing, false); err != nil {
		t.Fatalf("RunScript() error = %v", err)
	}
	env.drive(t, info.ID)

	drawings, err := env.svc.GetDrawings(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetDrawings() error = %v", err)
	}
	if drawings.Count != 1 || len(drawings.Completed) != 1 {
		t.Fatalf("expected one completed trail, got %+v", drawings)
	}
	if drawings.Completed[0].Color != "#22C55E" || len(drawings.Completed[0].Points) < 2 {
		t.Errorf("unexpected trail: %+v", drawings.Completed[0])
	}

	history, err := env.svc.GetHistory(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if history.History.MaxDistanceMoved < 5 || !history.Success {
		t.Errorf("unexpected history: %+v", history)
	}
	if history.Goal == nil || history.Goal.MinDistanceCM != 5 {
		t.Errorf("history should carry the scenario goal, got %+v", history.Goal)
	}
}

func boolPtr(v bool) *bool {
	return &v
}

func TestSimService_SwitchScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	info, _ := env.svc.CreateSession(ctx, "flat")

	switched, err := env.svc.SwitchScenario(ctx, info.ID, "walled")
	if err != nil {
		t.Fatalf("SwitchScenario() error = %v", err)
	}
	if switched.ScenarioID != "walled" || len(switched.Scenario.Objects) != 1 {
		t.Errorf("unexpected scenario after switch: %+v", switched.Scenario)
	}

	if _, err := env.svc.SwitchScenario(ctx, info.ID, "missing"); !errors.Is(err, service.ErrScenarioNotFound) {
		t.Errorf("SwitchScenario() error = %v, want ErrScenarioNotFound", err)
	}
}

func TestSimService_ListAndDeleteSessions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	for i := 0; i < 3; i++ {
		if _, err := env.svc.CreateSession(ctx, "flat"); err != nil {
			t.Fatalf("Failed to create session %d: %v", i, err)
		}
	}

	sessionList, err := env.svc.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessionList) != 3 {
		t.Errorf("ListSessions() returned %d sessions, want 3", len(sessionList))
	}

	if err := env.svc.DeleteSession(ctx, sessionList[0].ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	sessionList, _ = env.svc.ListSessions(ctx)
	if len(sessionList) != 2 {
		t.Errorf("ListSessions() returned %d sessions after delete, want 2", len(sessionList))
	}
}

func TestSimService_Scenarios(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	list, err := env.svc.ListScenarios(ctx)
	if err != nil {
		t.Fatalf("ListScenarios() error = %v", err)
	}
	if len(list) != 2 {
		t.Errorf("ListScenarios() returned %d, want 2", len(list))
	}

	custom := &engine.Scenario{ID: "custom", Title: "Custom"}
	if err := env.svc.SaveScenario(ctx, "custom", custom); err != nil {
		t.Fatalf("SaveScenario() error = %v", err)
	}
	loaded, err := env.svc.LoadScenario(ctx, "custom")
	if err != nil || loaded.Title != "Custom" {
		t.Errorf("LoadScenario() = %+v, %v", loaded, err)
	}

	if err := env.svc.SaveScenario(ctx, "broken", &engine.Scenario{ID: "broken"}); !errors.Is(err, engine.ErrInvalidScenario) {
		t.Errorf("SaveScenario() error = %v, want ErrInvalidScenario", err)
	}
}

func TestSimService_ListRunsWithoutStore(t *testing.T) {
	svc := service.NewSimService(NewMockSessionManager(), NewMockScenarioCatalog())
	if _, err := svc.ListRuns(context.Background(), "", 10); !errors.Is(err, service.ErrNoRunStore) {
		t.Errorf("ListRuns() error = %v, want ErrNoRunStore", err)
	}
}
