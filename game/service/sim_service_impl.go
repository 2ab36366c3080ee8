package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wricardo/robot-sim/game/engine"
	"github.com/wricardo/robot-sim/game/executor"
	"github.com/wricardo/robot-sim/game/script"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrNoRunStore       = errors.New("run records are not enabled")
)

// simServiceImpl implements the SimService interface
type simServiceImpl struct {
	sessions  SessionManager
	scenarios ScenarioCatalog
	runs      RunStore
	observers []Observer
	logger    zerolog.Logger
	mu        sync.RWMutex
}

// Option configures the service
type Option func(*simServiceImpl)

// WithRunStore records every finished run
func WithRunStore(store RunStore) Option {
	return func(s *simServiceImpl) {
		s.runs = store
	}
}

// WithObserver subscribes an observer to every session the service creates
func WithObserver(o Observer) Option {
	return func(s *simServiceImpl) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithLogger sets the service logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *simServiceImpl) {
		s.logger = logger
	}
}

// NewSimService creates a new simulation service instance
func NewSimService(sessions SessionManager, scenarios ScenarioCatalog, opts ...Option) SimService {
	s := &simServiceImpl{
		sessions:  sessions,
		scenarios: scenarios,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new simulation session
func (s *simServiceImpl) CreateSession(ctx context.Context, scenarioID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scenario, err := s.resolveScenario(scenarioID)
	if err != nil {
		return nil, err
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.attach(sess)

	s.logger.Info().Str("session", sess.ID).Str("scenario", scenario.ID).Msg("session created")
	return s.sessionInfo(sess), nil
}

// resolveScenario loads a scenario by id, or the default when id is empty
func (s *simServiceImpl) resolveScenario(scenarioID string) (*engine.Scenario, error) {
	if scenarioID == "" {
		return s.scenarios.GetDefault(), nil
	}

	scenario, err := s.scenarios.LoadScenario(scenarioID)
	if err == nil {
		return scenario, nil
	}
	if !errors.Is(err, ErrScenarioNotFound) {
		return nil, fmt.Errorf("failed to load scenario %s: %w", scenarioID, err)
	}

	// Provide helpful error message with available options
	available, listErr := s.scenarios.ListScenarios()
	if listErr == nil && len(available) > 0 {
		ids := make([]string, 0, len(available))
		for _, info := range available {
			ids = append(ids, info.ScenarioID)
		}
		return nil, fmt.Errorf("%w: '%s'. Available scenarios: %v", ErrScenarioNotFound, scenarioID, ids)
	}
	return nil, fmt.Errorf("%w: '%s'. Use /api/scenarios to list available scenarios", ErrScenarioNotFound, scenarioID)
}

// attach forwards runner events to the run store and observers
func (s *simServiceImpl) attach(sess *Session) {
	id := sess.ID
	observers := s.observers
	runs := s.runs
	logger := s.logger

	if len(observers) > 0 {
		sess.Runner.OnTick(func(state engine.State) {
			for _, o := range observers {
				o.SnapshotUpdated(id, state)
			}
		})
		sess.Runner.OnSuccess(func(state engine.State) {
			for _, o := range observers {
				o.GoalReached(id, state)
			}
		})
	}

	sess.Runner.OnRunEnd(func(report executor.RunReport) {
		if runs != nil {
			if err := runs.Record(context.Background(), id, report); err != nil {
				logger.Error().Err(err).Str("session", id).Uint64("run_id", uint64(report.RunID)).Msg("failed to record run")
			}
		}
		for _, o := range observers {
			o.RunEnded(id, report)
		}
	})
}

// notify pushes an out-of-band snapshot, used when state changes without a tick
func (s *simServiceImpl) notify(sessionID string, state engine.State) {
	for _, o := range s.observers {
		o.SnapshotUpdated(sessionID, state)
	}
}

func (s *simServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	state := sess.Runner.Snapshot()
	return &SessionInfo{
		ID:             sess.ID,
		ScenarioID:     state.ScenarioID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Run:            sess.Runner.Status(),
		State:          &state,
		Scenario:       sess.Runner.Scenario(),
	}
}

// getSession looks a session up and marks it accessed
func (s *simServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// GetSession retrieves session information
func (s *simServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *simServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession stops a session's program and tick driver and removes it
func (s *simServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.logger.Info().Str("session", sessionID).Msg("session deleted")
	return nil
}

// SwitchScenario loads another scenario into a session, resetting it
func (s *simServiceImpl) SwitchScenario(ctx context.Context, sessionID, scenarioID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	scenario, err := s.resolveScenario(scenarioID)
	if err != nil {
		return nil, err
	}
	if err := sess.Runner.SetScenario(scenario); err != nil {
		return nil, fmt.Errorf("failed to switch scenario: %w", err)
	}

	info := s.sessionInfo(sess)
	s.notify(sess.ID, *info.State)
	return info, nil
}

// RunScript compiles a script and starts it as the session's program
func (s *simServiceImpl) RunScript(ctx context.Context, sessionID string, sc *script.Script, reset bool) (*RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	program, err := script.Compile(sc)
	if err != nil {
		return nil, err
	}

	if reset {
		sess.Runner.Reset()
	}
	if _, err := sess.Runner.Start(ctx, program); err != nil {
		return nil, err
	}

	state := sess.Runner.Snapshot()
	return &RunInfo{
		SessionID:  sess.ID,
		ScriptName: sc.Name,
		Run:        sess.Runner.Status(),
		State:      &state,
	}, nil
}

// StopProgram cancels the session's program and stops the clock
func (s *simServiceImpl) StopProgram(ctx context.Context, sessionID string) (*executor.RunStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Runner.StopProgram()
	status := sess.Runner.Status()
	return &status, nil
}

// Reset returns the session's robot to the scenario start
func (s *simServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Runner.Reset()

	state := sess.Runner.Snapshot()
	s.notify(sess.ID, state)
	return &state, nil
}

// PlaceRobot moves the robot by hand
func (s *simServiceImpl) PlaceRobot(ctx context.Context, sessionID string, x, z float64) (*engine.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if x < -engine.MaxWorldExtent || x > engine.MaxWorldExtent || z < -engine.MaxWorldExtent || z > engine.MaxWorldExtent {
		return nil, fmt.Errorf("%w: position (%v, %v) is outside the world", engine.ErrInvalidScenario, x, z)
	}
	sess.Runner.Place(x, z)

	state := sess.Runner.Snapshot()
	s.notify(sess.ID, state)
	return &state, nil
}

// GetSnapshot returns the current simulation readout
func (s *simServiceImpl) GetSnapshot(ctx context.Context, sessionID string) (*engine.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	state := sess.Runner.Snapshot()
	return &state, nil
}

// GetDrawings returns every pen trail of a session
func (s *simServiceImpl) GetDrawings(ctx context.Context, sessionID string) (*DrawingsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	state := sess.Runner.Snapshot()

	completed := state.Drawings
	if completed == nil {
		completed = []engine.DrawingPath{}
	}
	count := len(completed)
	if state.Current != nil {
		count++
	}
	return &DrawingsResponse{
		SessionID: sess.ID,
		Completed: completed,
		Current:   state.Current,
		Count:     count,
	}, nil
}

// GetHistory returns the run history and whether the goal was reached
func (s *simServiceImpl) GetHistory(ctx context.Context, sessionID string) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	state := sess.Runner.Snapshot()
	return &HistoryResponse{
		SessionID:  sess.ID,
		ScenarioID: state.ScenarioID,
		History:    state.History,
		Success:    state.Success,
		Goal:       sess.Runner.Scenario().Goal,
		Tick:       state.Tick,
	}, nil
}

// Scenario operations

func (s *simServiceImpl) ListScenarios(ctx context.Context) ([]*ScenarioInfo, error) {
	return s.scenarios.ListScenarios()
}

func (s *simServiceImpl) LoadScenario(ctx context.Context, scenarioID string) (*engine.Scenario, error) {
	return s.scenarios.LoadScenario(scenarioID)
}

func (s *simServiceImpl) SaveScenario(ctx context.Context, scenarioID string, scenario *engine.Scenario) error {
	return s.scenarios.SaveScenario(scenarioID, scenario)
}

// ListRuns returns recorded runs, newest first. An empty session id lists every session.
func (s *simServiceImpl) ListRuns(ctx context.Context, sessionID string, limit int) ([]*RunRecord, error) {
	if s.runs == nil {
		return nil, ErrNoRunStore
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.runs.List(ctx, sessionID, limit)
}
