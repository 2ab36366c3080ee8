package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wricardo/robot-sim/game/engine"
	"github.com/wricardo/robot-sim/game/executor"
	"github.com/wricardo/robot-sim/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger handed to every session's runner
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithTickInterval sets the real-time tick period of new sessions
func WithTickInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.tickInterval = d
	}
}

// WithManualClock creates sessions without a tick driver; callers step the
// runner themselves
func WithManualClock() Option {
	return func(m *Manager) {
		m.manualClock = true
	}
}

// Manager handles simulation session lifecycle
type Manager struct {
	sessions     map[string]*service.Session
	logger       zerolog.Logger
	tickInterval time.Duration
	manualClock  bool
	mu           sync.RWMutex
}

// NewManager creates a new session manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:     make(map[string]*service.Session),
		logger:       zerolog.Nop(),
		tickInterval: engine.TickInterval * time.Millisecond,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create creates a new session with the given ID and scenario and starts its tick driver
func (m *Manager) Create(id string, scenario *engine.Scenario) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = m.generateSessionID()
	} else if !validID.MatchString(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}

	// Check if session already exists (case-insensitive)
	if m.sessionExists(id) {
		return nil, ErrSessionAlreadyExists
	}

	sim, err := engine.NewSimulation(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to create simulation: %w", err)
	}
	runner, err := executor.NewRunner(sim,
		executor.WithLogger(m.logger.With().Str("session", id).Logger()),
		executor.WithTickInterval(m.tickInterval),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	session := &service.Session{
		ID:             id,
		Runner:         runner,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	if !m.manualClock {
		ctx, cancel := context.WithCancel(context.Background())
		go runner.Run(ctx)
		session.Cancel = cancel
	}

	m.sessions[strings.ToLower(id)] = session
	return session, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

// Delete stops a session and removes it
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	session, exists := m.sessions[key]
	if !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, key)
	shutdown(session)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}
	session.LastAccessedAt = time.Now()
	return nil
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, id)
			shutdown(session)
			removed++
		}
	}

	if removed > 0 {
		m.logger.Info().Int("removed", removed).Msg("expired sessions cleaned up")
	}
	return removed
}

// StartCleanup removes expired sessions every interval until ctx is done
func (m *Manager) StartCleanup(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CleanupExpiredSessions(maxAge)
			}
		}
	}()
}

// Close stops every session
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, session := range m.sessions {
		delete(m.sessions, id)
		shutdown(session)
	}
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// shutdown ends the session's program and stops its tick driver
func shutdown(session *service.Session) {
	session.Runner.StopProgram()
	if session.Cancel != nil {
		session.Cancel()
	}
}

// generateSessionID generates a random 4-character session ID not yet in use
func (m *Manager) generateSessionID() string {
	for {
		// Generate 2 random bytes (4 hex characters)
		bytes := make([]byte, 2)
		rand.Read(bytes)
		id := hex.EncodeToString(bytes)
		if !m.sessionExists(id) {
			return id
		}
	}
}

// sessionExists checks if a session exists (case-insensitive)
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[strings.ToLower(id)]
	return exists
}
