package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/robot-sim/game/engine"
	"github.com/wricardo/robot-sim/game/service"
)

var (
	ErrScenarioNotFound = service.ErrScenarioNotFound
	ErrInvalidScenario  = engine.ErrInvalidScenario
)

// DefaultScenarioID is the file stem preferred as the default scenario
const DefaultScenarioID = "sandbox"

// scenarioExts are the file extensions the catalog reads, in lookup order
var scenarioExts = []string{".json", ".yaml", ".yml"}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the catalog logger
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// Manager is a directory-backed scenario catalog with an in-memory cache
type Manager struct {
	scenarioDir     string
	defaultScenario *engine.Scenario
	scenarios       map[string]*engine.Scenario
	logger          zerolog.Logger
	mu              sync.RWMutex
}

// NewManager creates a scenario catalog for a directory
func NewManager(scenarioDir string, opts ...Option) (*Manager, error) {
	// Ensure scenario directory exists
	if _, err := os.Stat(scenarioDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("scenario directory does not exist: %s", scenarioDir)
	}

	m := &Manager{
		scenarioDir: scenarioDir,
		scenarios:   make(map[string]*engine.Scenario),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.loadDefaultScenario()
	return m, nil
}

// LoadScenario loads a scenario by file stem. A file name with a supported
// extension is accepted too.
func (m *Manager) LoadScenario(id string) (*engine.Scenario, error) {
	id = scenarioKey(id)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, fmt.Errorf("%w: '%s'", ErrScenarioNotFound, id)
	}

	m.mu.RLock()
	// Check cache first
	if scenario, exists := m.scenarios[id]; exists {
		m.mu.RUnlock()
		return scenario, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if scenario, exists := m.scenarios[id]; exists {
		return scenario, nil
	}

	path, err := m.findFile(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := engine.ParseScenario(data, filepath.Ext(path))
	if err != nil {
		if errors.Is(err, ErrInvalidScenario) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	m.scenarios[id] = scenario
	return scenario, nil
}

// findFile returns the first existing file for a scenario id
func (m *Manager) findFile(id string) (string, error) {
	for _, ext := range scenarioExts {
		path := filepath.Join(m.scenarioDir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to stat scenario file: %w", err)
		}
	}
	return "", fmt.Errorf("%w: '%s'", ErrScenarioNotFound, id)
}

// ListScenarios returns information about every loadable scenario file.
// Invalid files are skipped.
func (m *Manager) ListScenarios() ([]*service.ScenarioInfo, error) {
	entries, err := os.ReadDir(m.scenarioDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	seen := make(map[string]bool)
	var scenarios []*service.ScenarioInfo

	for _, entry := range entries {
		if entry.IsDir() || !supportedExt(entry.Name()) {
			continue
		}

		id := scenarioKey(entry.Name())
		if seen[id] {
			continue
		}
		seen[id] = true

		scenario, err := m.LoadScenario(id)
		if err != nil {
			m.logger.Warn().Err(err).Str("file", entry.Name()).Msg("skipping scenario")
			continue
		}

		scenarios = append(scenarios, &service.ScenarioInfo{
			Filename:    entry.Name(),
			ScenarioID:  id, // identifier to use for session creation
			Title:       scenario.Title,
			Description: scenario.Description,
			Objects:     len(scenario.Objects),
			HasGoal:     scenario.Predicate() != nil,
		})
	}

	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].ScenarioID < scenarios[j].ScenarioID
	})
	return scenarios, nil
}

// GetDefault returns the default scenario
func (m *Manager) GetDefault() *engine.Scenario {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultScenario
}

// SetDefault sets the default scenario by id
func (m *Manager) SetDefault(id string) error {
	scenario, err := m.LoadScenario(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultScenario = scenario
	return nil
}

// RefreshCache drops every cached scenario and reloads the default from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.scenarios = make(map[string]*engine.Scenario)
	m.mu.Unlock()

	m.loadDefaultScenario()
}

// loadDefaultScenario prefers sandbox, then the first valid file, then the
// built-in sandbox
func (m *Manager) loadDefaultScenario() {
	scenario, err := m.LoadScenario(DefaultScenarioID)
	if err != nil {
		scenarios, listErr := m.ListScenarios()
		if listErr == nil && len(scenarios) > 0 {
			scenario, err = m.LoadScenario(scenarios[0].ScenarioID)
		}
	}
	if err != nil || scenario == nil {
		m.logger.Debug().Str("dir", m.scenarioDir).Msg("no scenario files, using built-in sandbox")
		scenario = engine.DefaultScenario()
	}

	m.mu.Lock()
	m.defaultScenario = scenario
	m.mu.Unlock()
}

// SaveScenario writes a scenario to disk. YAML is used when the id carries a
// .yaml or .yml extension, JSON otherwise.
func (m *Manager) SaveScenario(id string, scenario *engine.Scenario) error {
	if err := engine.ValidateScenario(scenario); err != nil {
		return err
	}

	key := scenarioKey(id)
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("%w: invalid scenario id '%s'", ErrInvalidScenario, id)
	}

	ext := strings.ToLower(filepath.Ext(id))
	var (
		data []byte
		err  error
	)
	switch ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(scenario)
	default:
		ext = ".json"
		data, err = json.MarshalIndent(scenario, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}

	path := filepath.Join(m.scenarioDir, key+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write scenario file: %w", err)
	}

	m.mu.Lock()
	m.scenarios[key] = scenario
	m.mu.Unlock()

	m.logger.Info().Str("scenario", key).Str("file", path).Msg("scenario saved")
	return nil
}

// scenarioKey strips a supported extension from a file name or id
func scenarioKey(name string) string {
	if supportedExt(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

func supportedExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range scenarioExts {
		if ext == e {
			return true
		}
	}
	return false
}
