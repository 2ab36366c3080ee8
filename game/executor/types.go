package executor

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/robot-sim/game/engine"
)

var (
	// ErrAborted signals that a run was cancelled or superseded. It is never surfaced to users.
	ErrAborted = errors.New("simulation aborted")
	// ErrAlreadyRunning is returned when a run is started while the simulation is active
	ErrAlreadyRunning = errors.New("simulation is already running")
	// ErrStalled is returned by blocking commands that can never finish at zero speed
	ErrStalled = errors.New("robot cannot move at zero speed")
)

// RunID identifies one execution of a program
type RunID uint64

// Status is the lifecycle state of the current run
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
	StatusFaulted   Status = "faulted"
)

// GyroMode selects what the gyro sensor reports
type GyroMode string

const (
	GyroAngle GyroMode = "ANGLE"
	GyroTilt  GyroMode = "TILT"
)

// Program is a sequential robot program
type Program func(ctx context.Context, robot Robot) error

// Handler is program code attached to an event or message topic
type Handler func(ctx context.Context, robot Robot) error

// RunReport summarizes a finished run
type RunReport struct {
	RunID      RunID             `json:"run_id"`
	ScenarioID string            `json:"scenario_id"`
	Outcome    Status            `json:"outcome"`
	Success    bool              `json:"success"`
	History    engine.RunHistory `json:"history"`
	Ticks      uint64            `json:"ticks"`
	Err        string            `json:"error,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	EndedAt    time.Time         `json:"ended_at"`
}

// RunStatus is a point-in-time view of the runner
type RunStatus struct {
	RunID   RunID  `json:"run_id"`
	Status  Status `json:"status"`
	Active  bool   `json:"active"`
	Workers int    `json:"workers"`
	Err     string `json:"error,omitempty"`
}

// UIHooks are opaque callbacks a front end may register. The runner stores
// them and hands them back; it never calls them itself.
type UIHooks struct {
	ShowNumpad      func(value float64, confirm func(float64))
	ShowColorPicker func(confirm func(string))
}
