// Package script loads robot programs written as JSON or YAML command lists
// and compiles them into executor programs.
package script

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidScript is returned for scripts that fail validation
var ErrInvalidScript = errors.New("invalid script")

// Op names a script command
type Op string

const (
	OpMove          Op = "move"
	OpTurn          Op = "turn"
	OpSetHeading    Op = "set_heading"
	OpWait          Op = "wait"
	OpSetMotorPower Op = "set_motor_power"
	OpSetSpeed      Op = "set_speed"
	OpStop          Op = "stop"
	OpSetPen        Op = "set_pen"
	OpSetPenColor   Op = "set_pen_color"
	OpClearPen      Op = "clear_pen"
	OpSetLed        Op = "set_led"
	OpSendMessage   Op = "send_message"
	OpOnMessage     Op = "on_message"
	OpOnColor       Op = "on_color"
	OpOnObstacle    Op = "on_obstacle"
	OpOnDistance    Op = "on_distance"
	OpStopProgram   Op = "stop_program"
	OpSetVariable   Op = "set_variable"
	OpRepeat        Op = "repeat"
	OpForever       Op = "forever"
	OpRepeatUntil   Op = "repeat_until"
	OpIf            Op = "if"
)

// ConditionType names a sensor test
type ConditionType string

const (
	CondTouch         ConditionType = "touch"
	CondColor         ConditionType = "color"
	CondDistanceBelow ConditionType = "distance_below"
	CondDistanceAbove ConditionType = "distance_above"
	CondGyroBetween   ConditionType = "gyro_between"
)

// Script is a named program
type Script struct {
	Name  string `json:"name" yaml:"name"`
	Steps []Step `json:"steps" yaml:"steps"`
}

// Step is one command. Which fields apply depends on Op.
type Step struct {
	Op        Op         `json:"op" yaml:"op"`
	Value     *float64   `json:"value,omitempty" yaml:"value,omitempty"`
	Left      *float64   `json:"left,omitempty" yaml:"left,omitempty"`
	Right     *float64   `json:"right,omitempty" yaml:"right,omitempty"`
	Down      *bool      `json:"down,omitempty" yaml:"down,omitempty"`
	Color     string     `json:"color,omitempty" yaml:"color,omitempty"`
	Side      string     `json:"side,omitempty" yaml:"side,omitempty"`
	Name      string     `json:"name,omitempty" yaml:"name,omitempty"`
	Set       any        `json:"set,omitempty" yaml:"set,omitempty"`
	Count     int        `json:"count,omitempty" yaml:"count,omitempty"`
	Condition *Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
	Steps     []Step     `json:"steps,omitempty" yaml:"steps,omitempty"`
	Else      []Step     `json:"else,omitempty" yaml:"else,omitempty"`
}

// Condition is a boolean sensor test used by if and repeat_until
type Condition struct {
	Type  ConditionType `json:"type" yaml:"type"`
	Color string        `json:"color,omitempty" yaml:"color,omitempty"`
	Value float64       `json:"value,omitempty" yaml:"value,omitempty"`
	Min   float64       `json:"min,omitempty" yaml:"min,omitempty"`
	Max   float64       `json:"max,omitempty" yaml:"max,omitempty"`
	Mode  string        `json:"mode,omitempty" yaml:"mode,omitempty"`
	Not   bool          `json:"not,omitempty" yaml:"not,omitempty"`
}

// Parse decodes a script from JSON or YAML, chosen by file extension, and validates it
func Parse(data []byte, ext string) (*Script, error) {
	var s Script
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
		}
	default:
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
		}
	}
	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and validates a script file
func LoadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Validate checks every step before anything runs
func Validate(s *Script) error {
	if s == nil {
		return fmt.Errorf("%w: script is nil", ErrInvalidScript)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: script has no steps", ErrInvalidScript)
	}
	return validateSteps(s.Steps, "steps")
}

func validateSteps(steps []Step, path string) error {
	for i, step := range steps {
		if err := validateStep(step, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step Step, path string) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s (%s): %s", ErrInvalidScript, path, step.Op, fmt.Sprintf(format, args...))
	}

	switch step.Op {
	case OpMove, OpTurn, OpSetHeading, OpWait, OpSetSpeed:
		if step.Value == nil {
			return invalid("value is required")
		}
		if step.Op == OpWait && *step.Value < 0 {
			return invalid("wait cannot be negative")
		}
	case OpSetMotorPower:
		if step.Left == nil || step.Right == nil {
			return invalid("left and right are required")
		}
	case OpSetPen:
		if step.Down == nil {
			return invalid("down is required")
		}
	case OpSetPenColor, OpOnColor:
		if step.Color == "" {
			return invalid("color is required")
		}
	case OpSetLed:
		if step.Color == "" {
			return invalid("color is required")
		}
		switch step.Side {
		case "", "left", "right", "both":
		default:
			return invalid("unknown side %q", step.Side)
		}
	case OpSendMessage, OpSetVariable:
		if step.Name == "" {
			return invalid("name is required")
		}
	case OpOnDistance:
		if step.Value == nil {
			return invalid("value is required")
		}
	case OpStop, OpClearPen, OpStopProgram, OpOnObstacle:
	case OpOnMessage:
		if step.Name == "" {
			return invalid("name is required")
		}
	case OpRepeat:
		if step.Count < 0 {
			return invalid("count cannot be negative")
		}
	case OpForever:
	case OpRepeatUntil, OpIf:
		if err := validateCondition(step.Condition); err != nil {
			return invalid("%v", err)
		}
	case "":
		return invalid("op is required")
	default:
		return invalid("unknown op")
	}

	switch step.Op {
	case OpOnMessage, OpOnColor, OpOnObstacle, OpOnDistance, OpRepeat, OpForever, OpRepeatUntil:
		if len(step.Steps) == 0 {
			return invalid("steps are required")
		}
	case OpIf:
	default:
		if len(step.Steps) > 0 || len(step.Else) > 0 {
			return invalid("op does not take nested steps")
		}
	}
	if step.Op != OpIf && len(step.Else) > 0 {
		return invalid("else is only allowed on if")
	}

	if err := validateSteps(step.Steps, path+".steps"); err != nil {
		return err
	}
	return validateSteps(step.Else, path+".else")
}

func validateCondition(c *Condition) error {
	if c == nil {
		return errors.New("condition is required")
	}
	switch c.Type {
	case CondTouch, CondDistanceBelow, CondDistanceAbove:
	case CondColor:
		if c.Color == "" {
			return errors.New("color condition needs a color")
		}
	case CondGyroBetween:
		if c.Min > c.Max {
			return fmt.Errorf("gyro range min %v exceeds max %v", c.Min, c.Max)
		}
		switch strings.ToUpper(c.Mode) {
		case "", "ANGLE", "TILT":
		default:
			return fmt.Errorf("unknown gyro mode %q", c.Mode)
		}
	default:
		return fmt.Errorf("unknown condition %q", c.Type)
	}
	return nil
}
