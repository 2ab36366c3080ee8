package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario is returned when a scenario fails validation
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario limits
const (
	MaxObjects     = 500
	MaxWorldExtent = 1000.0
)

// ValidateScenario checks a scenario for structural correctness
func ValidateScenario(scenario *Scenario) error {
	if scenario == nil {
		return fmt.Errorf("%w: scenario is nil", ErrInvalidScenario)
	}
	if strings.TrimSpace(scenario.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidScenario)
	}
	if strings.TrimSpace(scenario.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidScenario)
	}
	if !finite(scenario.Start.X) || !finite(scenario.Start.Z) ||
		math.Abs(scenario.Start.X) > MaxWorldExtent || math.Abs(scenario.Start.Z) > MaxWorldExtent {
		return fmt.Errorf("%w: start position (%g, %g) is out of bounds", ErrInvalidScenario, scenario.Start.X, scenario.Start.Z)
	}
	if scenario.Start.Rotation != nil && !finite(*scenario.Start.Rotation) {
		return fmt.Errorf("%w: start rotation is not a number", ErrInvalidScenario)
	}
	if len(scenario.Objects) > MaxObjects {
		return fmt.Errorf("%w: at most %d objects allowed, got %d", ErrInvalidScenario, MaxObjects, len(scenario.Objects))
	}

	for i, obj := range scenario.Objects {
		switch obj.Type {
		case Wall, Ramp, Path, ColorLine:
		default:
			return fmt.Errorf("%w: object %d has unknown type %q", ErrInvalidScenario, i+1, obj.Type)
		}
		switch obj.Shape {
		case "", Straight, Corner, Curved:
		default:
			return fmt.Errorf("%w: object %d has unknown shape %q", ErrInvalidScenario, i+1, obj.Shape)
		}
		if obj.Shape != "" && obj.Type != Path {
			return fmt.Errorf("%w: object %d: shape is only valid on PATH objects", ErrInvalidScenario, i+1)
		}
		for _, v := range []float64{obj.X, obj.Z, obj.Width, obj.Length, obj.Height, obj.Rotation} {
			if !finite(v) {
				return fmt.Errorf("%w: object %d has a non-finite dimension", ErrInvalidScenario, i+1)
			}
		}
		if obj.Width < 0 || obj.Length < 0 || obj.Height < 0 {
			return fmt.Errorf("%w: object %d has a negative dimension", ErrInvalidScenario, i+1)
		}
		if obj.Color != "" {
			if _, err := ParseHexColor(obj.Color); err != nil {
				return fmt.Errorf("%w: object %d: %v", ErrInvalidScenario, i+1, err)
			}
		}
	}

	if scenario.Goal != nil {
		if scenario.Goal.TouchWall && scenario.Goal.AvoidWall {
			return fmt.Errorf("%w: goal cannot both require and forbid touching a wall", ErrInvalidScenario)
		}
		if r := scenario.Goal.Region; r != nil && (r.MinX > r.MaxX || r.MinZ > r.MaxZ) {
			return fmt.Errorf("%w: goal region is inverted", ErrInvalidScenario)
		}
	}

	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ParseScenario decodes a scenario from JSON or YAML, chosen by file extension
func ParseScenario(data []byte, ext string) (*Scenario, error) {
	var scenario Scenario
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &scenario); err != nil {
			return nil, fmt.Errorf("failed to parse scenario yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &scenario); err != nil {
			return nil, fmt.Errorf("failed to parse scenario json: %w", err)
		}
	}
	if err := ValidateScenario(&scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// LoadScenarioFile loads and validates a scenario file
func LoadScenarioFile(filename string) (*Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	scenario, err := ParseScenario(data, filepath.Ext(filename))
	if err != nil {
		return nil, fmt.Errorf("scenario '%s': %w", filepath.Base(filename), err)
	}
	return scenario, nil
}

// DefaultScenario is an open floor with a wall ahead, a ramp and a few color strips
func DefaultScenario() *Scenario {
	return &Scenario{
		ID:          "sandbox",
		Title:       "Sandbox",
		Description: "Open floor with a wall, a ramp and color strips to explore the sensors.",
		Start:       StartPose{X: 0, Z: 0},
		Objects: []EnvironmentObject{
			{ID: "north-wall", Type: Wall, X: 0, Z: -14, Width: 12, Length: 1},
			{ID: "ramp", Type: Ramp, X: 8, Z: -6, Width: 3, Length: 6, Height: 1},
			{ID: "red-strip", Type: ColorLine, X: 0, Z: -4, Width: 4, Length: 0.5, Color: "#EF4444"},
			{ID: "blue-strip", Type: ColorLine, X: 0, Z: -8, Width: 4, Length: 0.5, Color: "#3B82F6"},
			{ID: "track", Type: Path, X: -8, Z: -6, Width: 1, Length: 8},
		},
		Goal: &Goal{MinDistanceCM: 50, Colors: []string{"red", "blue"}},
	}
}
