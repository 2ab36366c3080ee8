package engine

import "math"

// Observe folds one tick into the history. Fields only ever grow, except
// TotalRotation which tracks the signed, unwrapped heading change.
func (h *RunHistory) Observe(pose Pose, s SensorSnapshot, start StartPose) {
	if s.Touching {
		h.TouchedWall = true
	}
	moved := EuclideanDistance(start.X, start.Z, pose.X, pose.Z) * HistoryUnitScale
	h.MaxDistanceMoved = math.Max(h.MaxDistanceMoved, moved)
	if !h.HasColor(s.Color) {
		h.DetectedColors = append(h.DetectedColors, s.Color)
	}
	h.TotalRotation = pose.Rotation - start.Heading()
}

// HasColor reports whether exactly this color string has been sensed
func (h *RunHistory) HasColor(color string) bool {
	for _, c := range h.DetectedColors {
		if c == color {
			return true
		}
	}
	return false
}

// Clone returns a deep copy
func (h RunHistory) Clone() RunHistory {
	colors := make([]string, len(h.DetectedColors))
	copy(colors, h.DetectedColors)
	h.DetectedColors = colors
	return h
}

// Region is an axis aligned target area on the floor
type Region struct {
	MinX float64 `json:"min_x" yaml:"min_x"`
	MaxX float64 `json:"max_x" yaml:"max_x"`
	MinZ float64 `json:"min_z" yaml:"min_z"`
	MaxZ float64 `json:"max_z" yaml:"max_z"`
}

// Contains reports whether (x, z) lies inside the region, edges included
func (r Region) Contains(x, z float64) bool {
	return x >= r.MinX && x <= r.MaxX && z >= r.MinZ && z <= r.MaxZ
}

// Goal is a declarative success condition. Every field that is set must hold.
type Goal struct {
	MinDistanceCM  float64  `json:"min_distance_cm,omitempty" yaml:"min_distance_cm,omitempty"`
	TouchWall      bool     `json:"touch_wall,omitempty" yaml:"touch_wall,omitempty"`
	AvoidWall      bool     `json:"avoid_wall,omitempty" yaml:"avoid_wall,omitempty"`
	Colors         []string `json:"colors,omitempty" yaml:"colors,omitempty"`
	MinAbsRotation float64  `json:"min_abs_rotation,omitempty" yaml:"min_abs_rotation,omitempty"`
	MinHeight      float64  `json:"min_height,omitempty" yaml:"min_height,omitempty"`
	Region         *Region  `json:"region,omitempty" yaml:"region,omitempty"`
}

// IsZero reports whether the goal sets no condition at all
func (g Goal) IsZero() bool {
	return g.MinDistanceCM == 0 && !g.TouchWall && !g.AvoidWall && len(g.Colors) == 0 &&
		g.MinAbsRotation == 0 && g.MinHeight == 0 && g.Region == nil
}

// Met evaluates the goal against the current pose and history
func (g Goal) Met(pose Pose, h RunHistory) bool {
	if g.IsZero() {
		return false
	}
	if h.MaxDistanceMoved < g.MinDistanceCM {
		return false
	}
	if g.TouchWall && !h.TouchedWall {
		return false
	}
	if g.AvoidWall && h.TouchedWall {
		return false
	}
	for _, want := range g.Colors {
		found := false
		for _, seen := range h.DetectedColors {
			if IsColorClose(seen, want, DefaultColorThreshold) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if math.Abs(h.TotalRotation) < g.MinAbsRotation {
		return false
	}
	if pose.Y < g.MinHeight {
		return false
	}
	if g.Region != nil && !g.Region.Contains(pose.X, pose.Z) {
		return false
	}
	return true
}

// Predicate returns the scenario's success check, or nil when it has none
func (s *Scenario) Predicate() SuccessPredicate {
	if s == nil {
		return nil
	}
	if s.Check != nil {
		return s.Check
	}
	if s.Goal == nil || s.Goal.IsZero() {
		return nil
	}
	goal := *s.Goal
	return goal.Met
}
