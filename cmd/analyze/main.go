// Command analyze prints quick, human-readable heuristics about the scenario
// files in a directory. It summarizes object counts, world extent and the
// goal, and flags goals no run could meet: colors nothing paints, heights
// taller than every ramp, walls that do not exist and goal regions buried
// inside a wall.
package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/robot-sim/game/engine"
)

// Analysis is the summary of one scenario file
type Analysis struct {
	File     string
	Scenario *engine.Scenario
	Counts   map[engine.ObjectType]int
	Extent   Bounds
	Colors   []string
	MaxRamp  float64
	Warnings []string
}

// Bounds is an axis-aligned box on the floor plane
type Bounds struct {
	MinX, MaxX, MinZ, MaxZ float64
}

func (b Bounds) overlaps(o Bounds) bool {
	return b.MinX < o.MaxX && o.MinX < b.MaxX && b.MinZ < o.MaxZ && o.MinZ < b.MaxZ
}

func (b Bounds) contains(o Bounds) bool {
	return o.MinX >= b.MinX && o.MaxX <= b.MaxX && o.MinZ >= b.MinZ && o.MaxZ <= b.MaxZ
}

func main() {
	dir := filepath.Join("configs", "scenarios")
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := scenarioFiles(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		a, err := analyzeFile(file)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, a)
	}
}

func scenarioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			if !e.IsDir() {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func analyzeFile(path string) (*Analysis, error) {
	scenario, err := engine.LoadScenarioFile(path)
	if err != nil {
		return nil, err
	}
	a := analyze(scenario)
	a.File = filepath.Base(path)
	return a, nil
}

// analyze summarizes a scenario and checks its goal against the scenery
func analyze(s *engine.Scenario) *Analysis {
	a := &Analysis{
		Scenario: s,
		Counts:   make(map[engine.ObjectType]int),
		Extent:   Bounds{MinX: s.Start.X, MaxX: s.Start.X, MinZ: s.Start.Z, MaxZ: s.Start.Z},
	}

	var walls []Bounds
	seen := make(map[string]bool)
	for _, obj := range s.Objects {
		a.Counts[obj.Type]++
		b := footprint(obj)
		a.Extent.MinX = math.Min(a.Extent.MinX, b.MinX)
		a.Extent.MaxX = math.Max(a.Extent.MaxX, b.MaxX)
		a.Extent.MinZ = math.Min(a.Extent.MinZ, b.MinZ)
		a.Extent.MaxZ = math.Max(a.Extent.MaxZ, b.MaxZ)

		switch obj.Type {
		case engine.Wall:
			walls = append(walls, b)
		case engine.Ramp:
			a.MaxRamp = math.Max(a.MaxRamp, obj.Height)
			a.addColor(seen, objectColor(obj, engine.DefaultRampColor))
		case engine.Path:
			a.addColor(seen, objectColor(obj, engine.DefaultPathColor))
		case engine.ColorLine:
			a.addColor(seen, objectColor(obj, engine.DefaultColorLineColor))
		}
	}

	g := s.Goal
	if g == nil || g.IsZero() {
		return a
	}

	for _, want := range g.Colors {
		found := false
		for _, have := range a.Colors {
			if engine.IsColorClose(have, want, engine.DefaultColorThreshold) {
				found = true
				break
			}
		}
		if !found {
			a.Warnings = append(a.Warnings, fmt.Sprintf("goal color %q is not painted by any object", want))
		}
	}
	if g.MinHeight > 0 && g.MinHeight > a.MaxRamp {
		a.Warnings = append(a.Warnings, fmt.Sprintf("goal height %.2f exceeds the tallest ramp (%.2f)", g.MinHeight, a.MaxRamp))
	}
	if g.TouchWall && len(walls) == 0 {
		a.Warnings = append(a.Warnings, "goal requires touching a wall but the scenario has none")
	}
	if r := g.Region; r != nil {
		region := Bounds{MinX: r.MinX, MaxX: r.MaxX, MinZ: r.MinZ, MaxZ: r.MaxZ}
		for _, w := range walls {
			if w.contains(region) {
				a.Warnings = append(a.Warnings, "goal region lies entirely inside a wall")
				break
			}
		}
		if g.AvoidWall {
			for _, w := range walls {
				if w.overlaps(region) {
					a.Warnings = append(a.Warnings, "goal region overlaps a wall the robot must avoid")
					break
				}
			}
		}
	}
	return a
}

func (a *Analysis) addColor(seen map[string]bool, hex string) {
	if !seen[hex] {
		seen[hex] = true
		a.Colors = append(a.Colors, hex)
	}
}

func objectColor(obj engine.EnvironmentObject, fallback string) string {
	if obj.Color != "" {
		return strings.ToUpper(obj.Color)
	}
	return fallback
}

// footprint bounds a rotated rectangle
func footprint(obj engine.EnvironmentObject) Bounds {
	hw, hl := obj.Width/2, obj.Length/2
	cos, sin := math.Abs(math.Cos(obj.Rotation)), math.Abs(math.Sin(obj.Rotation))
	ex := hw*cos + hl*sin
	ez := hw*sin + hl*cos
	return Bounds{MinX: obj.X - ex, MaxX: obj.X + ex, MinZ: obj.Z - ez, MaxZ: obj.Z + ez}
}

func printAnalysis(w io.Writer, a *Analysis) {
	s := a.Scenario
	fmt.Fprintf(w, "Title: %s\n", s.Title)
	fmt.Fprintf(w, "Start: (%.1f, %.1f) facing %.0f°\n", s.Start.X, s.Start.Z, s.Start.Heading())
	fmt.Fprintf(w, "Objects: %d walls, %d ramps, %d paths, %d color lines\n",
		a.Counts[engine.Wall], a.Counts[engine.Ramp], a.Counts[engine.Path], a.Counts[engine.ColorLine])
	fmt.Fprintf(w, "Extent: x %.1f..%.1f, z %.1f..%.1f\n", a.Extent.MinX, a.Extent.MaxX, a.Extent.MinZ, a.Extent.MaxZ)

	names := make([]string, len(a.Colors))
	for i, c := range a.Colors {
		names[i] = engine.ColorName(c)
	}
	if len(names) > 0 {
		fmt.Fprintf(w, "Colors: %s\n", strings.Join(names, ", "))
	}

	if s.Goal == nil || s.Goal.IsZero() {
		fmt.Fprintf(w, "Goal: none\n")
		return
	}
	fmt.Fprintf(w, "Goal: %s\n", describeGoal(s.Goal))

	if len(a.Warnings) > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: the goal cannot be met\n")
		for _, msg := range a.Warnings {
			fmt.Fprintf(w, "   %s\n", msg)
		}
	} else {
		fmt.Fprintf(w, "✅ Goal is reachable with the scenery provided\n")
	}
}

func describeGoal(g *engine.Goal) string {
	var parts []string
	if g.MinDistanceCM > 0 {
		parts = append(parts, fmt.Sprintf("move %.0f cm", g.MinDistanceCM))
	}
	if g.TouchWall {
		parts = append(parts, "touch a wall")
	}
	if g.AvoidWall {
		parts = append(parts, "avoid walls")
	}
	if len(g.Colors) > 0 {
		parts = append(parts, "detect "+strings.Join(g.Colors, ", "))
	}
	if g.MinAbsRotation > 0 {
		parts = append(parts, fmt.Sprintf("turn %.0f°", g.MinAbsRotation))
	}
	if g.MinHeight > 0 {
		parts = append(parts, fmt.Sprintf("climb to %.2f", g.MinHeight))
	}
	if r := g.Region; r != nil {
		parts = append(parts, fmt.Sprintf("end in x %.1f..%.1f, z %.1f..%.1f", r.MinX, r.MaxX, r.MinZ, r.MaxZ))
	}
	return strings.Join(parts, "; ")
}
