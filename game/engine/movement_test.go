package engine

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

var testWall = []WallRect{{MinX: -1, MaxX: 1, MinZ: 4, MaxZ: 5}}

func TestBlockedAt(t *testing.T) {
	tests := []struct {
		name     string
		x, z     float64
		expected bool
	}{
		{"center", 0, 4.5, true},
		{"strictly inside corner", 0.99, 4.01, true},
		{"min edge", -1, 4, true},
		{"max edge", 1, 5, true},
		{"just outside x", 1.01, 4.5, false},
		{"just outside z", 0, 3.99, false},
		{"far away", 10, 10, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := BlockedAt(test.x, test.z, testWall); got != test.expected {
				t.Errorf("BlockedAt(%v, %v) = %v, want %v", test.x, test.z, got, test.expected)
			}
		})
	}

	if BlockedAt(0, 0, nil) {
		t.Error("No walls should never block")
	}
}

func TestTouchAndPhysicalProbesAreIndependent(t *testing.T) {
	tests := []struct {
		name         string
		z            float64
		wantTouch    bool
		wantPhysical bool
	}{
		{"clear", 2.0, false, false},
		{"touch only", 2.4, true, false},
		{"both", 2.6, true, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := TouchingAt(0, test.z, 0, testWall); got != test.wantTouch {
				t.Errorf("TouchingAt z=%v = %v, want %v", test.z, got, test.wantTouch)
			}
			if got := PhysicalHitAt(0, test.z, 0, testWall); got != test.wantPhysical {
				t.Errorf("PhysicalHitAt z=%v = %v, want %v", test.z, got, test.wantPhysical)
			}
		})
	}
}

func TestRangeAt(t *testing.T) {
	tests := []struct {
		name     string
		x, z     float64
		rotation float64
		walls    []WallRect
		expected float64
	}{
		{"wall ahead", 0, 0, 0, testWall, 24},
		{"facing away", 0, 0, 180, testWall, NoDetection},
		{"no walls", 0, 0, 0, nil, NoDetection},
		{"out of range", 0, 0, 0, []WallRect{{MinX: -1, MaxX: 1, MinZ: 50, MaxZ: 51}}, NoDetection},
		{"heading east", 0, 0, 90, []WallRect{{MinX: 4, MaxX: 5, MinZ: -1, MaxZ: 1}}, 24},
		{"already touching", 0, 2.5, 0, testWall, 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := RangeAt(test.x, test.z, test.rotation, test.walls); got != test.expected {
				t.Errorf("RangeAt = %v, want %v", got, test.expected)
			}
		})
	}
}

func TestHeightAt_RampProfile(t *testing.T) {
	ramp := []EnvironmentObject{{Type: Ramp, X: 0, Z: 0, Width: 2, Length: 6, Height: 1.5}}

	tests := []struct {
		z        float64
		expected float64
	}{
		{-3, 0},
		{-2.5, 0.375},
		{-2, 0.75},
		{-1, 1.5},
		{0, 1.5},
		{1, 1.5},
		{2, 0.75},
		{3, 0},
	}

	for _, test := range tests {
		if got := HeightAt(0, test.z, "", ramp); !approx(got, test.expected, epsilon) {
			t.Errorf("HeightAt(0, %v) = %v, want %v", test.z, got, test.expected)
		}
	}

	if got := HeightAt(1.5, 0, "", ramp); got != 0 {
		t.Errorf("Point beside the ramp should be flat, got %v", got)
	}
	if got := HeightAt(0, 3.5, "", ramp); got != 0 {
		t.Errorf("Point past the ramp should be flat, got %v", got)
	}
}

func TestHeightAt_Composition(t *testing.T) {
	t.Run("default height", func(t *testing.T) {
		objs := []EnvironmentObject{{Type: Ramp, Width: 2, Length: 3}}
		if got := HeightAt(0, 0, "", objs); !approx(got, DefaultRampHeight, epsilon) {
			t.Errorf("Expected default ramp height, got %v", got)
		}
	})

	t.Run("max of overlapping ramps", func(t *testing.T) {
		objs := []EnvironmentObject{
			{Type: Ramp, Width: 2, Length: 6, Height: 1},
			{Type: Ramp, Width: 2, Length: 6, Height: 2.5},
		}
		if got := HeightAt(0, 0, "", objs); !approx(got, 2.5, epsilon) {
			t.Errorf("Expected 2.5, got %v", got)
		}
	})

	t.Run("zero length ramp is flat", func(t *testing.T) {
		objs := []EnvironmentObject{{Type: Ramp, Width: 2, Length: 0, Height: 2}}
		if got := HeightAt(0, 0, "", objs); got != 0 {
			t.Errorf("Expected 0, got %v", got)
		}
	})

	t.Run("non ramps ignored", func(t *testing.T) {
		objs := []EnvironmentObject{{Type: Wall, Width: 2, Length: 6, Height: 3}}
		if got := HeightAt(0, 0, "", objs); got != 0 {
			t.Errorf("Expected 0, got %v", got)
		}
	})

	t.Run("rotated ramp", func(t *testing.T) {
		objs := []EnvironmentObject{{Type: Ramp, Width: 2, Length: 6, Height: 1.5, Rotation: math.Pi / 2}}
		if got := HeightAt(-2, 0, "", objs); !approx(got, 0.75, 1e-9) {
			t.Errorf("Expected 0.75 on the rotated ramp, got %v", got)
		}
		if got := HeightAt(0, -2, "", objs); got != 0 {
			t.Errorf("Rotated ramp should not cover (0,-2), got %v", got)
		}
	})
}

func TestHeightAt_ScenarioProfile(t *testing.T) {
	tests := []struct {
		name     string
		x, z     float64
		expected float64
	}{
		{"before bridge", 0, 0, 0},
		{"half way up", 0, -1.95, 0.865},
		{"plateau", 0, -5, 1.73},
		{"plateau edge", 2.1, -3.7, 1.73},
		{"half way down", 0, -9.15, 0.865},
		{"after bridge", 0, -11, 0},
		{"beside bridge", 3, -5, 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := HeightAt(test.x, test.z, "c18", nil); !approx(got, test.expected, 1e-9) {
				t.Errorf("HeightAt(%v, %v, c18) = %v, want %v", test.x, test.z, got, test.expected)
			}
		})
	}

	if got := HeightAt(0, -5, "c17", nil); got != 0 {
		t.Errorf("Profile must only apply to its scenario, got %v", got)
	}

	// A ramp taller than the bridge wins the max
	tall := []EnvironmentObject{{Type: Ramp, Z: -5, Width: 2, Length: 3, Height: 3}}
	if got := HeightAt(0, -5, "c18", tall); !approx(got, 3, epsilon) {
		t.Errorf("Expected the taller ramp to win, got %v", got)
	}
}

func TestVelocities(t *testing.T) {
	tests := []struct {
		name           string
		motors         MotorState
		wantF, wantTurn float64
	}{
		{"full forward", MotorState{LeftPower: 100, RightPower: 100, SpeedScale: 100}, 0.165, 0},
		{"half speed scale", MotorState{LeftPower: 100, RightPower: 100, SpeedScale: 50}, 0.0825, 0},
		{"spin left", MotorState{LeftPower: -50, RightPower: 50, SpeedScale: 100}, 0, 3.9},
		{"reverse", MotorState{LeftPower: -100, RightPower: -100, SpeedScale: 100}, -0.165, 0},
		{"stopped", MotorState{SpeedScale: 100}, 0, 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f, turn := Velocities(test.motors)
			if !approx(f, test.wantF, epsilon) || !approx(turn, test.wantTurn, epsilon) {
				t.Errorf("Velocities = (%v, %v), want (%v, %v)", f, turn, test.wantF, test.wantTurn)
			}
		})
	}
}

func TestSlopeMultiplier(t *testing.T) {
	tests := []struct {
		name     string
		tilt, fv float64
		expected float64
	}{
		{"gentle slope", 2, 0.1, 1},
		{"uphill forward", 10, 0.1, 0.68},
		{"downhill forward", -10, 0.1, 1},
		{"uphill reverse", -10, -0.1, 0.68},
		{"steep floor", 30, 0.1, 0.2},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := slopeMultiplier(test.tilt, test.fv); !approx(got, test.expected, epsilon) {
				t.Errorf("slopeMultiplier(%v, %v) = %v, want %v", test.tilt, test.fv, got, test.expected)
			}
		})
	}
}

func flatWorld(walls []WallRect) World {
	return World{Env: &Environment{Walls: walls}, Height: HeightField("", nil)}
}

func TestIntegrate_StraightLine(t *testing.T) {
	world := flatWorld(nil)
	pose := Pose{}
	motors := MotorState{LeftPower: 100, RightPower: 100, SpeedScale: 100}

	next, snap := Integrate(pose, motors, world)
	if !approx(next.Z, 0.165, epsilon) || !approx(next.X, 0, epsilon) {
		t.Errorf("Expected (0, 0.165), got (%v, %v)", next.X, next.Z)
	}
	if !next.Moving {
		t.Error("Expected robot to be moving")
	}
	if next.Touching || snap.Touching {
		t.Error("Expected no contact on an empty floor")
	}
	if !approx(next.SensorZ, 0.165+ColorOffset, epsilon) {
		t.Errorf("Expected color sensor at z=%v, got %v", 0.165+ColorOffset, next.SensorZ)
	}

	idle, _ := Integrate(next, MotorState{SpeedScale: 100}, world)
	if idle.Moving {
		t.Error("Expected robot with zero power to be still")
	}
}

func TestIntegrate_WallRejectsTranslationButNotRotation(t *testing.T) {
	world := flatWorld(testWall)
	pose := Pose{Z: 2.3}
	motors := MotorState{LeftPower: 100, RightPower: 50, SpeedScale: 100}

	next, snap := Integrate(pose, motors, world)
	if !snap.Touching || !next.Touching {
		t.Fatal("Expected the proposed pose to touch the wall")
	}
	if next.X != pose.X || next.Z != pose.Z {
		t.Errorf("Translation should be rejected, got (%v, %v)", next.X, next.Z)
	}
	if !approx(next.Rotation, -1.95, epsilon) {
		t.Errorf("Rotation should still commit, got %v", next.Rotation)
	}
}

func TestIntegrate_Smoothing(t *testing.T) {
	ramp := []EnvironmentObject{{Type: Ramp, Width: 4, Length: 6, Height: 1.5}}
	world := World{Env: ResolveEnvironment("", ramp), Height: HeightField("", ramp)}

	pose := Pose{}
	next, snap := Integrate(pose, MotorState{SpeedScale: 100}, world)
	if !approx(snap.GroundY, 1.5, epsilon) {
		t.Fatalf("Expected sensed ground 1.5, got %v", snap.GroundY)
	}
	if !approx(next.Y, 0.45, epsilon) {
		t.Errorf("Expected smoothed y 0.45, got %v", next.Y)
	}

	for i := 0; i < 60; i++ {
		next, _ = Integrate(next, MotorState{SpeedScale: 100}, world)
	}
	if !approx(next.Y, 1.5, 1e-6) {
		t.Errorf("Expected y to converge to 1.5, got %v", next.Y)
	}
}

func TestIntegrate_SlopeSlowsClimb(t *testing.T) {
	ramp := []EnvironmentObject{{Type: Ramp, Z: 5, Width: 4, Length: 6, Height: 1.5}}
	world := World{Env: ResolveEnvironment("", ramp), Height: HeightField("", ramp)}
	motors := MotorState{LeftPower: 100, RightPower: 100, SpeedScale: 100}

	flat, _ := Integrate(Pose{Z: -5}, motors, world)
	climbing, _ := Integrate(Pose{Z: 2.5}, motors, world)

	flatStep := flat.Z - (-5)
	climbStep := climbing.Z - 2.5
	if !(climbStep < flatStep) {
		t.Errorf("Expected slower progress uphill: flat %v, climbing %v", flatStep, climbStep)
	}
	if climbStep < 0.2*BaseVelocity-epsilon {
		t.Errorf("Attenuation must not go below 20%%, got %v", climbStep)
	}
}
