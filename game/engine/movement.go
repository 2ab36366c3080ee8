package engine

import "math"

// World bundles the resolved environment with its height field
type World struct {
	Env    *Environment
	Height HeightFunc
}

// NewWorld resolves a scenario into a World
func NewWorld(scenario *Scenario) World {
	if scenario == nil {
		return World{Env: ResolveEnvironment("", nil), Height: HeightField("", nil)}
	}
	return World{
		Env:    ResolveEnvironment(scenario.ID, scenario.Objects),
		Height: HeightField(scenario.ID, scenario.Objects),
	}
}

// Sense reads all sensors at a pose
func (w World) Sense(x, z, rotation float64) SensorSnapshot {
	return ReadSensors(x, z, rotation, w.Env, w.Height)
}

// Velocities converts motor powers into per-tick forward and angular velocity
func Velocities(m MotorState) (forwardV, turnV float64) {
	scale := m.SpeedScale / 100
	left := m.LeftPower / 100
	right := m.RightPower / 100
	forwardV = ((left + right) / 2) * BaseVelocity * scale
	turnV = (right - left) * BaseTurnSpeed * scale
	return forwardV, turnV
}

// slopeMultiplier slows the robot when it drives uphill
func slopeMultiplier(tilt, forwardV float64) float64 {
	if math.Abs(tilt) <= 3 {
		return 1
	}
	uphill := (forwardV > 0 && tilt > 0) || (forwardV < 0 && tilt < 0)
	if !uphill {
		return 1
	}
	return math.Max(0.2, 1-math.Min(math.Abs(tilt)/25, 1)*0.8)
}

// Integrate advances the pose by one tick. The returned snapshot is the
// sensor reading at the proposed pose, which drives listeners and history.
func Integrate(pose Pose, motors MotorState, world World) (Pose, SensorSnapshot) {
	forwardV, turnV := Velocities(motors)

	current := world.Sense(pose.X, pose.Z, pose.Rotation)
	forwardV *= slopeMultiplier(current.Tilt, forwardV)

	next := pose
	next.Rotation = pose.Rotation + turnV
	rad := next.Rotation * math.Pi / 180
	nx := pose.X + math.Sin(rad)*forwardV
	nz := pose.Z + math.Cos(rad)*forwardV

	predicted := world.Sense(nx, nz, next.Rotation)
	if !predicted.Touching {
		next.X = nx
		next.Z = nz
	}

	next.Y += (predicted.GroundY - pose.Y) * SmoothingFactor
	next.Tilt += (predicted.Tilt - pose.Tilt) * SmoothingFactor
	next.Roll += (predicted.Roll - pose.Roll) * SmoothingFactor
	next.Touching = predicted.Touching
	next.Moving = math.Abs(forwardV) > 0.001 || math.Abs(turnV) > 0.001
	next.SensorX = predicted.SensorX
	next.SensorZ = predicted.SensorZ

	return next, predicted
}
