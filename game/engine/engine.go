package engine

import "fmt"

// Engine provides the main interface for simulation operations
type Engine interface {
	// Lifecycle
	Reset()
	SetScenario(scenario *Scenario) error
	GetScenario() *Scenario
	Activate()
	Deactivate()
	IsActive() bool
	Step() []Callback

	// Robot state
	GetPose() Pose
	Place(x, z float64)
	SetRotation(rotation float64)
	Sensors() SensorSnapshot
	Measure() SensorSnapshot
	Motors() MotorState
	SetMotorPower(left, right float64)
	SetSpeed(scale float64)
	SetLed(side string, color string) error
	SetPen(down bool)
	SetPenColor(color string)
	ClearDrawings()
	SetVariable(name string, value any)

	// Events and results
	Listeners() *Listeners
	History() RunHistory
	IsSuccess() bool
	Snapshot() State
}

// Simulation implements Engine. It owns the only Pose and MotorState of the
// robot and is not safe for concurrent use.
type Simulation struct {
	scenario  *Scenario
	world     World
	predicate SuccessPredicate

	pose      Pose
	motors    MotorState
	leds      LedState
	pen       PenState
	sensors   SensorSnapshot
	listeners Listeners
	history   RunHistory
	drawings  DrawingBoard
	variables map[string]any

	tick    uint64
	active  bool
	success bool
}

// NewSimulation creates a simulation for the scenario, placed at its start pose
func NewSimulation(scenario *Scenario) (*Simulation, error) {
	if scenario == nil {
		scenario = DefaultScenario()
	}
	if err := ValidateScenario(scenario); err != nil {
		return nil, err
	}

	sim := &Simulation{
		motors: MotorState{SpeedScale: DefaultSpeedScale},
		pen:    PenState{Color: "#000000"},
	}
	sim.load(scenario)
	sim.Reset()
	return sim, nil
}

func (s *Simulation) load(scenario *Scenario) {
	s.scenario = scenario
	s.world = NewWorld(scenario)
	s.predicate = scenario.Predicate()
}

// Reset returns the robot to the start pose and clears all per-run state.
// Speed scale and pen color carry over, as on the physical robot.
func (s *Simulation) Reset() {
	start := s.scenario.Start
	rotation := start.Heading()
	initial := s.world.Sense(start.X, start.Z, rotation)

	s.pose = Pose{
		X:        start.X,
		Y:        initial.GroundY,
		Z:        start.Z,
		Rotation: rotation,
		Tilt:     initial.Tilt,
		Roll:     initial.Roll,
		SensorX:  initial.SensorX,
		SensorZ:  initial.SensorZ,
	}
	s.sensors = initial
	s.motors.LeftPower = 0
	s.motors.RightPower = 0
	s.leds = LedState{Left: "black", Right: "black"}
	s.pen.Down = false
	s.drawings.Clear()
	s.listeners.Clear()
	s.history = RunHistory{DetectedColors: []string{}}
	s.variables = map[string]any{}
	s.tick = 0
	s.active = false
	s.success = false
}

// SetScenario switches to a new scenario and resets
func (s *Simulation) SetScenario(scenario *Scenario) error {
	if err := ValidateScenario(scenario); err != nil {
		return err
	}
	s.load(scenario)
	s.Reset()
	return nil
}

// GetScenario returns the current scenario
func (s *Simulation) GetScenario() *Scenario {
	return s.scenario
}

// Activate starts ticking
func (s *Simulation) Activate() {
	s.active = true
}

// Deactivate stops ticking and archives any trail being drawn
func (s *Simulation) Deactivate() {
	s.active = false
	s.drawings.Lift()
}

// IsActive returns whether the simulation is ticking
func (s *Simulation) IsActive() bool {
	return s.active
}

// Step advances one tick and returns the listener callbacks that fired.
// It does nothing while the simulation is inactive.
func (s *Simulation) Step() []Callback {
	if !s.active {
		return nil
	}
	s.tick++

	next, predicted := Integrate(s.pose, s.motors, s.world)
	s.pose = next
	s.sensors = predicted

	fired := s.listeners.Evaluate(predicted)

	s.history.Observe(s.pose, predicted, s.scenario.Start)
	s.drawings.Track(s.pose.X, s.pose.Y, s.pose.Z, s.pen)

	if !s.success && s.predicate != nil && s.predicate(s.pose, s.history.Clone()) {
		s.success = true
	}

	return fired
}

// GetPose returns the current pose
func (s *Simulation) GetPose() Pose {
	return s.pose
}

// Place moves the robot by hand, settling height, tilt and roll at once
func (s *Simulation) Place(x, z float64) {
	reading := s.world.Sense(x, z, s.pose.Rotation)
	s.pose.X = x
	s.pose.Z = z
	s.pose.Y = reading.GroundY
	s.pose.Tilt = reading.Tilt
	s.pose.Roll = reading.Roll
	s.pose.SensorX = reading.SensorX
	s.pose.SensorZ = reading.SensorZ
	s.sensors = reading
}

// SetRotation overwrites the heading, used to snap turns onto their target.
// Every sensor is re-read at the new heading.
func (s *Simulation) SetRotation(rotation float64) {
	reading := s.world.Sense(s.pose.X, s.pose.Z, rotation)
	s.pose.Rotation = rotation
	s.pose.Touching = reading.Touching
	s.pose.SensorX = reading.SensorX
	s.pose.SensorZ = reading.SensorZ
	s.sensors = reading
}

// Sensors returns the reading taken by the last tick. It describes the pose
// the robot tried to reach, so a blocked robot still reports contact.
func (s *Simulation) Sensors() SensorSnapshot {
	return s.sensors
}

// Measure reads every sensor at the current pose
func (s *Simulation) Measure() SensorSnapshot {
	return s.world.Sense(s.pose.X, s.pose.Z, s.pose.Rotation)
}

// Motors returns the commanded motor state
func (s *Simulation) Motors() MotorState {
	return s.motors
}

// SetMotorPower sets both wheel powers, clamped to [-100, 100]
func (s *Simulation) SetMotorPower(left, right float64) {
	s.motors.LeftPower = clampPower(left)
	s.motors.RightPower = clampPower(right)
}

// SetSpeed sets the speed scale percentage
func (s *Simulation) SetSpeed(scale float64) {
	if scale < 0 {
		scale = 0
	}
	s.motors.SpeedScale = scale
}

// SetLed colors the left, right or both LEDs
func (s *Simulation) SetLed(side string, color string) error {
	switch side {
	case "left":
		s.leds.Left = color
	case "right":
		s.leds.Right = color
	case "both", "":
		s.leds.Left = color
		s.leds.Right = color
	default:
		return fmt.Errorf("invalid led side %q", side)
	}
	return nil
}

// SetPen lowers or lifts the pen; lifting archives the active trail at once
func (s *Simulation) SetPen(down bool) {
	s.pen.Down = down
	if !down {
		s.drawings.Lift()
	}
}

// SetPenColor changes the trail color; the next tick starts a new path
func (s *Simulation) SetPenColor(color string) {
	s.pen.Color = color
}

// ClearDrawings erases every trail
func (s *Simulation) ClearDrawings() {
	s.drawings.Clear()
}

// SetVariable publishes a monitored value
func (s *Simulation) SetVariable(name string, value any) {
	s.variables[name] = value
}

// Listeners returns the listener registry
func (s *Simulation) Listeners() *Listeners {
	return &s.listeners
}

// History returns a copy of the run history
func (s *Simulation) History() RunHistory {
	return s.history.Clone()
}

// IsSuccess returns whether the scenario goal has been reached since reset
func (s *Simulation) IsSuccess() bool {
	return s.success
}

// Snapshot returns an immutable readout for renderers
func (s *Simulation) Snapshot() State {
	vars := make(map[string]any, len(s.variables))
	for k, v := range s.variables {
		vars[k] = v
	}
	return State{
		ScenarioID: s.scenario.ID,
		Tick:       s.tick,
		Pose:       s.pose,
		Motors:     s.motors,
		Leds:       s.leds,
		Pen:        s.pen,
		Sensors:    s.sensors,
		History:    s.history.Clone(),
		Success:    s.success,
		Active:     s.active,
		Variables:  vars,
		Drawings:   s.drawings.Completed(),
		Current:    s.drawings.Active(),
		Listeners:  s.listeners.Counts(),
	}
}
