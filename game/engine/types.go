package engine

// ObjectType identifies the kind of scenery placed in a scenario
type ObjectType string

const (
	Wall      ObjectType = "WALL"
	Ramp      ObjectType = "RAMP"
	Path      ObjectType = "PATH"
	ColorLine ObjectType = "COLOR_LINE"
)

// PathShape selects the footprint used for PATH zones
type PathShape string

const (
	Straight PathShape = "STRAIGHT"
	Corner   PathShape = "CORNER"
	Curved   PathShape = "CURVED"
)

const (
	// Simulation constants
	TickInterval      = 16 // milliseconds
	BaseVelocity      = 0.165
	BaseTurnSpeed     = 3.9
	TurnTolerance     = 0.5
	DefaultRotation   = 180.0
	DefaultSpeedScale = 100.0
	Circumference     = 3.77

	// Sensor geometry
	TouchOffset      = 1.7
	PhysicalOffset   = 1.5
	ColorOffset      = 0.9
	RangeStep        = 0.2
	RangeMax         = 40.0
	NoDetection      = 255
	WheelOffsetX     = 0.95
	WheelOffsetZ     = 0.5
	CasterOffsetZ    = -0.8
	TiltBase         = 1.3
	ZoneTolerance    = 0.1
	SmoothingFactor  = 0.3
	PenLift          = 0.02
	PenDebounceDist2 = 0.001

	// Unit conversions; these are intentionally independent
	MoveUnitScale    = 0.1  // program distance -> world units
	HistoryUnitScale = 10.0 // world units -> centimeters
	RangeUnitScale   = 10.0 // world units -> sensor units

	MaxMotorPower = 100
)

// Pose is the robot's placement in the world
type Pose struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Rotation float64 `json:"rotation"`
	Tilt     float64 `json:"tilt"`
	Roll     float64 `json:"roll"`

	Touching bool    `json:"touching"`
	Moving   bool    `json:"moving"`
	SensorX  float64 `json:"sensor_x"`
	SensorZ  float64 `json:"sensor_z"`
}

// MotorState holds the commanded wheel powers
type MotorState struct {
	LeftPower  float64 `json:"left_power"`
	RightPower float64 `json:"right_power"`
	SpeedScale float64 `json:"speed_scale"`
}

// LedState holds the two status LED colors
type LedState struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// PenState controls the drawing trail
type PenState struct {
	Down  bool   `json:"down"`
	Color string `json:"color"`
}

// StartPose is where a scenario places the robot on reset
type StartPose struct {
	X        float64  `json:"x" yaml:"x"`
	Z        float64  `json:"z" yaml:"z"`
	Rotation *float64 `json:"rotation,omitempty" yaml:"rotation,omitempty"`
}

// Heading returns the configured start rotation or the default
func (s StartPose) Heading() float64 {
	if s.Rotation == nil {
		return DefaultRotation
	}
	return *s.Rotation
}

// EnvironmentObject is one piece of static scenery
type EnvironmentObject struct {
	ID       string     `json:"id,omitempty" yaml:"id,omitempty"`
	Type     ObjectType `json:"type" yaml:"type"`
	Shape    PathShape  `json:"shape,omitempty" yaml:"shape,omitempty"`
	X        float64    `json:"x" yaml:"x"`
	Z        float64    `json:"z" yaml:"z"`
	Width    float64    `json:"width" yaml:"width"`
	Length   float64    `json:"length" yaml:"length"`
	Height   float64    `json:"height,omitempty" yaml:"height,omitempty"`
	Rotation float64    `json:"rotation,omitempty" yaml:"rotation,omitempty"` // radians
	Color    string     `json:"color,omitempty" yaml:"color,omitempty"`
	Opacity  float64    `json:"opacity,omitempty" yaml:"opacity,omitempty"`
}

// Scenario is the immutable per-run configuration
type Scenario struct {
	ID          string              `json:"id" yaml:"id"`
	Title       string              `json:"title" yaml:"title"`
	Description string              `json:"description" yaml:"description"`
	Start       StartPose           `json:"start" yaml:"start"`
	Objects     []EnvironmentObject `json:"objects" yaml:"objects"`
	Goal        *Goal               `json:"goal,omitempty" yaml:"goal,omitempty"`

	// Check overrides Goal when set; it is never serialized.
	Check SuccessPredicate `json:"-" yaml:"-"`
}

// SuccessPredicate decides whether a run has met its objective
type SuccessPredicate func(pose Pose, history RunHistory) bool

// WallRect is an axis aligned blocking rectangle in world space
type WallRect struct {
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinZ float64 `json:"min_z"`
	MaxZ float64 `json:"max_z"`
}

// Zone is a colored floor region used for color classification
type Zone struct {
	X        float64    `json:"x"`
	Z        float64    `json:"z"`
	Width    float64    `json:"width"`
	Length   float64    `json:"length"`
	Rotation float64    `json:"rotation"`
	Color    uint32     `json:"color"`
	Shape    PathShape  `json:"shape,omitempty"`
	Type     ObjectType `json:"type"`
}

// Environment is the resolved, queryable scenery of a scenario
type Environment struct {
	ScenarioID string     `json:"scenario_id"`
	Walls      []WallRect `json:"walls"`
	Zones      []Zone     `json:"zones"`
}

// SensorSnapshot is one reading of every sensor for a pose
type SensorSnapshot struct {
	Gyro        float64 `json:"gyro"`
	Tilt        float64 `json:"tilt"`
	Roll        float64 `json:"roll"`
	GroundY     float64 `json:"ground_y"`
	Touching    bool    `json:"touching"`
	PhysicalHit bool    `json:"physical_hit"`
	Distance    float64 `json:"distance"`
	Color       string  `json:"color"`
	ColorHex    string  `json:"color_hex"`
	SensorX     float64 `json:"sensor_x"`
	SensorZ     float64 `json:"sensor_z"`
}

// RunHistory accumulates per-run statistics for the success predicate
type RunHistory struct {
	MaxDistanceMoved float64  `json:"max_distance_moved"`
	TouchedWall      bool     `json:"touched_wall"`
	DetectedColors   []string `json:"detected_colors"`
	TotalRotation    float64  `json:"total_rotation"`
}

// DrawingPath is one continuous pen trail
type DrawingPath struct {
	ID     string       `json:"id"`
	Points [][3]float64 `json:"points"`
	Color  string       `json:"color"`
}

// State is an immutable readout of the simulation for renderers
type State struct {
	ScenarioID string         `json:"scenario_id"`
	Tick       uint64         `json:"tick"`
	Pose       Pose           `json:"pose"`
	Motors     MotorState     `json:"motors"`
	Leds       LedState       `json:"leds"`
	Pen        PenState       `json:"pen"`
	Sensors    SensorSnapshot `json:"sensors"`
	History    RunHistory     `json:"history"`
	Success    bool           `json:"success"`
	Active     bool           `json:"active"`
	Variables  map[string]any `json:"variables,omitempty"`
	Drawings   []DrawingPath  `json:"drawings,omitempty"`
	Current    *DrawingPath   `json:"current_drawing,omitempty"`
	Listeners  ListenerCounts `json:"listeners"`
}

// ListenerCounts summarizes registered listeners
type ListenerCounts struct {
	Colors    int `json:"colors"`
	Obstacles int `json:"obstacles"`
	Distances int `json:"distances"`
	Messages  int `json:"messages"`
}
