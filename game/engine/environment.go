package engine

// Default zone colors when an object leaves its color unset
const (
	DefaultPathColor      = "#FFFF00"
	DefaultColorLineColor = "#FF0000"
	DefaultRampColor      = "#334155"
)

// scenarioWalls are fixed walls some scenarios carry in addition to their objects
var scenarioWalls = map[string][]WallRect{
	"c10": {{MinX: -3, MaxX: 3, MinZ: -10.25, MaxZ: -9.75}},
	"c16": {{MinX: -3, MaxX: 3, MinZ: -10.25, MaxZ: -9.75}},
	"c19": {{MinX: -3, MaxX: 3, MinZ: -10.25, MaxZ: -9.75}},
	"c20": {{MinX: -3, MaxX: 3, MinZ: -10.25, MaxZ: -9.75}},
}

// ResolveEnvironment builds the queryable walls and color zones for a scenario.
// The result is a fresh value; callers rebuild it rather than mutate it.
func ResolveEnvironment(scenarioID string, objects []EnvironmentObject) *Environment {
	env := &Environment{
		ScenarioID: scenarioID,
		Walls:      []WallRect{},
		Zones:      []Zone{},
	}
	env.Walls = append(env.Walls, scenarioWalls[scenarioID]...)

	for _, obj := range objects {
		switch obj.Type {
		case Wall:
			hw := obj.Width / 2
			hl := obj.Length / 2
			env.Walls = append(env.Walls, WallRect{
				MinX: obj.X - hw,
				MaxX: obj.X + hw,
				MinZ: obj.Z - hl,
				MaxZ: obj.Z + hl,
			})
		case Path:
			shape := obj.Shape
			if shape == "" {
				shape = Straight
			}
			env.Zones = append(env.Zones, newZone(obj, DefaultPathColor, shape))
		case ColorLine:
			env.Zones = append(env.Zones, newZone(obj, DefaultColorLineColor, ""))
		case Ramp:
			env.Zones = append(env.Zones, newZone(obj, DefaultRampColor, ""))
		}
	}

	return env
}

func newZone(obj EnvironmentObject, fallback string, shape PathShape) Zone {
	hex := obj.Color
	if hex == "" {
		hex = fallback
	}
	color, err := ParseHexColor(hex)
	if err != nil {
		color = whiteColor
	}
	return Zone{
		X:        obj.X,
		Z:        obj.Z,
		Width:    obj.Width,
		Length:   obj.Length,
		Rotation: obj.Rotation,
		Color:    color,
		Shape:    shape,
		Type:     obj.Type,
	}
}

// BlockedAt reports whether a point lies inside any wall, edges included
func (e *Environment) BlockedAt(x, z float64) bool {
	if e == nil {
		return false
	}
	return BlockedAt(x, z, e.Walls)
}
