package engine

import "math"

// DefaultRampHeight applies to ramps that leave Height unset
const DefaultRampHeight = 1.0

// HeightFunc returns the ground elevation at a world point
type HeightFunc func(x, z float64) float64

// elevationProfiles are fixed terrain shapes keyed by scenario id.
// They combine with ramp heights via max.
var elevationProfiles = map[string]HeightFunc{
	"c18": bridgeProfile,
}

// bridgeProfile is a raised deck over x in [-2.1, 2.1]: a 3.5 unit climb from
// z=-0.2, a plateau at 1.73 between z=-3.7 and z=-7.4, and a 3.5 unit descent.
func bridgeProfile(x, z float64) float64 {
	const (
		peak     = 1.73
		span     = 3.5
		halfWide = 2.1
	)
	if x < -halfWide || x > halfWide {
		return 0
	}
	switch {
	case z < -0.2 && z > -3.7:
		return ((z + 0.2) / -span) * peak
	case z <= -3.7 && z >= -7.4:
		return peak
	case z < -7.4 && z > -10.9:
		return peak - ((z+7.4)/-span)*peak
	}
	return 0
}

// rampHeight evaluates one ramp's three-section profile at a world point
func rampHeight(obj EnvironmentObject, x, z float64) float64 {
	if obj.Length <= 0 || obj.Width <= 0 {
		return 0
	}
	lx, lz := toLocal(x, z, obj.X, obj.Z, obj.Rotation)
	hw := obj.Width / 2
	hl := obj.Length / 2
	if math.Abs(lx) > hw || math.Abs(lz) > hl {
		return 0
	}

	h := obj.Height
	if h == 0 {
		h = DefaultRampHeight
	}
	section := obj.Length / 3
	uphillEnd := -hl + section
	downhillStart := hl - section

	switch {
	case lz < uphillEnd:
		return ((lz + hl) / section) * h
	case lz < downhillStart:
		return h
	default:
		return h - ((lz-downhillStart)/section)*h
	}
}

// HeightAt returns the ground elevation at (x, z): the highest ramp under the
// point, raised further by the scenario's elevation profile if it has one.
func HeightAt(x, z float64, scenarioID string, objects []EnvironmentObject) float64 {
	height := 0.0
	for _, obj := range objects {
		if obj.Type != Ramp {
			continue
		}
		height = math.Max(height, rampHeight(obj, x, z))
	}
	if profile, ok := elevationProfiles[scenarioID]; ok {
		height = math.Max(height, profile(x, z))
	}
	return height
}

// HeightField binds HeightAt to a scenario's objects
func HeightField(scenarioID string, objects []EnvironmentObject) HeightFunc {
	return func(x, z float64) float64 {
		return HeightAt(x, z, scenarioID, objects)
	}
}
