package engine

import "math"

// colorMarker paints fixed floor art that is not expressed as zone objects
type colorMarker func(x, z float64) (name string, color uint32, hit bool)

var scenarioMarkers = map[string]colorMarker{
	"c10": greyStripMarker,
	"c12": ellipseMarker,
	"c14": twoBoxMarker,
	"c15": twoBoxMarker,
	"c18": finishStripMarker,
	"c21": ringMarker,
}

// ringMarker is a black circle of radius 6 centered on (-6, 0)
func ringMarker(x, z float64) (string, uint32, bool) {
	if math.Abs(math.Hypot(x+6, z)-6) <= 0.25 {
		return "black", 0x000000, true
	}
	return "", 0, false
}

// ellipseMarker is a black 9x6 ellipse centered on (0, -8) with colored
// markers at the four quadrant points.
func ellipseMarker(x, z float64) (string, uint32, bool) {
	ex := x
	ez := z + 8
	norm := math.Sqrt((ex/9)*(ex/9) + (ez/6)*(ez/6))
	if math.Abs(norm-1) > 0.04 {
		return "", 0, false
	}

	const threshold = 4.0
	deg := math.Mod(math.Atan2(ez, ex)*180/math.Pi+360, 360)
	switch {
	case math.Abs(deg) < threshold || math.Abs(deg-360) < threshold:
		return "red", 0xFF0000, true
	case math.Abs(deg-90) < threshold:
		return "blue", 0x0000FF, true
	case math.Abs(deg-180) < threshold:
		return "green", 0x22C55E, true
	case math.Abs(deg-270) < threshold:
		return "yellow", 0xFFFF00, true
	}
	return "black", 0x000000, true
}

func greyStripMarker(x, z float64) (string, uint32, bool) {
	if math.Abs(x) <= 1.25 && z <= 0 && z >= -15 {
		return "#64748b", 0x64748B, true
	}
	return "", 0, false
}

func finishStripMarker(x, z float64) (string, uint32, bool) {
	if math.Abs(x) <= 2.1 && z <= -17.25 && z >= -17.75 {
		return "red", 0xFF0000, true
	}
	return "", 0, false
}

// twoBoxMarker has a blue box at z in [-12.5, -9.5] and a red one at [-6.5, -3.5]
func twoBoxMarker(x, z float64) (string, uint32, bool) {
	if math.Abs(x) > 1.5 {
		return "", 0, false
	}
	switch {
	case z <= -9.5 && z >= -12.5:
		return "blue", 0x0000FF, true
	case z <= -3.5 && z >= -6.5:
		return "red", 0xFF0000, true
	}
	return "", 0, false
}
