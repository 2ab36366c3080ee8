package engine

import "math"

// BlockedAt is the point-in-any-wall test; wall edges count as blocked
func BlockedAt(x, z float64, walls []WallRect) bool {
	for _, w := range walls {
		if x >= w.MinX && x <= w.MaxX && z >= w.MinZ && z <= w.MaxZ {
			return true
		}
	}
	return false
}

// TouchingAt checks the touch sensor tip 1.7 units ahead of the robot
func TouchingAt(x, z, rotation float64, walls []WallRect) bool {
	tx, tz := forward(x, z, rotation, TouchOffset)
	return BlockedAt(tx, tz, walls)
}

// PhysicalHitAt checks the bumper point 1.5 units ahead of the robot.
// It is deliberately a separate geometry from the touch probe.
func PhysicalHitAt(x, z, rotation float64, walls []WallRect) bool {
	px, pz := forward(x, z, rotation, PhysicalOffset)
	return BlockedAt(px, pz, walls)
}

// RangeAt sweeps forward from the touch tip and returns the distance to the
// first wall in sensor units, or NoDetection when nothing is within range.
func RangeAt(x, z, rotation float64, walls []WallRect) float64 {
	if len(walls) == 0 {
		return NoDetection
	}
	steps := int(math.Ceil(RangeMax / RangeStep))
	for i := 0; i < steps; i++ {
		d := float64(i) * RangeStep
		px, pz := forward(x, z, rotation, TouchOffset+d)
		if BlockedAt(px, pz, walls) {
			return math.Round(d * RangeUnitScale)
		}
	}
	return NoDetection
}
