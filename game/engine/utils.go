package engine

import "math"

// NormalizeAngle maps any heading into [0, 360)
func NormalizeAngle(angle float64) float64 {
	return math.Mod(math.Mod(angle, 360)+360, 360)
}

// AngleDifference returns the shortest signed rotation from b to a, in (-180, 180]
func AngleDifference(a, b float64) float64 {
	diff := NormalizeAngle(a - b)
	if diff > 180 {
		diff -= 360
	}
	return diff
}

// EuclideanDistance calculates the ground-plane distance between two points
func EuclideanDistance(x1, z1, x2, z2 float64) float64 {
	return math.Hypot(x2-x1, z2-z1)
}

// toLocal transforms a world point into an object's frame (translate, then rotate by -rotation)
func toLocal(px, pz, ox, oz, rotation float64) (float64, float64) {
	dx := px - ox
	dz := pz - oz
	c := math.Cos(-rotation)
	s := math.Sin(-rotation)
	return dx*c - dz*s, dx*s + dz*c
}

// toWorld converts a robot-local offset into world coordinates for a heading in degrees
func toWorld(x, z, rotation, lx, lz float64) (float64, float64) {
	rad := rotation * math.Pi / 180
	return x + (lx*math.Cos(rad) + lz*math.Sin(rad)),
		z + (-lx*math.Sin(rad) + lz*math.Cos(rad))
}

// forward projects a point a distance ahead along a heading in degrees
func forward(x, z, rotation, distance float64) (float64, float64) {
	rad := rotation * math.Pi / 180
	return x + math.Sin(rad)*distance, z + math.Cos(rad)*distance
}

// clampPower limits a motor power to the supported range
func clampPower(p float64) float64 {
	return math.Max(-MaxMotorPower, math.Min(MaxMotorPower, p))
}
