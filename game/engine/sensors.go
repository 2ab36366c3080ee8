package engine

import "math"

// ReadSensors computes every sensor for a pose. It holds no state: the same
// pose and environment always produce the same snapshot.
func ReadSensors(x, z, rotation float64, env *Environment, height HeightFunc) SensorSnapshot {
	if height == nil {
		height = func(float64, float64) float64 { return 0 }
	}
	var walls []WallRect
	if env != nil {
		walls = env.Walls
	}

	lwx, lwz := toWorld(x, z, rotation, -WheelOffsetX, WheelOffsetZ)
	rwx, rwz := toWorld(x, z, rotation, WheelOffsetX, WheelOffsetZ)
	bcx, bcz := toWorld(x, z, rotation, 0, CasterOffsetZ)

	hLeft := height(lwx, lwz)
	hRight := height(rwx, rwz)
	hBack := height(bcx, bcz)

	frontAvg := (hLeft + hRight) / 2
	tilt := math.Atan2(frontAvg-hBack, TiltBase) * 180 / math.Pi
	roll := math.Atan2(hLeft-hRight, WheelOffsetX*2) * 180 / math.Pi

	cx, cz := forward(x, z, rotation, ColorOffset)
	name, hex := ClassifyColor(env, cx, cz)

	return SensorSnapshot{
		Gyro:        gyroReading(rotation),
		Tilt:        tilt,
		Roll:        roll,
		GroundY:     (hLeft + hRight + hBack) / 3,
		Touching:    TouchingAt(x, z, rotation, walls),
		PhysicalHit: PhysicalHitAt(x, z, rotation, walls),
		Distance:    RangeAt(x, z, rotation, walls),
		Color:       name,
		ColorHex:    hex,
		SensorX:     cx,
		SensorZ:     cz,
	}
}

// gyroReading is the heading rounded to whole degrees in [0, 360)
func gyroReading(rotation float64) float64 {
	return NormalizeAngle(math.Round(NormalizeAngle(rotation)))
}
