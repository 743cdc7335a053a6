package ui

import "math"

// Angle is a heading in radians, 0 pointing up the screen.
type Angle float32

// AngleFromDegrees creates Angle from degrees.
func AngleFromDegrees(d float32) Angle {
	return Angle(normalizeRadians(float64(d) * math.Pi / 180.0))
}

// AngleFromRadians creates Angle from radians.
func AngleFromRadians(r float32) Angle {
	return Angle(normalizeRadians(float64(r)))
}

// Radians gets angle in radians.
func (a Angle) Radians() float32 {
	return float32(a)
}

// Degrees gets angle in degrees.
func (a Angle) Degrees() float32 {
	return float32(a) * 180 / math.Pi
}

// Sin wraps math.Sin.
func (a Angle) Sin() float32 {
	return float32(math.Sin(float64(a)))
}

// Cos wraps math.Cos.
func (a Angle) Cos() float32 {
	return float32(math.Cos(float64(a)))
}

// Project projects length into screen offsets.
// The Y axis of the client points up, so the heading maps sin to X and cos to Y.
func (a Angle) Project(length float32) (dx, dy float32) {
	return a.Sin() * length, a.Cos() * length
}

func normalizeRadians(r float64) float64 {
	if r >= 2*math.Pi || r <= -2*math.Pi {
		r = math.Remainder(r, 2*math.Pi)
	}
	if r > math.Pi {
		r -= 2 * math.Pi
	} else if r < -math.Pi {
		r += 2 * math.Pi
	}
	return r
}
