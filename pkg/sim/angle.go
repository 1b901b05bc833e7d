package sim

import (
	"fmt"
	"math"
)

// Angle is an angle in radians normalized to [-π, π].
type Angle float64

// AngleFromDegrees creates an Angle from degrees.
func AngleFromDegrees(d float64) Angle {
	return AngleFromRadians(d * math.Pi / 180)
}

// AngleFromRadians creates an Angle from radians.
func AngleFromRadians(r float64) Angle {
	return Angle(math.Remainder(r, 2*math.Pi))
}

// Add returns the normalized sum.
func (a Angle) Add(b Angle) Angle {
	return AngleFromRadians(float64(a) + float64(b))
}

// AddDegrees adds d degrees.
func (a Angle) AddDegrees(d float64) Angle {
	return a.Add(AngleFromDegrees(d))
}

// Radians returns the angle in radians.
func (a Angle) Radians() float64 {
	return float64(a)
}

// Degrees returns the angle in degrees.
func (a Angle) Degrees() float64 {
	return float64(a) * 180 / math.Pi
}

// Sin wraps math.Sin.
func (a Angle) Sin() float64 { return math.Sin(float64(a)) }

// Cos wraps math.Cos.
func (a Angle) Cos() float64 { return math.Cos(float64(a)) }

// String implements fmt.Stringer.
func (a Angle) String() string {
	return fmt.Sprintf("%.2f°", a.Degrees())
}
