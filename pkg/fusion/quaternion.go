package fusion

import "math"

// Quaternion is stored as W, X, Y, Z.
type Quaternion [4]float32

// Component indices.
const (
	QW = iota
	QX
	QY
	QZ
)

// IdentityQuaternion represents no rotation.
var IdentityQuaternion = Quaternion{1, 0, 0, 0}

// QuaternionFromEuler builds a quaternion from Euler angles in degrees.
func QuaternionFromEuler(rollDeg, pitchDeg, yawDeg float32) Quaternion {
	const deg = math.Pi / 180
	roll := float64(rollDeg) * deg / 2
	pitch := float64(pitchDeg) * deg / 2
	yaw := float64(yawDeg) * deg / 2

	cy, sy := float32(math.Cos(yaw)), float32(math.Sin(yaw))
	cp, sp := float32(math.Cos(pitch)), float32(math.Sin(pitch))
	cr, sr := float32(math.Cos(roll)), float32(math.Sin(roll))

	return Quaternion{
		cy*cp*cr - sy*sp*sr,
		sy*sp*cr + cy*cp*sr,
		cy*sp*cr - sy*cp*sr,
		sy*cp*cr + cy*sp*sr,
	}
}

// SquaredNorm returns the sum of squares of all components, 1 for a unit
// quaternion.
func (q Quaternion) SquaredNorm() float32 {
	return q[QW]*q[QW] + q[QX]*q[QX] + q[QY]*q[QY] + q[QZ]*q[QZ]
}

// Inverse returns the conjugate divided by the squared norm.
func (q Quaternion) Inverse() Quaternion {
	n := q.SquaredNorm()
	return Quaternion{q[QW] / n, -q[QX] / n, -q[QY] / n, -q[QZ] / n}
}

// Mul returns the quaternion product of q and p.
func (q Quaternion) Mul(p Quaternion) Quaternion {
	return Quaternion{
		p[QW]*q[QW] - p[QX]*q[QX] - p[QY]*q[QY] - p[QZ]*q[QZ],
		p[QX]*q[QW] + p[QW]*q[QX] - p[QY]*q[QZ] + p[QZ]*q[QY],
		p[QW]*q[QY] + p[QX]*q[QZ] - p[QY]*q[QW] - p[QZ]*q[QX],
		p[QW]*q[QZ] - p[QX]*q[QY] - p[QY]*q[QX] + p[QZ]*q[QW],
	}
}

// QuaternionAngle returns the rotation angle in radians between q1 and q2.
func QuaternionAngle(q1, q2 Quaternion) float32 {
	w := float64(q2.Mul(q1.Inverse())[QW])
	// rounding can push |w| just past 1 for identical rotations
	w = math.Max(-1, math.Min(1, w))
	return float32(math.Acos(w) * 2)
}
