package fusion

import (
	"errors"
	"math"

	"github.com/golang/glog"
)

// ErrNaN is returned when a sensor reading contains NaN.
var ErrNaN = errors.New("reading is NaN")

// DCM is a complementary filter fusing accelerometer, gyroscope and
// magnetometer readings into a direction cosine matrix. Rows 0, 1 and 2
// are the I (north), J (east) and K (down) axes of the earth frame as
// seen from the body.
//
// DCM is not safe for concurrent use.
type DCM struct {
	// Assert makes Update panic when the matrix degenerates instead of
	// resetting it to identity.
	Assert bool

	dcm    Matrix
	deltaT float32
	scaleA float32
	scaleG float32
	scaleM float32

	accel   Vector
	gyro    Vector
	magneto Vector

	resets int
}

// NewDCM creates a DCM updated every deltaT seconds. The three weights
// are expected to sum to 1.
func NewDCM(deltaT, scaleA, scaleG, scaleM float32) *DCM {
	d := &DCM{}
	d.Init(deltaT, scaleA, scaleG, scaleM)
	return d
}

// Init resets the matrix to identity and sets the filter parameters.
func (d *DCM) Init(deltaT, scaleA, scaleG, scaleM float32) {
	d.dcm = Identity
	d.deltaT = deltaT
	d.scaleA, d.scaleG, d.scaleM = scaleA, scaleG, scaleM
}

// AccelUpdate stores the latest accelerometer reading.
func (d *DCM) AccelUpdate(x, y, z float32) error {
	return store(&d.accel, x, y, z)
}

// GyroUpdate stores the latest gyroscope reading in rad/s.
func (d *DCM) GyroUpdate(x, y, z float32) error {
	return store(&d.gyro, x, y, z)
}

// MagnetoUpdate stores the latest magnetometer reading.
func (d *DCM) MagnetoUpdate(x, y, z float32) error {
	return store(&d.magneto, x, y, z)
}

// Start computes the initial attitude from the accelerometer and
// magnetometer readings alone.
func (d *DCM) Start() {
	i, j, k := d.basis()
	j = j.Scale(rsqrt(j.Dot(j)))
	d.dcm = Matrix{i, j, k}
}

// Update runs one filter step.
func (d *DCM) Update() {
	i, _, k := d.basis()
	rowI, rowK := d.dcm.Row(0), d.dcm.Row(2)

	delta := rowK.Cross(k).Scale(d.scaleA)
	delta = delta.Add(d.gyro.Scale(d.deltaT * d.scaleG))
	delta = delta.Add(rowI.Cross(i).Scale(d.scaleM))

	rowI = rowI.Add(delta.Cross(rowI))
	rowK = rowK.Add(delta.Cross(rowK))

	// pull I and K back to perpendicular, half the error each
	e := rowI.Dot(rowK) / -2
	i, k = rowI.Scale(e), rowK.Scale(e)
	rowI, rowK = rowI.Add(k), rowK.Add(i)

	rowI = rowI.Scale(0.5 * (3 - rowI.Dot(rowI)))
	rowK = rowK.Scale(0.5 * (3 - rowK.Dot(rowK)))

	d.dcm = Matrix{rowI, rowK.Cross(rowI), rowK}

	if d.dcm.hasNaN() {
		if d.Assert {
			panic("fusion: DCM degenerated to NaN")
		}
		d.resets++
		glog.Warningf("DCM degenerated (accel=%v mag=%v gyro=%v), reset to identity",
			d.accel, d.magneto, d.gyro)
		d.dcm = Identity
	}
}

// Matrix returns a copy of the current matrix.
func (d *DCM) Matrix() Matrix {
	return d.dcm
}

// Resets returns how many times Update reset a degenerate matrix.
func (d *DCM) Resets() int {
	return d.resets
}

// Eulers returns roll, pitch and yaw in radians.
func (d *DCM) Eulers() (roll, pitch, yaw float32) {
	m := &d.dcm
	roll = atan2(m[2][1], m[2][2])
	pitch = -float32(math.Asin(float64(m[2][0])))
	yaw = atan2(m[1][0], m[0][0])
	return
}

// Quaternion converts the matrix to a unit quaternion, deriving the
// components from the largest diagonal combination.
func (d *DCM) Quaternion() Quaternion {
	m := &d.dcm
	qs := 1 + m[0][0] + m[1][1] + m[2][2]
	qx := 1 + m[0][0] - m[1][1] - m[2][2]
	qy := 1 - m[0][0] + m[1][1] - m[2][2]
	qz := 1 - m[0][0] - m[1][1] + m[2][2]

	switch {
	case qs > qx && qs > qy && qs > qz:
		qs = sqrt(qs) / 2
		return Quaternion{
			qs,
			(m[2][1] - m[1][2]) / (4 * qs),
			(m[0][2] - m[2][0]) / (4 * qs),
			(m[1][0] - m[0][1]) / (4 * qs),
		}
	case qx > qy && qx > qz:
		qx = sqrt(qx) / 2
		return Quaternion{
			(m[2][1] - m[1][2]) / (4 * qx),
			qx,
			(m[1][0] + m[0][1]) / (4 * qx),
			(m[0][2] + m[2][0]) / (4 * qx),
		}
	case qy > qz:
		qy = sqrt(qy) / 2
		return Quaternion{
			(m[0][2] - m[2][0]) / (4 * qy),
			(m[1][0] + m[0][1]) / (4 * qy),
			qy,
			(m[2][1] + m[1][2]) / (4 * qy),
		}
	default:
		qz = sqrt(qz) / 2
		return Quaternion{
			(m[1][0] - m[0][1]) / (4 * qz),
			(m[0][2] + m[2][0]) / (4 * qz),
			(m[2][1] + m[1][2]) / (4 * qz),
			qz,
		}
	}
}

// basis derives north and down from the magnetometer and accelerometer,
// forcing north perpendicular to down. I and K are normalized, J is not.
func (d *DCM) basis() (i, j, k Vector) {
	i, k = d.magneto, d.accel
	j = k.Cross(i)
	i = j.Cross(k)
	i = i.Scale(rsqrt(i.Dot(i)))
	k = k.Scale(rsqrt(k.Dot(k)))
	return
}

func (m *Matrix) hasNaN() bool {
	for _, row := range m {
		for _, v := range row {
			if v != v {
				return true
			}
		}
	}
	return false
}

func store(v *Vector, x, y, z float32) error {
	if x != x || y != y || z != z {
		return ErrNaN
	}
	*v = Vector{x, y, z}
	return nil
}

func sqrt(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

func rsqrt(v float32) float32 {
	return 1 / sqrt(v)
}

func atan2(y, x float32) float32 {
	return float32(math.Atan2(float64(y), float64(x)))
}
