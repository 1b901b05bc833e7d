package sim

import (
	"math"
	"sync"
	"time"

	fx "github.com/robotalks/sensorlib.go/pkg/framework"
)

// Physical defaults of a new World.
const (
	StandardGravity   = 9.80665
	DefaultField      = 50e-6
	DefaultDipDegrees = 60
)

// Vec3 is a vector in the body frame.
type Vec3 [3]float64

// World is the physical state sensed by the simulated board.
//
// Orientation is kept as a rotation matrix whose rows are the north, east
// and down axes seen from the body, the same layout fusion.DCM estimates.
// Rates follow the convention that matrix integrates: a rate ω turns
// every row r by dr/dt = ω × r.
type World struct {
	lock sync.RWMutex

	rows    [3]Vec3
	rate    Vec3
	gravity float64
	field   float64
	dip     Angle
	lux     float64
	ambient float64
	object  float64
	elapsed time.Duration
}

// NewWorld creates a level world facing north.
func NewWorld() *World {
	return &World{
		rows:    [3]Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		gravity: StandardGravity,
		field:   DefaultField,
		dip:     AngleFromDegrees(DefaultDipDegrees),
		lux:     320,
		ambient: 25,
		object:  30,
	}
}

// SetAttitude sets the orientation from Z-Y-X Euler angles.
func (w *World) SetAttitude(roll, pitch, yaw Angle) {
	sr, cr := roll.Sin(), roll.Cos()
	sp, cp := pitch.Sin(), pitch.Cos()
	sy, cy := yaw.Sin(), yaw.Cos()
	w.lock.Lock()
	w.rows = [3]Vec3{
		{cy * cp, cy*sp*sr - sy*cr, cy*sp*cr + sy*sr},
		{sy * cp, sy*sp*sr + cy*cr, sy*sp*cr - cy*sr},
		{-sp, cp * sr, cp * cr},
	}
	w.lock.Unlock()
}

// Attitude returns the orientation as Z-Y-X Euler angles.
func (w *World) Attitude() (roll, pitch, yaw Angle) {
	w.lock.RLock()
	m := w.rows
	w.lock.RUnlock()
	roll = AngleFromRadians(math.Atan2(m[2][1], m[2][2]))
	pitch = AngleFromRadians(-math.Asin(math.Max(-1, math.Min(1, m[2][0]))))
	yaw = AngleFromRadians(math.Atan2(m[1][0], m[0][0]))
	return
}

// SetRate sets the angular rate in rad/s.
func (w *World) SetRate(rate Vec3) {
	w.lock.Lock()
	w.rate = rate
	w.lock.Unlock()
}

// Rate returns the angular rate in rad/s.
func (w *World) Rate() Vec3 {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.rate
}

// Advance turns the orientation by the current rate over dt.
func (w *World) Advance(dt time.Duration) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.elapsed += dt
	rate := w.rate
	n := math.Sqrt(rate[0]*rate[0] + rate[1]*rate[1] + rate[2]*rate[2])
	angle := n * dt.Seconds()
	if n == 0 || angle == 0 {
		return
	}
	k := Vec3{rate[0] / n, rate[1] / n, rate[2] / n}
	s, c := math.Sin(angle), math.Cos(angle)
	for i, r := range w.rows {
		kxr := cross(k, r)
		kr := dot(k, r) * (1 - c)
		for j := range r {
			w.rows[i][j] = r[j]*c + kxr[j]*s + k[j]*kr
		}
	}
}

// Elapsed returns the simulated time advanced so far.
func (w *World) Elapsed() time.Duration {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.elapsed
}

// Accel returns the specific force along the body axes in m/s². A level
// body reads +g on Z.
func (w *World) Accel() Vec3 {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return scale(w.rows[2], w.gravity)
}

// Mag returns the earth field along the body axes in tesla.
func (w *World) Mag() Vec3 {
	w.lock.RLock()
	defer w.lock.RUnlock()
	north := scale(w.rows[0], w.field*w.dip.Cos())
	down := scale(w.rows[2], w.field*w.dip.Sin())
	return Vec3{north[0] + down[0], north[1] + down[1], north[2] + down[2]}
}

// SetField sets the earth field strength in tesla and its inclination.
func (w *World) SetField(strength float64, dip Angle) {
	w.lock.Lock()
	w.field, w.dip = strength, dip
	w.lock.Unlock()
}

// SetLight sets the illuminance in lux.
func (w *World) SetLight(lux float64) {
	w.lock.Lock()
	w.lux = lux
	w.lock.Unlock()
}

// Light returns the illuminance in lux.
func (w *World) Light() float64 {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.lux
}

// SetTemperatures sets the die and object temperatures in °C.
func (w *World) SetTemperatures(ambient, object float64) {
	w.lock.Lock()
	w.ambient, w.object = ambient, object
	w.lock.Unlock()
}

// Temperatures returns the die and object temperatures in °C.
func (w *World) Temperatures() (ambient, object float64) {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.ambient, w.object
}

// AddToLoop implements fx.LoopAdder. The world advances by the loop's
// wall clock at the actuation level.
func (w *World) AddToLoop(l *fx.Loop) {
	var last time.Time
	l.AddController(fx.PrLvAcuate, fx.ControlFunc(func(cc fx.ControlContext) error {
		now := cc.Time()
		if !last.IsZero() {
			w.Advance(now.Sub(last))
		}
		last = now
		return nil
	}))
}

func dot(a, b Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func scale(v Vec3, s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}
