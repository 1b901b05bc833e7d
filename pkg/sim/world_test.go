package sim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAngle(t *testing.T) {
	testCases := []struct {
		name    string
		angle   Angle
		degrees float64
	}{
		{name: "zero", angle: AngleFromDegrees(0), degrees: 0},
		{name: "wraps positive", angle: AngleFromDegrees(270), degrees: -90},
		{name: "wraps negative", angle: AngleFromDegrees(-450), degrees: -90},
		{name: "add", angle: AngleFromDegrees(170).AddDegrees(20), degrees: -170},
		{name: "radians", angle: AngleFromRadians(3 * math.Pi / 2), degrees: -90},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.degrees, tc.angle.Degrees(), 1e-9)
		})
	}
	require.Equal(t, "45.00°", AngleFromDegrees(45).String())
}

func TestWorldAttitude(t *testing.T) {
	testCases := []struct {
		name             string
		roll, pitch, yaw float64
	}{
		{name: "level", roll: 0, pitch: 0, yaw: 0},
		{name: "yaw only", roll: 0, pitch: 0, yaw: 135},
		{name: "mixed", roll: 10, pitch: -20, yaw: -60},
		{name: "steep", roll: -80, pitch: 45, yaw: 170},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWorld()
			w.SetAttitude(AngleFromDegrees(tc.roll), AngleFromDegrees(tc.pitch), AngleFromDegrees(tc.yaw))
			roll, pitch, yaw := w.Attitude()
			require.InDelta(t, tc.roll, roll.Degrees(), 1e-9)
			require.InDelta(t, tc.pitch, pitch.Degrees(), 1e-9)
			require.InDelta(t, tc.yaw, yaw.Degrees(), 1e-9)
		})
	}
}

func TestWorldAdvance(t *testing.T) {
	w := NewWorld()
	w.SetRate(Vec3{0, 0, -0.5})
	for n := 0; n < 100; n++ {
		w.Advance(10 * time.Millisecond)
	}
	roll, pitch, yaw := w.Attitude()
	require.InDelta(t, 0, roll.Radians(), 1e-9)
	require.InDelta(t, 0, pitch.Radians(), 1e-9)
	require.InDelta(t, 0.5, yaw.Radians(), 1e-9)
	require.Equal(t, time.Second, w.Elapsed())

	w.SetRate(Vec3{})
	w.Advance(time.Second)
	_, _, yaw = w.Attitude()
	require.InDelta(t, 0.5, yaw.Radians(), 1e-9)
}

func TestWorldSensing(t *testing.T) {
	w := NewWorld()
	dip := AngleFromDegrees(DefaultDipDegrees)
	requireVec(t, Vec3{0, 0, StandardGravity}, w.Accel(), 1e-9)
	requireVec(t, Vec3{DefaultField * dip.Cos(), 0, DefaultField * dip.Sin()}, w.Mag(), 1e-15)

	// facing east, north is on the left
	w.SetAttitude(0, 0, AngleFromDegrees(90))
	requireVec(t, Vec3{0, 0, StandardGravity}, w.Accel(), 1e-9)
	requireVec(t, Vec3{0, -DefaultField * dip.Cos(), DefaultField * dip.Sin()}, w.Mag(), 1e-15)

	// rolled right by 90°, gravity along Y
	w.SetAttitude(AngleFromDegrees(90), 0, 0)
	requireVec(t, Vec3{0, StandardGravity, 0}, w.Accel(), 1e-9)
}

func requireVec(t *testing.T, expected, actual Vec3, delta float64) {
	for n := range expected {
		require.InDeltaf(t, expected[n], actual[n], delta, "axis %d", n)
	}
}
