package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sensorlib.go/pkg/i2c"
	"github.com/robotalks/sensorlib.go/pkg/i2c/host"
	"github.com/robotalks/sensorlib.go/pkg/sensor"
	"github.com/robotalks/sensorlib.go/pkg/sensor/bmp180"
	"github.com/robotalks/sensorlib.go/pkg/sensor/cm3218"
	"github.com/robotalks/sensorlib.go/pkg/sensor/l3gd20h"
	"github.com/robotalks/sensorlib.go/pkg/sensor/lsm303dlhc"
	"github.com/robotalks/sensorlib.go/pkg/sensor/tmp006"
)

func startBoard(t *testing.T, w *World) *host.Engine {
	e := host.NewEngine(NewBoard(w))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go e.Run(ctx)
	return e
}

func wait(t *testing.T, start func(sensor.Callback) error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sensor.Wait(ctx, start))
}

func TestBoardBMP180(t *testing.T) {
	e := startBoard(t, NewWorld())
	d := bmp180.New(e, bmp180.Address)
	wait(t, d.Init)
	var id [1]byte
	wait(t, func(cb sensor.Callback) error { return d.Read(bmp180.RegID, id[:], cb) })
	require.Equal(t, bmp180.ChipID, id[0])

	for _, oss := range []byte{bmp180.OSSSingle, bmp180.OSS8Times} {
		wait(t, func(cb sensor.Callback) error { return d.SetOversampling(oss, cb) })
		require.Equal(t, oss, d.Mode())
		wait(t, d.DataRead)
		require.Equal(t, BMP180SampleUT, d.TemperatureRaw())
		require.InDelta(t, 15.0, d.Temperature(), 0.01)
		require.InDelta(t, 69964, d.Pressure(), 2)
	}
}

func TestBoardCM3218(t *testing.T) {
	w := NewWorld()
	w.SetLight(100)
	e := startBoard(t, w)
	d := cm3218.New(e, cm3218.Address)
	wait(t, d.Init)
	wait(t, d.DataRead)
	require.InDelta(t, 100, d.Visible(), float64(cm3218.Resolution(cm3218.IT10)))

	config := uint16(cm3218.IT40) << cm3218.ConfigITShift
	wait(t, func(cb sensor.Callback) error { return d.Write(cm3218.RegConfig, []uint16{config}, cb) })
	require.Equal(t, cm3218.IT40, d.IntegrationTime())
	wait(t, d.DataRead)
	require.InDelta(t, 100, d.Visible(), float64(cm3218.Resolution(cm3218.IT40)))
}

func TestBoardTMP006(t *testing.T) {
	w := NewWorld()
	w.SetTemperatures(21.5, 36.6)
	e := startBoard(t, w)
	d := tmp006.New(e, tmp006.Address)
	wait(t, d.Init)
	ids := make([]uint16, 2)
	wait(t, func(cb sensor.Callback) error { return d.Read(tmp006.RegMfgID, ids, cb) })
	require.Equal(t, []uint16{tmp006.MfgID, tmp006.DevID}, ids)
	wait(t, d.DataRead)
	ambient, object := d.Temperature()
	require.InDelta(t, 21.5, ambient, 1.0/32)
	require.InDelta(t, 36.6, object, 0.1)
}

func TestBoardL3GD20H(t *testing.T) {
	w := NewWorld()
	w.SetRate(Vec3{0.1, -0.2, 0.3})
	e := startBoard(t, w)
	d := l3gd20h.New(e, l3gd20h.Address)
	wait(t, d.Init)
	var id [1]byte
	wait(t, func(cb sensor.Callback) error { return d.Read(l3gd20h.RegWhoAmI, id[:], cb) })
	require.Equal(t, l3gd20h.WhoAmIValue, id[0])

	wait(t, func(cb sensor.Callback) error {
		return d.Write(l3gd20h.RegCtrl1, []byte{l3gd20h.Ctrl1PowerOn | l3gd20h.Ctrl1AxesAll}, cb)
	})
	wait(t, d.DataRead)
	x, y, z := d.Gyro()
	lsb := float64(l3gd20h.Sensitivity(l3gd20h.FS245DPS))
	require.InDelta(t, 0.1, x, lsb)
	require.InDelta(t, -0.2, y, lsb)
	require.InDelta(t, 0.3, z, lsb)
}

func TestBoardLSM303(t *testing.T) {
	w := NewWorld()
	w.SetAttitude(AngleFromDegrees(20), AngleFromDegrees(-10), AngleFromDegrees(45))
	e := startBoard(t, w)

	accel := lsm303dlhc.NewAccel(e, lsm303dlhc.AccelAddress)
	wait(t, accel.Init)
	wait(t, func(cb sensor.Callback) error {
		return accel.Write(lsm303dlhc.RegCtrl1, []byte{lsm303dlhc.Ctrl1ODR100Hz | lsm303dlhc.Ctrl1AxesAll}, cb)
	})
	wait(t, accel.DataRead)
	ax, ay, az := accel.Accel()
	expected := w.Accel()
	lsb := float64(lsm303dlhc.AccelSensitivity(lsm303dlhc.FS2G))
	require.InDelta(t, expected[0], ax, lsb)
	require.InDelta(t, expected[1], ay, lsb)
	require.InDelta(t, expected[2], az, lsb)

	mag := lsm303dlhc.NewMag(e, lsm303dlhc.MagAddress)
	wait(t, mag.Init)
	wait(t, func(cb sensor.Callback) error {
		return mag.Write(lsm303dlhc.RegMR, []byte{lsm303dlhc.MRContinuous}, cb)
	})
	wait(t, mag.DataRead)
	mx, my, mz := mag.Mag()
	field := w.Mag()
	lsb = float64(lsm303dlhc.MagSensitivity(lsm303dlhc.Gain1p3))
	require.InDelta(t, field[0], mx, lsb)
	require.InDelta(t, field[1], my, lsb)
	require.InDelta(t, field[2], mz, lsb)

	ident := make([]byte, 3)
	wait(t, func(cb sensor.Callback) error { return mag.Read(lsm303dlhc.RegIRA, ident, cb) })
	require.Equal(t, lsm303dlhc.MagIdentity, string(ident))
}

func TestBoardNoDevice(t *testing.T) {
	e := startBoard(t, NewWorld())
	ch := make(chan i2c.Status, 1)
	require.NoError(t, e.Write(0x10, []byte{0}, i2c.CompleteFunc(func(s i2c.Status) { ch <- s })))
	require.Equal(t, i2c.StatusAddrNack, <-ch)
}
