// Package lsm303dlhc drives the accelerometer and magnetometer halves of
// the ST LSM303DLHC. The two halves answer on separate bus addresses and
// are independent drivers.
package lsm303dlhc

import (
	"github.com/robotalks/sensorlib.go/pkg/i2c"
	"github.com/robotalks/sensorlib.go/pkg/sensor"
)

var accelSensitivity = [4]float32{0.00059875, 0.00119751, 0.00239502, 0.00479004}

// AccelSensitivity returns m/s² per LSB at full scale fs.
func AccelSensitivity(fs uint8) float32 {
	return accelSensitivity[fs&3]
}

const (
	stateInitFIFO = sensor.StateUser + iota
	stateAccelData
)

// Accel is the accelerometer driver.
type Accel struct {
	sensor.Machine

	fs     uint8
	newFS  uint8
	data   [6]byte
	ctrl   [7]byte
	fifo   [14]byte
	modify *i2c.Modify
}

// NewAccel creates an accelerometer driver for the device at addr.
func NewAccel(engine i2c.Engine, addr byte) *Accel {
	d := &Accel{}
	d.Setup("lsm303dlhc-accel", engine, addr, sensor.StepFunc(d.step))
	return d
}

// Init zeroes CTRL1 through CTRL6 and then FIFO_CTRL through CLICK_THS,
// leaving the device powered down at ±2 g.
func (d *Accel) Init(cb sensor.Callback) error {
	return d.Start(sensor.StateInit, cb, func() error {
		d.fs, d.newFS = FS2G, FS2G
		d.ctrl = [7]byte{RegCtrl1 | AutoIncrement}
		return d.Engine.Write(d.Addr, d.ctrl[:], d)
	})
}

// Read reads registers starting at reg.
func (d *Accel) Read(reg byte, data []byte, cb sensor.Callback) error {
	return d.Machine.Read(reg, data, cb)
}

// Write writes registers starting at reg. Set AutoIncrement in reg for
// multi-register writes.
func (d *Accel) Write(reg byte, data []byte, cb sensor.Callback) error {
	return d.Write8(reg, data, func() {
		d.newFS = d.fs
		base := reg &^ AutoIncrement
		if b, ok := covered(base, data, RegCtrl5); ok && b&Ctrl5Boot != 0 {
			d.newFS = FS2G
		}
		if b, ok := covered(base, data, RegCtrl4); ok {
			d.newFS = (b & Ctrl4FSMask) >> Ctrl4FSShift
		}
	}, cb)
}

// ReadModifyWrite updates a register with (current & mask) | value.
func (d *Accel) ReadModifyWrite(reg, mask, value byte, cb sensor.Callback) error {
	return d.ReadModifyWrite8(reg, mask, value, &d.modify, cb)
}

// DataRead reads all three axes in one burst.
func (d *Accel) DataRead(cb sensor.Callback) error {
	return d.Start(stateAccelData, cb, func() error {
		return d.Engine.Read(d.Addr, []byte{RegOutXL | AutoIncrement}, d.data[:], d)
	})
}

// FullScale returns the full scale range in effect.
func (d *Accel) FullScale() uint8 {
	return d.fs
}

// AccelRaw returns the last raw accelerations.
func (d *Accel) AccelRaw() (x, y, z int16) {
	x = int16(uint16(d.data[1])<<8 | uint16(d.data[0]))
	y = int16(uint16(d.data[3])<<8 | uint16(d.data[2]))
	z = int16(uint16(d.data[5])<<8 | uint16(d.data[4]))
	return
}

// Accel returns the last accelerations in m/s².
func (d *Accel) Accel() (x, y, z float32) {
	rx, ry, rz := d.AccelRaw()
	s := accelSensitivity[d.fs&3]
	return float32(rx) * s, float32(ry) * s, float32(rz) * s
}

func (d *Accel) step(state sensor.State) (sensor.State, sensor.Submit) {
	switch state {
	case sensor.StateInit:
		return stateInitFIFO, func() error {
			d.fifo = [14]byte{RegFIFOCtrl | AutoIncrement}
			return d.Engine.Write(d.Addr, d.fifo[:], d)
		}
	case sensor.StateWrite:
		d.fs = d.newFS
	case sensor.StateRMW:
		if d.modify != nil && d.modify.Reg&^AutoIncrement == RegCtrl4 {
			d.fs = (byte(d.modify.Written) & Ctrl4FSMask) >> Ctrl4FSShift
		}
	}
	return sensor.StateIdle, nil
}

func covered(base byte, data []byte, reg byte) (byte, bool) {
	if base <= reg && int(base)+len(data) > int(reg) {
		return data[reg-base], true
	}
	return 0, false
}
