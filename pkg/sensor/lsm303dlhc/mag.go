package lsm303dlhc

import (
	"github.com/robotalks/sensorlib.go/pkg/i2c"
	"github.com/robotalks/sensorlib.go/pkg/sensor"
)

// Tesla per LSB, indexed by gain.
var magSensitivity = [8]float32{0, 9.09e-8, 1.17e-7, 1.49e-7, 2.22e-7, 2.50e-7, 3.03e-7, 4.35e-7}

// MagSensitivity returns tesla per LSB at gain.
func MagSensitivity(gain uint8) float32 {
	return magSensitivity[gain&7]
}

const stateMagData = sensor.StateUser

// Mag is the magnetometer driver.
type Mag struct {
	sensor.Machine

	gain    uint8
	newGain uint8
	data    [6]byte
	modify  *i2c.Modify
}

// NewMag creates a magnetometer driver for the device at addr.
func NewMag(engine i2c.Engine, addr byte) *Mag {
	d := &Mag{}
	d.Setup("lsm303dlhc-mag", engine, addr, sensor.StepFunc(d.step))
	return d
}

// Init assumes the power-on gain of ±1.3 gauss. It doesn't touch the bus
// and invokes cb before returning.
func (d *Mag) Init(cb sensor.Callback) error {
	if !d.Idle() {
		return sensor.ErrBusy
	}
	d.gain = Gain1p3
	return d.Finish(cb)
}

// Read reads registers starting at reg.
func (d *Mag) Read(reg byte, data []byte, cb sensor.Callback) error {
	return d.Machine.Read(reg, data, cb)
}

// Write writes registers starting at reg.
func (d *Mag) Write(reg byte, data []byte, cb sensor.Callback) error {
	return d.Write8(reg, data, func() {
		d.newGain = d.gain
		if b, ok := covered(reg, data, RegCRB); ok {
			d.newGain = (b & CRBGainMask) >> CRBGainShift
		}
	}, cb)
}

// ReadModifyWrite updates a register with (current & mask) | value.
func (d *Mag) ReadModifyWrite(reg, mask, value byte, cb sensor.Callback) error {
	return d.ReadModifyWrite8(reg, mask, value, &d.modify, cb)
}

// DataRead reads all three axes in one burst.
func (d *Mag) DataRead(cb sensor.Callback) error {
	return d.Start(stateMagData, cb, func() error {
		return d.Engine.Read(d.Addr, []byte{RegOutXH}, d.data[:], d)
	})
}

// Gain returns the gain setting in effect.
func (d *Mag) Gain() uint8 {
	return d.gain
}

// MagRaw returns the last raw field strengths. The device sends the high
// byte first and the axes in X, Z, Y order.
func (d *Mag) MagRaw() (x, y, z int16) {
	x = int16(uint16(d.data[0])<<8 | uint16(d.data[1]))
	z = int16(uint16(d.data[2])<<8 | uint16(d.data[3]))
	y = int16(uint16(d.data[4])<<8 | uint16(d.data[5]))
	return
}

// Mag returns the last field strengths in tesla.
func (d *Mag) Mag() (x, y, z float32) {
	rx, ry, rz := d.MagRaw()
	s := magSensitivity[d.gain&7]
	return float32(rx) * s, float32(ry) * s, float32(rz) * s
}

func (d *Mag) step(state sensor.State) (sensor.State, sensor.Submit) {
	switch state {
	case sensor.StateWrite:
		d.gain = d.newGain
	case sensor.StateRMW:
		if d.modify != nil && d.modify.Reg == RegCRB {
			d.gain = (byte(d.modify.Written) & CRBGainMask) >> CRBGainShift
		}
	}
	return sensor.StateIdle, nil
}
