// Package cm3218 drives the Capella CM3218 ambient light sensor.
package cm3218

import (
	"github.com/robotalks/sensorlib.go/pkg/i2c"
	"github.com/robotalks/sensorlib.go/pkg/sensor"
)

// Address is the bus address with ADDR pulled low.
const Address = 0x48

// Registers, each 16 bits wide.
const (
	RegConfig        byte = 0x00
	RegHighThreshold byte = 0x01
	RegLowThreshold  byte = 0x02
	RegALSData       byte = 0x04
)

// CONFIG fields
const (
	ConfigSMMask uint16 = 0x1800
	ConfigITMask uint16 = 0x00C0
	ConfigITShift       = 6
	ConfigSD     uint16 = 0x0001
)

// Integration times.
const (
	IT05 uint8 = iota
	IT10
	IT20
	IT40
)

var sensitivity = [4]float32{0.02857, 0.01328, 0.00714, 0.003571}

// Resolution returns lux per count at integration time it.
func Resolution(it uint8) float32 {
	return sensitivity[it&3]
}

// CM3218 is the driver instance.
type CM3218 struct {
	sensor.Machine

	intTime    uint8
	newIntTime uint8
	data       [2]byte
	modify     *i2c.Modify
}

// New creates a driver for the device at addr.
func New(engine i2c.Engine, addr byte) *CM3218 {
	d := &CM3218{}
	d.Setup("cm3218", engine, addr, sensor.StepFunc(d.step))
	return d
}

// Init assumes the power-on integration time. It doesn't touch the bus
// and invokes cb before returning.
func (d *CM3218) Init(cb sensor.Callback) error {
	if !d.Idle() {
		return sensor.ErrBusy
	}
	d.intTime, d.newIntTime = IT10, IT10
	return d.Finish(cb)
}

// Read reads 16-bit registers starting at reg.
func (d *CM3218) Read(reg byte, data []uint16, cb sensor.Callback) error {
	return d.Read16BE(reg, data, cb)
}

// Write writes 16-bit registers starting at reg.
func (d *CM3218) Write(reg byte, data []uint16, cb sensor.Callback) error {
	return d.Write16BE(reg, data, func() {
		d.newIntTime = d.intTime
		if reg <= RegConfig && int(reg)+len(data) > int(RegConfig) {
			d.newIntTime = uint8((data[RegConfig-reg] & ConfigITMask) >> ConfigITShift)
		}
	}, cb)
}

// ReadModifyWrite updates a 16-bit register with (current & mask) | value.
func (d *CM3218) ReadModifyWrite(reg byte, mask, value uint16, cb sensor.Callback) error {
	return d.ReadModifyWrite16BE(reg, mask, value, &d.modify, cb)
}

// DataRead reads the ambient light counter.
func (d *CM3218) DataRead(cb sensor.Callback) error {
	return d.Start(sensor.StateUser, cb, func() error {
		return d.Engine.Read(d.Addr, []byte{RegALSData}, d.data[:], d)
	})
}

// IntegrationTime returns the integration time in effect.
func (d *CM3218) IntegrationTime() uint8 {
	return d.intTime
}

// VisibleRaw returns the last light counter. The device sends the low
// byte first.
func (d *CM3218) VisibleRaw() uint16 {
	return uint16(d.data[1])<<8 | uint16(d.data[0])
}

// Visible returns the last reading in lux.
func (d *CM3218) Visible() float32 {
	return float32(d.VisibleRaw()) * sensitivity[d.intTime&3]
}

func (d *CM3218) step(state sensor.State) (sensor.State, sensor.Submit) {
	switch state {
	case sensor.StateWrite:
		d.intTime = d.newIntTime
	case sensor.StateRMW:
		if d.modify != nil && d.modify.Reg == RegConfig {
			d.intTime = uint8((d.modify.Written & ConfigITMask) >> ConfigITShift)
		}
	}
	return sensor.StateIdle, nil
}
