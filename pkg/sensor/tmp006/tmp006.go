// Package tmp006 drives the TI TMP006 infrared thermopile sensor.
package tmp006

import (
	"encoding/binary"
	"math"

	"github.com/robotalks/sensorlib.go/pkg/i2c"
	"github.com/robotalks/sensorlib.go/pkg/sensor"
)

// Address is the bus address with ADR0 and ADR1 at VCC and GND.
const Address = 0x41

// Registers, each 16 bits wide.
const (
	RegVObject  byte = 0x00
	RegTAmbient byte = 0x01
	RegConfig   byte = 0x02
	RegMfgID    byte = 0xFE
	RegDevID    byte = 0xFF
)

// Register values
const (
	ConfigReset    uint16 = 0x8000
	ConfigModeMask uint16 = 0x7000
	ConfigModeOn   uint16 = 0x7000
	ConfigCRMask   uint16 = 0x0E00
	ConfigEnDRDY   uint16 = 0x0100
	ConfigDRDY     uint16 = 0x0080

	MfgID uint16 = 0x5449
	DevID uint16 = 0x0067
)

// DefaultCalibrationFactor is the typical sensitivity S0 of the thermopile.
const DefaultCalibrationFactor = 6.40e-14

const (
	stateReadObject = sensor.StateUser + iota
	stateReadDone
)

const (
	tRef    = 298.15
	a1      = 1.75e-3
	a2      = -1.678e-5
	b0      = -2.94e-5
	b1      = -5.70e-7
	b2      = 4.63e-9
	c2      = 13.4
	vObjLSB = 156.25e-9
)

// TMP006 is the driver instance.
type TMP006 struct {
	sensor.Machine

	calibration float32
	data        [4]byte
	cmd         [3]byte
	modify      *i2c.Modify
}

// New creates a driver for the device at addr.
func New(engine i2c.Engine, addr byte) *TMP006 {
	d := &TMP006{calibration: DefaultCalibrationFactor}
	d.Setup("tmp006", engine, addr, sensor.StepFunc(d.step))
	return d
}

// Init resets the device.
func (d *TMP006) Init(cb sensor.Callback) error {
	return d.Start(sensor.StateInit, cb, func() error {
		d.cmd[0] = RegConfig
		binary.BigEndian.PutUint16(d.cmd[1:], ConfigReset)
		return d.Engine.Write(d.Addr, d.cmd[:], d)
	})
}

// Read reads 16-bit registers starting at reg.
func (d *TMP006) Read(reg byte, data []uint16, cb sensor.Callback) error {
	return d.Read16BE(reg, data, cb)
}

// Write writes 16-bit registers starting at reg.
func (d *TMP006) Write(reg byte, data []uint16, cb sensor.Callback) error {
	return d.Write16BE(reg, data, nil, cb)
}

// ReadModifyWrite updates a 16-bit register with (current & mask) | value.
func (d *TMP006) ReadModifyWrite(reg byte, mask, value uint16, cb sensor.Callback) error {
	return d.ReadModifyWrite16BE(reg, mask, value, &d.modify, cb)
}

// DataRead reads the die temperature and then the thermopile voltage.
func (d *TMP006) DataRead(cb sensor.Callback) error {
	return d.Start(stateReadObject, cb, func() error {
		return d.Engine.Read(d.Addr, []byte{RegTAmbient}, d.data[0:2], d)
	})
}

// CalibrationFactor returns the sensitivity used for object temperature.
func (d *TMP006) CalibrationFactor() float32 {
	return d.calibration
}

// SetCalibrationFactor replaces the sensitivity, e.g. after field
// calibration against a reference.
func (d *TMP006) SetCalibrationFactor(s float32) {
	d.calibration = s
}

// TemperatureRaw returns the last raw die and thermopile readings.
func (d *TMP006) TemperatureRaw() (ambient, object int16) {
	ambient = int16(uint16(d.data[0])<<8 | uint16(d.data[1]))
	object = int16(uint16(d.data[2])<<8 | uint16(d.data[3]))
	return
}

// Temperature returns the die and object temperatures in degrees Celsius.
func (d *TMP006) Temperature() (ambient, object float32) {
	rawAmb, rawObj := d.TemperatureRaw()
	ambient = float32(rawAmb/4) / 32
	return ambient, ObjectTemperature(ambient, rawObj, d.calibration)
}

// ObjectTemperature computes the object temperature from the die
// temperature, the raw thermopile voltage and the sensitivity s0.
func ObjectTemperature(ambient float32, vObject int16, s0 float32) float32 {
	tDie := float64(ambient) + tRef
	s, vos := coefficients(ambient, s0)
	vx := float64(vObject)*vObjLSB - vos
	f := vx + c2*vx*vx
	return float32(math.Sqrt(math.Sqrt(tDie*tDie*tDie*tDie+f/s)) - tRef)
}

// ObjectVoltage is the inverse of ObjectTemperature: the raw thermopile
// voltage the device reports for an object at object degrees Celsius.
func ObjectVoltage(ambient, object, s0 float32) int16 {
	tDie, tObj := float64(ambient)+tRef, float64(object)+tRef
	s, vos := coefficients(ambient, s0)
	f := s * (tObj*tObj*tObj*tObj - tDie*tDie*tDie*tDie)
	vx := (math.Sqrt(1+4*c2*f) - 1) / (2 * c2)
	raw := math.Round((vx + vos) / vObjLSB)
	return int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, raw)))
}

func coefficients(ambient, s0 float32) (s, vos float64) {
	amb := float64(ambient)
	s = float64(s0) * (1 + a1*amb + a2*amb*amb)
	vos = b0 + b1*amb + b2*amb*amb
	return
}

func (d *TMP006) step(state sensor.State) (sensor.State, sensor.Submit) {
	if state == stateReadObject {
		return stateReadDone, func() error {
			return d.Engine.Read(d.Addr, []byte{RegVObject}, d.data[2:4], d)
		}
	}
	return sensor.StateIdle, nil
}
