// Package l3gd20h drives the ST L3GD20H three-axis gyroscope.
package l3gd20h

import (
	"github.com/robotalks/sensorlib.go/pkg/i2c"
	"github.com/robotalks/sensorlib.go/pkg/sensor"
)

// Address is the bus address with SA0 pulled low.
const Address = 0x6A

// Registers
const (
	RegWhoAmI byte = 0x0F
	RegCtrl1  byte = 0x20
	RegCtrl2  byte = 0x21
	RegCtrl3  byte = 0x22
	RegCtrl4  byte = 0x23
	RegCtrl5  byte = 0x24
	RegStatus byte = 0x27
	RegOutXL  byte = 0x28
	RegLowODR byte = 0x39

	// AutoIncrement is ORed into a register address for burst access.
	AutoIncrement byte = 0x80
)

// Register values
const (
	WhoAmIValue byte = 0xD7

	Ctrl1PowerOn byte = 0x08
	Ctrl1AxesAll byte = 0x07

	Ctrl4FSMask  byte = 0x30
	Ctrl4FSShift      = 4

	LowODRSWReset byte = 0x04
)

// Full scale ranges.
const (
	FS245DPS uint8 = iota
	FS500DPS
	FS2000DPS
)

// Datasheet sensitivities 8.75, 17.5 and 70 mdps/LSB in rad/s.
var sensitivity = [4]float32{1.5271631e-4, 3.0543262e-4, 1.2217305e-3, 1.2217305e-3}

// Sensitivity returns rad/s per LSB at full scale fs.
func Sensitivity(fs uint8) float32 {
	return sensitivity[fs&3]
}

const (
	stateResetPoll = sensor.StateUser + iota
	stateData
)

// L3GD20H is the driver instance.
type L3GD20H struct {
	sensor.Machine

	fs    uint8
	newFS uint8
	data  [7]byte
	poll  [1]byte
	cmd   [2]byte

	modify *i2c.Modify
}

// New creates a driver for the device at addr.
func New(engine i2c.Engine, addr byte) *L3GD20H {
	d := &L3GD20H{}
	d.Setup("l3gd20h", engine, addr, sensor.StepFunc(d.step))
	return d
}

// Init issues a software reset and waits for the device to clear the
// reset bit.
func (d *L3GD20H) Init(cb sensor.Callback) error {
	return d.Start(sensor.StateInit, cb, func() error {
		d.fs, d.newFS = FS245DPS, FS245DPS
		d.cmd = [2]byte{RegLowODR, LowODRSWReset}
		return d.Engine.Write(d.Addr, d.cmd[:], d)
	})
}

// Read reads registers starting at reg.
func (d *L3GD20H) Read(reg byte, data []byte, cb sensor.Callback) error {
	return d.Machine.Read(reg, data, cb)
}

// Write writes registers starting at reg. Set AutoIncrement in reg for
// multi-register writes.
func (d *L3GD20H) Write(reg byte, data []byte, cb sensor.Callback) error {
	return d.Write8(reg, data, func() {
		d.newFS = d.fs
		base := reg &^ AutoIncrement
		if b, ok := covered(base, data, RegLowODR); ok && b&LowODRSWReset != 0 {
			d.newFS = FS245DPS
		}
		if b, ok := covered(base, data, RegCtrl4); ok {
			d.newFS = (b & Ctrl4FSMask) >> Ctrl4FSShift
		}
	}, cb)
}

// ReadModifyWrite updates a register with (current & mask) | value.
func (d *L3GD20H) ReadModifyWrite(reg, mask, value byte, cb sensor.Callback) error {
	return d.ReadModifyWrite8(reg, mask, value, &d.modify, cb)
}

// DataRead reads the status register and all three axes in one burst.
func (d *L3GD20H) DataRead(cb sensor.Callback) error {
	return d.Start(stateData, cb, func() error {
		return d.Engine.Read(d.Addr, []byte{RegStatus | AutoIncrement}, d.data[:], d)
	})
}

// FullScale returns the full scale range in effect.
func (d *L3GD20H) FullScale() uint8 {
	return d.fs
}

// Status returns the STATUS register from the last data read.
func (d *L3GD20H) Status() byte {
	return d.data[0]
}

// GyroRaw returns the last raw angular rates.
func (d *L3GD20H) GyroRaw() (x, y, z int16) {
	x = int16(uint16(d.data[2])<<8 | uint16(d.data[1]))
	y = int16(uint16(d.data[4])<<8 | uint16(d.data[3]))
	z = int16(uint16(d.data[6])<<8 | uint16(d.data[5]))
	return
}

// Gyro returns the last angular rates in rad/s.
func (d *L3GD20H) Gyro() (x, y, z float32) {
	rx, ry, rz := d.GyroRaw()
	s := sensitivity[d.fs&3]
	return float32(rx) * s, float32(ry) * s, float32(rz) * s
}

func (d *L3GD20H) step(state sensor.State) (sensor.State, sensor.Submit) {
	switch state {
	case sensor.StateInit, stateResetPoll:
		if state == sensor.StateInit || d.poll[0]&LowODRSWReset != 0 {
			return stateResetPoll, func() error {
				return d.Engine.Read(d.Addr, []byte{RegLowODR}, d.poll[:], d)
			}
		}
	case sensor.StateWrite:
		d.fs = d.newFS
	case sensor.StateRMW:
		if d.modify == nil {
			break
		}
		switch d.modify.Reg &^ AutoIncrement {
		case RegLowODR:
			if byte(d.modify.Written)&LowODRSWReset != 0 {
				d.fs = FS245DPS
			}
		case RegCtrl4:
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
