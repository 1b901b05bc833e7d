// Package bmp180 drives the Bosch BMP180 barometric pressure sensor.
package bmp180

import (
	"encoding/binary"
	"errors"

	"github.com/golang/glog"

	"github.com/robotalks/sensorlib.go/pkg/i2c"
	"github.com/robotalks/sensorlib.go/pkg/sensor"
)

const (
	stateCalibration = sensor.StateUser + iota
	stateReqTemp
	stateWaitTemp
	stateReadTemp
	stateReqPres
	stateWaitPres
	stateReadPres
)

// ErrCalibration indicates the calibration data stayed invalid after
// MaxCalibrationAttempts reads.
var ErrCalibration = errors.New("bmp180: invalid calibration data")

// Calibration holds the factory calibration coefficients.
type Calibration struct {
	AC1, AC2, AC3 int16
	AC4, AC5, AC6 uint16
	B1, B2        int16
	MB, MC, MD    int16
}

// BMP180 is the driver instance.
type BMP180 struct {
	sensor.Machine

	// MaxCalibrationAttempts bounds how many times the calibration block
	// is read while it reads back as all zeros or all ones. Zero retries
	// until valid data arrives, waiting out the device's power-on reset.
	MaxCalibrationAttempts int

	cal     Calibration
	mode    byte
	newMode byte

	data     [5]byte
	status   [1]byte
	calBuf   [calibrationSize]byte
	attempts int
	cmd      [2]byte
	modify   *i2c.Modify
}

// New creates a driver for the device at addr.
func New(engine i2c.Engine, addr byte) *BMP180 {
	d := &BMP180{}
	d.Setup("bmp180", engine, addr, sensor.StepFunc(d.step))
	return d
}

// Init resets the device and reads its calibration coefficients.
func (d *BMP180) Init(cb sensor.Callback) error {
	return d.Start(sensor.StateInit, cb, func() error {
		d.mode, d.newMode, d.attempts = 0, 0, 0
		d.cmd = [2]byte{RegSoftReset, SoftResetValue}
		return d.Engine.Write(d.Addr, d.cmd[:], d)
	})
}

// Read reads len(data) registers starting at reg.
func (d *BMP180) Read(reg byte, data []byte, cb sensor.Callback) error {
	return d.Machine.Read(reg, data, cb)
}

// Write writes registers starting at reg. A write covering CtrlMeas
// changes the oversampling setting once it completes.
func (d *BMP180) Write(reg byte, data []byte, cb sensor.Callback) error {
	return d.Write8(reg, data, func() {
		d.newMode = d.mode
		if reg <= RegCtrlMeas && int(reg)+len(data) > int(RegCtrlMeas) {
			d.newMode = data[RegCtrlMeas-reg] & CtrlMeasOSSMask
		}
	}, cb)
}

// ReadModifyWrite updates a register with (current & mask) | value.
func (d *BMP180) ReadModifyWrite(reg, mask, value byte, cb sensor.Callback) error {
	return d.ReadModifyWrite8(reg, mask, value, &d.modify, cb)
}

// SetOversampling selects the pressure oversampling setting (OSS* constants).
func (d *BMP180) SetOversampling(oss byte, cb sensor.Callback) error {
	return d.ReadModifyWrite(RegCtrlMeas, ^CtrlMeasOSSMask, oss&CtrlMeasOSSMask, cb)
}

// DataRead measures temperature and then pressure.
func (d *BMP180) DataRead(cb sensor.Callback) error {
	return d.Start(stateReqTemp, cb, func() error {
		return d.writeCtrl(CtrlMeasSCO | CtrlMeasTemperature)
	})
}

// Mode returns the CtrlMeas oversampling bits currently in effect.
func (d *BMP180) Mode() byte {
	return d.mode
}

// Calibration returns the coefficients read during Init.
func (d *BMP180) Calibration() Calibration {
	return d.cal
}

func (d *BMP180) writeCtrl(val byte) error {
	d.cmd = [2]byte{RegCtrlMeas, val}
	return d.Engine.Write(d.Addr, d.cmd[:], d)
}

func (d *BMP180) readInto(reg byte, buf []byte) sensor.Submit {
	return func() error {
		return d.Engine.Read(d.Addr, []byte{reg}, buf, d)
	}
}

func (d *BMP180) step(state sensor.State) (sensor.State, sensor.Submit) {
	switch state {
	case sensor.StateInit:
		return stateCalibration, d.readInto(RegCalibration, d.calBuf[:])
	case stateCalibration:
		first := binary.BigEndian.Uint16(d.calBuf[:])
		if first == 0 || first == 0xffff {
			d.attempts++
			if max := d.MaxCalibrationAttempts; max > 0 && d.attempts >= max {
				return stateCalibration, func() error { return ErrCalibration }
			}
			glog.V(2).Infof("bmp180: calibration not ready (%04x), retry", first)
			return stateCalibration, d.readInto(RegCalibration, d.calBuf[:])
		}
		d.parseCalibration()
	case sensor.StateWrite:
		d.mode = d.newMode
	case sensor.StateRMW:
		if d.modify != nil && d.modify.Reg == RegCtrlMeas {
			d.mode = byte(d.modify.Written) & CtrlMeasOSSMask
		}
	case stateReqTemp:
		return stateWaitTemp, d.readInto(RegCtrlMeas, d.status[:])
	case stateWaitTemp:
		if d.status[0]&CtrlMeasSCO != 0 {
			return stateWaitTemp, d.readInto(RegCtrlMeas, d.status[:])
		}
		return stateReadTemp, d.readInto(RegOutMSB, d.data[0:2])
	case stateReadTemp:
		return stateReqPres, func() error {
			return d.writeCtrl(CtrlMeasSCO | CtrlMeasPressure | d.mode)
		}
	case stateReqPres:
		return stateWaitPres, d.readInto(RegCtrlMeas, d.status[:])
	case stateWaitPres:
		if d.status[0]&CtrlMeasSCO != 0 {
			return stateWaitPres, d.readInto(RegCtrlMeas, d.status[:])
		}
		return stateReadPres, d.readInto(RegOutMSB, d.data[2:5])
	}
	return sensor.StateIdle, nil
}

func (d *BMP180) parseCalibration() {
	word := func(n int) uint16 {
		return binary.BigEndian.Uint16(d.calBuf[n*2:])
	}
	d.cal = Calibration{
		AC1: int16(word(0)),
		AC2: int16(word(1)),
		AC3: int16(word(2)),
		AC4: word(3),
		AC5: word(4),
		AC6: word(5),
		B1:  int16(word(6)),
		B2:  int16(word(7)),
		MB:  int16(word(8)),
		MC:  int16(word(9)),
		MD:  int16(word(10)),
	}
}
