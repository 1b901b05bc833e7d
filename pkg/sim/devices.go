package sim

import (
	"math"

	"github.com/robotalks/sensorlib.go/pkg/sensor/bmp180"
	"github.com/robotalks/sensorlib.go/pkg/sensor/cm3218"
	"github.com/robotalks/sensorlib.go/pkg/sensor/l3gd20h"
	"github.com/robotalks/sensorlib.go/pkg/sensor/lsm303dlhc"
	"github.com/robotalks/sensorlib.go/pkg/sensor/tmp006"
)

// DefaultBusyPolls is how many status reads a simulated conversion or
// reset stays in progress.
const DefaultBusyPolls = 2

// BMP180Calibration is the sample calibration from the BMP180 datasheet.
var BMP180Calibration = [22]byte{
	0x01, 0x98, 0xFF, 0xB8, 0xC7, 0xD1, 0x7F, 0xE5, 0x7F, 0xF5, 0x5A, 0x71,
	0x18, 0x2E, 0x00, 0x04, 0x80, 0x00, 0xDD, 0xF9, 0x0B, 0x34,
}

// Sample conversion results from the BMP180 datasheet, 15.0 °C and
// 69964 Pa with BMP180Calibration.
const (
	BMP180SampleUT uint16 = 27898
	BMP180SampleUP uint32 = 23843
)

// BMP180 simulates the barometer. Conversions report the datasheet
// sample values. The pressure output accumulates 2^oss samples, so the
// compensated result is the same at every oversampling setting.
type BMP180 struct {
	regFile
	// BusyPolls is how many CTRL_MEAS reads report SCO after a start.
	BusyPolls int
	busy      int
}

// NewBMP180 creates a simulated BMP180.
func NewBMP180() *BMP180 {
	d := &BMP180{BusyPolls: DefaultBusyPolls}
	copy(d.regs[bmp180.RegCalibration:], BMP180Calibration[:])
	d.regs[bmp180.RegID] = bmp180.ChipID
	d.load = d.loadReg
	d.store = d.storeReg
	return d
}

func (d *BMP180) loadReg(reg byte) byte {
	val := d.regs[reg]
	if reg == bmp180.RegCtrlMeas {
		if d.busy > 0 {
			d.busy--
			return val | bmp180.CtrlMeasSCO
		}
		return val &^ bmp180.CtrlMeasSCO
	}
	return val
}

func (d *BMP180) storeReg(reg, val byte) {
	switch reg {
	case bmp180.RegSoftReset:
		if val == bmp180.SoftResetValue {
			d.regs[bmp180.RegCtrlMeas], d.busy = 0, 0
		}
	case bmp180.RegCtrlMeas:
		if val&bmp180.CtrlMeasSCO == 0 {
			return
		}
		switch val &^ (bmp180.CtrlMeasOSSMask | bmp180.CtrlMeasSCO) {
		case bmp180.CtrlMeasTemperature:
			copy(d.regs[bmp180.RegOutMSB:], be16(BMP180SampleUT))
		case bmp180.CtrlMeasPressure:
			up := BMP180SampleUP << 8
			d.regs[bmp180.RegOutMSB] = byte(up >> 16)
			d.regs[bmp180.RegOutLSB] = byte(up >> 8)
			d.regs[bmp180.RegOutXLSB] = byte(up)
		default:
			return
		}
		d.busy = d.BusyPolls
	}
}

// CM3218 simulates the ambient light sensor.
type CM3218 struct {
	wordFile
	world  *World
	config uint16
	thresh [2]uint16
}

// NewCM3218 creates a simulated CM3218 sensing w.
func NewCM3218(w *World) *CM3218 {
	d := &CM3218{world: w, config: uint16(cm3218.IT10) << cm3218.ConfigITShift}
	d.load = d.loadReg
	d.store = d.storeReg
	return d
}

func (d *CM3218) loadReg(reg byte) []byte {
	switch reg {
	case cm3218.RegConfig:
		return be16(d.config)
	case cm3218.RegHighThreshold, cm3218.RegLowThreshold:
		return be16(d.thresh[reg-cm3218.RegHighThreshold])
	case cm3218.RegALSData:
		if d.config&cm3218.ConfigSD != 0 {
			return le16(0)
		}
		it := uint8((d.config & cm3218.ConfigITMask) >> cm3218.ConfigITShift)
		raw := d.world.Light() / float64(cm3218.Resolution(it))
		return le16(uint16(math.Min(raw, math.MaxUint16)))
	}
	return []byte{0, 0}
}

func (d *CM3218) storeReg(reg byte, val uint16) {
	switch reg {
	case cm3218.RegConfig:
		d.config = val
	case cm3218.RegHighThreshold, cm3218.RegLowThreshold:
		d.thresh[reg-cm3218.RegHighThreshold] = val
	}
}

// TMP006 simulates the infrared thermopile.
type TMP006 struct {
	wordFile
	world  *World
	config uint16
}

const tmp006DefaultConfig = tmp006.ConfigModeOn | 0x0400

// NewTMP006 creates a simulated TMP006 sensing w.
func NewTMP006(w *World) *TMP006 {
	d := &TMP006{world: w, config: tmp006DefaultConfig}
	d.load = d.loadReg
	d.store = d.storeReg
	return d
}

func (d *TMP006) loadReg(reg byte) []byte {
	ambient, object := d.world.Temperatures()
	switch reg {
	case tmp006.RegTAmbient:
		return be16(uint16(int16(math.Round(ambient*32)) << 2))
	case tmp006.RegVObject:
		raw := tmp006.ObjectVoltage(float32(ambient), float32(object), tmp006.DefaultCalibrationFactor)
		return be16(uint16(raw))
	case tmp006.RegConfig:
		cfg := d.config
		if cfg&tmp006.ConfigModeMask != 0 {
			cfg |= tmp006.ConfigDRDY
		}
		return be16(cfg)
	case tmp006.RegMfgID:
		return be16(tmp006.MfgID)
	case tmp006.RegDevID:
		return be16(tmp006.DevID)
	}
	return []byte{0, 0}
}

func (d *TMP006) storeReg(reg byte, val uint16) {
	if reg != tmp006.RegConfig {
		return
	}
	if val&tmp006.ConfigReset != 0 {
		d.config = tmp006DefaultConfig
		return
	}
	d.config = val &^ tmp006.ConfigDRDY
}

// L3GD20H simulates the gyroscope.
type L3GD20H struct {
	regFile
	world *World
	// ResetPolls is how many LOW_ODR reads report SW_RESET after a reset.
	ResetPolls int
	resetting  int
}

// NewL3GD20H creates a simulated L3GD20H sensing w.
func NewL3GD20H(w *World) *L3GD20H {
	d := &L3GD20H{world: w, ResetPolls: DefaultBusyPolls}
	d.incBit = l3gd20h.AutoIncrement
	d.reset()
	d.refresh = d.sample
	d.load = d.loadReg
	d.store = d.storeReg
	return d
}

func (d *L3GD20H) reset() {
	for reg := l3gd20h.RegCtrl1; reg <= l3gd20h.RegLowODR; reg++ {
		d.regs[reg] = 0
	}
	d.regs[l3gd20h.RegWhoAmI] = l3gd20h.WhoAmIValue
	d.regs[l3gd20h.RegCtrl1] = l3gd20h.Ctrl1AxesAll
}

func (d *L3GD20H) sample() {
	if d.regs[l3gd20h.RegCtrl1]&l3gd20h.Ctrl1PowerOn == 0 {
		return
	}
	fs := (d.regs[l3gd20h.RegCtrl4] & l3gd20h.Ctrl4FSMask) >> l3gd20h.Ctrl4FSShift
	rate := d.world.Rate()
	for n, v := range rate {
		copy(d.regs[l3gd20h.RegOutXL+byte(n*2):], le16(uint16(counts(v, l3gd20h.Sensitivity(fs)))))
	}
	d.regs[l3gd20h.RegStatus] = 0x0F
}

func (d *L3GD20H) loadReg(reg byte) byte {
	if reg == l3gd20h.RegLowODR && d.resetting > 0 {
		d.resetting--
		return d.regs[reg] | l3gd20h.LowODRSWReset
	}
	return d.regs[reg]
}

func (d *L3GD20H) storeReg(reg, val byte) {
	if reg == l3gd20h.RegLowODR && val&l3gd20h.LowODRSWReset != 0 {
		d.reset()
		d.resetting = d.ResetPolls
	}
}

// LSM303Accel simulates the accelerometer half of the LSM303DLHC.
type LSM303Accel struct {
	regFile
	world *World
}

// NewLSM303Accel creates a simulated accelerometer sensing w.
func NewLSM303Accel(w *World) *LSM303Accel {
	d := &LSM303Accel{world: w}
	d.incBit = lsm303dlhc.AutoIncrement
	d.reset()
	d.refresh = d.sample
	d.store = d.storeReg
	return d
}

func (d *LSM303Accel) reset() {
	for reg := range d.regs {
		d.regs[reg] = 0
	}
	d.regs[lsm303dlhc.RegCtrl1] = lsm303dlhc.Ctrl1AxesAll
}

func (d *LSM303Accel) sample() {
	if d.regs[lsm303dlhc.RegCtrl1]&0xF0 == 0 {
		return
	}
	fs := (d.regs[lsm303dlhc.RegCtrl4] & lsm303dlhc.Ctrl4FSMask) >> lsm303dlhc.Ctrl4FSShift
	for n, v := range d.world.Accel() {
		copy(d.regs[lsm303dlhc.RegOutXL+byte(n*2):], le16(uint16(counts(v, lsm303dlhc.AccelSensitivity(fs)))))
	}
	d.regs[lsm303dlhc.RegStatus] = 0x0F
}

func (d *LSM303Accel) storeReg(reg, val byte) {
	if reg == lsm303dlhc.RegCtrl5 && val&lsm303dlhc.Ctrl5Boot != 0 {
		d.reset()
	}
}

// LSM303Mag simulates the magnetometer half of the LSM303DLHC.
type LSM303Mag struct {
	regFile
	world *World
}

// NewLSM303Mag creates a simulated magnetometer sensing w. It powers up
// in sleep mode.
func NewLSM303Mag(w *World) *LSM303Mag {
	d := &LSM303Mag{world: w}
	d.regs[lsm303dlhc.RegCRA] = lsm303dlhc.CRAODR15Hz
	d.regs[lsm303dlhc.RegCRB] = lsm303dlhc.Gain1p3 << lsm303dlhc.CRBGainShift
	d.regs[lsm303dlhc.RegMR] = lsm303dlhc.MRSleep
	copy(d.regs[lsm303dlhc.RegIRA:], lsm303dlhc.MagIdentity)
	d.refresh = d.sample
	return d
}

func (d *LSM303Mag) sample() {
	mode := d.regs[lsm303dlhc.RegMR] & 0x03
	if mode != lsm303dlhc.MRContinuous && mode != lsm303dlhc.MRSingle {
		return
	}
	gain := (d.regs[lsm303dlhc.RegCRB] & lsm303dlhc.CRBGainMask) >> lsm303dlhc.CRBGainShift
	m := d.world.Mag()
	// output registers hold X, Z, Y
	for n, v := range []float64{m[0], m[2], m[1]} {
		copy(d.regs[lsm303dlhc.RegOutXH+byte(n*2):], be16(uint16(counts(v, lsm303dlhc.MagSensitivity(gain)))))
	}
	d.regs[lsm303dlhc.RegSR] = 0x01
	if mode == lsm303dlhc.MRSingle {
		d.regs[lsm303dlhc.RegMR] = lsm303dlhc.MRSleep
	}
}
