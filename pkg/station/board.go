package station

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	fx "github.com/robotalks/sensorlib.go/pkg/framework"
	"github.com/robotalks/sensorlib.go/pkg/i2c"
	"github.com/robotalks/sensorlib.go/pkg/sensor"
	"github.com/robotalks/sensorlib.go/pkg/sensor/bmp180"
	"github.com/robotalks/sensorlib.go/pkg/sensor/cm3218"
	"github.com/robotalks/sensorlib.go/pkg/sensor/l3gd20h"
	"github.com/robotalks/sensorlib.go/pkg/sensor/lsm303dlhc"
	"github.com/robotalks/sensorlib.go/pkg/sensor/tmp006"
)

// Sensor names on the board.
const (
	Barometer  = "bmp180"
	Light      = "cm3218"
	Thermopile = "tmp006"
	Gyro       = "l3gd20h"
	Accel      = "lsm303-accel"
	Mag        = "lsm303-mag"
)

// Driver is the part of a sensor driver the station uses.
type Driver interface {
	Init(sensor.Callback) error
	DataRead(sensor.Callback) error
	Idle() bool
}

// Registers8 is implemented by drivers of devices with 8-bit registers.
type Registers8 interface {
	Read(reg byte, data []byte, cb sensor.Callback) error
	Write(reg byte, data []byte, cb sensor.Callback) error
	ReadModifyWrite(reg, mask, value byte, cb sensor.Callback) error
}

// Registers16 is implemented by drivers of devices with 16-bit registers.
type Registers16 interface {
	Read(reg byte, data []uint16, cb sensor.Callback) error
	Write(reg byte, data []uint16, cb sensor.Callback) error
	ReadModifyWrite(reg byte, mask, value uint16, cb sensor.Callback) error
}

type probe struct {
	name   string
	driver Driver
	// setup configures the device after Init.
	setup func(sensor.Callback) error
	// values snapshots the last data read.
	values func() [3]float32

	ready   bool
	pending bool
}

// Board is the set of sensors sharing one engine.
type Board struct {
	Barometer  *bmp180.BMP180
	Light      *cm3218.CM3218
	Thermopile *tmp006.TMP006
	Gyro       *l3gd20h.L3GD20H
	Accel      *lsm303dlhc.Accel
	Mag        *lsm303dlhc.Mag

	// Oversampling is the barometer oversampling applied by Init, one
	// of the bmp180.OSS values.
	Oversampling byte

	probes []*probe
}

// NewBoard creates drivers for all sensors at their default addresses.
func NewBoard(engine i2c.Engine) *Board {
	b := &Board{
		Barometer:    bmp180.New(engine, bmp180.Address),
		Light:        cm3218.New(engine, cm3218.Address),
		Thermopile:   tmp006.New(engine, tmp006.Address),
		Gyro:         l3gd20h.New(engine, l3gd20h.Address),
		Accel:        lsm303dlhc.NewAccel(engine, lsm303dlhc.AccelAddress),
		Mag:          lsm303dlhc.NewMag(engine, lsm303dlhc.MagAddress),
		Oversampling: bmp180.OSS4Times,
	}
	b.probes = []*probe{
		{
			name:   Barometer,
			driver: b.Barometer,
			setup: func(cb sensor.Callback) error {
				return b.Barometer.SetOversampling(b.Oversampling, cb)
			},
			values: func() [3]float32 {
				return [3]float32{b.Barometer.Temperature(), b.Barometer.Pressure()}
			},
		},
		{
			name:   Light,
			driver: b.Light,
			setup: func(cb sensor.Callback) error {
				return b.Light.ReadModifyWrite(cm3218.RegConfig, ^cm3218.ConfigSD, 0, cb)
			},
			values: func() [3]float32 {
				return [3]float32{b.Light.Visible()}
			},
		},
		{
			name:   Thermopile,
			driver: b.Thermopile,
			setup: func(cb sensor.Callback) error {
				return b.Thermopile.ReadModifyWrite(tmp006.RegConfig, ^tmp006.ConfigModeMask, tmp006.ConfigModeOn, cb)
			},
			values: func() [3]float32 {
				ambient, object := b.Thermopile.Temperature()
				return [3]float32{ambient, object}
			},
		},
		{
			name:   Gyro,
			driver: b.Gyro,
			setup: func(cb sensor.Callback) error {
				return b.Gyro.Write(l3gd20h.RegCtrl1, []byte{l3gd20h.Ctrl1PowerOn | l3gd20h.Ctrl1AxesAll}, cb)
			},
			values: func() [3]float32 {
				x, y, z := b.Gyro.Gyro()
				return [3]float32{x, y, z}
			},
		},
		{
			name:   Accel,
			driver: b.Accel,
			setup: func(cb sensor.Callback) error {
				return b.Accel.Write(lsm303dlhc.RegCtrl1, []byte{lsm303dlhc.Ctrl1ODR100Hz | lsm303dlhc.Ctrl1AxesAll}, cb)
			},
			values: func() [3]float32 {
				x, y, z := b.Accel.Accel()
				return [3]float32{x, y, z}
			},
		},
		{
			name:   Mag,
			driver: b.Mag,
			setup: func(cb sensor.Callback) error {
				return b.Mag.Write(lsm303dlhc.RegMR, []byte{lsm303dlhc.MRContinuous}, cb)
			},
			values: func() [3]float32 {
				x, y, z := b.Mag.Mag()
				return [3]float32{x, y, z}
			},
		},
	}
	return b
}

// Names lists the sensors in initialization order.
func (b *Board) Names() []string {
	names := make([]string, len(b.probes))
	for n, p := range b.probes {
		names[n] = p.name
	}
	return names
}

// Driver returns the driver of the named sensor, nil if unknown.
func (b *Board) Driver(name string) Driver {
	if p := b.probe(name); p != nil {
		return p.driver
	}
	return nil
}

// Ready indicates the named sensor passed Init.
func (b *Board) Ready(name string) bool {
	p := b.probe(name)
	return p != nil && p.ready
}

// Values converts the last data read of the named sensor, in the units
// documented on Sample.
func (b *Board) Values(name string) ([3]float32, bool) {
	p := b.probe(name)
	if p == nil {
		return [3]float32{}, false
	}
	return p.values(), true
}

// Init initializes and configures every sensor in sequence. A sensor
// failing is left out of sampling and doesn't stop the others; the
// failures are returned together.
func (b *Board) Init(ctx context.Context) error {
	var errs fx.AggregatedError
	for _, p := range b.probes {
		p.ready = false
		err := sensor.Wait(ctx, p.driver.Init)
		if err == nil && p.setup != nil {
			err = sensor.Wait(ctx, p.setup)
		}
		if err != nil {
			glog.Warningf("%s: init failed: %v", p.name, err)
			errs.Add(fmt.Errorf("%s: %w", p.name, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		p.ready = true
		glog.V(1).Infof("%s: ready", p.name)
	}
	return errs.Aggregate()
}

func (b *Board) probe(name string) *probe {
	for _, p := range b.probes {
		if p.name == name {
			return p
		}
	}
	return nil
}
