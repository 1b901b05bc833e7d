// Package sim simulates the sensor board: a physical World and an I2C
// bus of register-mapped devices sensing it.
package sim

import (
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/sensorlib.go/pkg/i2c"
	"github.com/robotalks/sensorlib.go/pkg/sensor/bmp180"
	"github.com/robotalks/sensorlib.go/pkg/sensor/cm3218"
	"github.com/robotalks/sensorlib.go/pkg/sensor/l3gd20h"
	"github.com/robotalks/sensorlib.go/pkg/sensor/lsm303dlhc"
	"github.com/robotalks/sensorlib.go/pkg/sensor/tmp006"
)

// Device is a simulated I2C slave.
type Device interface {
	// Tx handles a transaction addressed to the device.
	Tx(w, r []byte) error
}

// Bus is a simulated I2C bus. It is usable as host.Bus.
type Bus struct {
	lock    sync.RWMutex
	devices map[byte]Device
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{devices: make(map[byte]Device)}
}

// NewBoard creates a bus with all supported sensors sensing w at their
// default addresses.
func NewBoard(w *World) *Bus {
	return NewBus().
		Attach(bmp180.Address, NewBMP180()).
		Attach(cm3218.Address, NewCM3218(w)).
		Attach(tmp006.Address, NewTMP006(w)).
		Attach(l3gd20h.Address, NewL3GD20H(w)).
		Attach(lsm303dlhc.AccelAddress, NewLSM303Accel(w)).
		Attach(lsm303dlhc.MagAddress, NewLSM303Mag(w))
}

// Attach places dev at addr, replacing any device there.
func (b *Bus) Attach(addr byte, dev Device) *Bus {
	b.lock.Lock()
	b.devices[addr] = dev
	b.lock.Unlock()
	return b
}

// Detach removes the device at addr.
func (b *Bus) Detach(addr byte) {
	b.lock.Lock()
	delete(b.devices, addr)
	b.lock.Unlock()
}

// Tx implements host.Bus.
func (b *Bus) Tx(addr byte, w, r []byte) error {
	b.lock.RLock()
	dev := b.devices[addr]
	b.lock.RUnlock()
	if dev == nil {
		glog.V(3).Infof("sim: no device at 0x%02x", addr)
		return i2c.ErrNoDevice
	}
	return dev.Tx(w, r)
}

// Close implements host.Bus.
func (b *Bus) Close() error {
	return nil
}
