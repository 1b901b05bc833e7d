package env

import (
	"context"
	"fmt"
	"strconv"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tarm/serial"

	fx "github.com/robotalks/sensorlib.go/pkg/framework"
	"github.com/robotalks/sensorlib.go/pkg/i2c"
	"github.com/robotalks/sensorlib.go/pkg/i2c/bridge"
	"github.com/robotalks/sensorlib.go/pkg/i2c/host"
	"github.com/robotalks/sensorlib.go/pkg/i2c/instrument"
	"github.com/robotalks/sensorlib.go/pkg/sim"
)

// Bus is an opened I2C engine and the worker driving it.
type Bus struct {
	Engine i2c.Engine
	// World is the simulated world of a sim bus, nil otherwise.
	World *sim.World

	worker fx.Runnable
}

// Run implements fx.Runnable and drives the engine until ctx is done.
func (b *Bus) Run(ctx context.Context) error {
	return b.worker.Run(ctx)
}

// Name implements fx.Named.
func (b *Bus) Name() string {
	return "bus"
}

// OpenBus opens the configured bus. The engine is instrumented with
// collectors registered to reg when reg is not nil.
func (c *Config) OpenBus(reg prometheus.Registerer) (*Bus, error) {
	b := &Bus{}
	switch c.Bus {
	case BusSim:
		b.World = sim.NewWorld()
		e := host.NewEngine(sim.NewBoard(b.World))
		b.Engine, b.worker = e, e
	case BusEmbd:
		num, err := strconv.ParseUint(c.Device, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid I2C bus number %q: %w", c.Device, err)
		}
		bus, err := host.OpenEmbdBus(byte(num))
		if err != nil {
			return nil, err
		}
		e := host.NewEngine(bus)
		b.Engine, b.worker = e, e
	case BusSerial:
		port, err := serial.OpenPort(&serial.Config{Name: c.Device, Baud: c.Baud})
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", c.Device, err)
		}
		e := bridge.NewEngine(bridge.NewLink(port))
		b.Engine = e
		b.worker = fx.RunFunc(func(ctx context.Context) error {
			// closing the port unblocks the pending read of the link
			return fx.RunWithContextCloser(ctx, port, func() error {
				return e.Run(ctx)
			})
		})
	default:
		return nil, fmt.Errorf("unknown bus %q", c.Bus)
	}
	if reg != nil {
		b.Engine = instrument.Wrap(b.Engine, reg)
	}
	glog.V(1).Infof("bus %s %s opened", c.Bus, c.Device)
	return b, nil
}
