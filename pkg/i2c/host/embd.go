package host

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/kidoman/embd"

	"github.com/robotalks/sensorlib.go/pkg/i2c"
)

// EmbdBus adapts an embd.I2CBus.
//
// embd has no combined write-read transfer for more than one register
// byte, so such reads are issued as a write followed by a separate read
// without repeated start. All devices in this module use single byte
// register addresses.
type EmbdBus struct {
	Bus embd.I2CBus
}

// NewEmbdBus wraps bus.
func NewEmbdBus(bus embd.I2CBus) *EmbdBus {
	return &EmbdBus{Bus: bus}
}

// OpenEmbdBus opens the numbered I2C bus of the detected host.
func OpenEmbdBus(num byte) (*EmbdBus, error) {
	if err := embd.InitI2C(); err != nil {
		return nil, fmt.Errorf("init i2c: %w", err)
	}
	return NewEmbdBus(embd.NewI2CBus(num)), nil
}

// Tx implements Bus.
func (b *EmbdBus) Tx(addr byte, w, r []byte) error {
	var err error
	switch {
	case len(r) == 0:
		err = b.Bus.WriteBytes(addr, w)
	case len(w) == 1:
		err = b.Bus.ReadFromReg(addr, w[0], r)
	default:
		if len(w) > 0 {
			if err = b.Bus.WriteBytes(addr, w); err != nil {
				break
			}
		}
		var data []byte
		if data, err = b.Bus.ReadBytes(addr, len(r)); err == nil {
			if len(data) != len(r) {
				return &i2c.TxError{Status: i2c.StatusDataNack}
			}
			copy(r, data)
		}
	}
	return mapErrno(err)
}

// Close implements Bus.
func (b *EmbdBus) Close() error {
	return b.Bus.Close()
}

// mapErrno translates the errors Linux i2c-dev reports for a missing
// acknowledge into i2c.ErrNoDevice.
func mapErrno(err error) error {
	if err == nil {
		return nil
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		for _, e := range nackErrnos {
			if errno == e {
				return fmt.Errorf("%w: %v", i2c.ErrNoDevice, err)
			}
		}
	}
	return err
}
