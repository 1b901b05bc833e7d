package sensor

import (
	"context"

	"github.com/robotalks/sensorlib.go/pkg/i2c"
)

// Wait starts an asynchronous operation and blocks until its callback
// fires or ctx is done. The returned error is the start error, the
// completion status as an error, or ctx.Err().
//
// When ctx is done first the operation keeps running; the driver stays
// busy until the engine completes it.
func Wait(ctx context.Context, start func(Callback) error) error {
	resultCh := make(chan i2c.Status, 1)
	if err := start(func(s i2c.Status) { resultCh <- s }); err != nil {
		return err
	}
	select {
	case s := <-resultCh:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
