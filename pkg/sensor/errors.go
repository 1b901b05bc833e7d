package sensor

import "errors"

var (
	// ErrBusy indicates an operation is already in flight.
	ErrBusy = errors.New("sensor busy")
)
