package i2c

import (
	"errors"
	"fmt"
)

var (
	// ErrQueueFull indicates the engine can't accept more transactions.
	ErrQueueFull = errors.New("transaction queue full")
	// ErrInvalidArgument indicates a malformed transaction.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrClosed indicates the engine is closed.
	ErrClosed = errors.New("engine closed")
	// ErrNoDevice indicates no device acknowledged the address.
	ErrNoDevice = errors.New("no such device")
)

// TxError wraps a non-success completion status.
type TxError struct {
	Status Status
}

// Error implements error.
func (e *TxError) Error() string {
	return fmt.Sprintf("i2c %s", e.Status)
}
