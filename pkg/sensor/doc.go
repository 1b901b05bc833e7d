// Package sensor provides the transaction state machine shared by sensor drivers.
//
// A driver embeds Machine and implements Stepper for its multi-step
// sequences. Operations are non-blocking: a start function either rejects
// the request (ErrBusy or the engine's submission error) or accepts it, in
// which case the Callback is invoked exactly once when the machine returns
// to idle. Any failed transaction abandons the remaining steps.
//
// Unit conversion methods of drivers read the buffers filled by the last
// completed DataRead and must not be called while a DataRead is in flight.
package sensor
