// Package i2c defines the asynchronous I2C engine boundary used by sensor drivers.
package i2c

// An Engine accepts transactions and reports their outcome later through
// a Completion. Engines are free to complete on any goroutine, including
// synchronously inside Read/Write. The helpers in this package compose
// the two primitives into the register-level sequences drivers need:
// prefixed burst writes, 16-bit big-endian reads and writes, and
// read-modify-write in 8 and 16 bit widths.
