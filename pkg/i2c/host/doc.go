// Package host runs I2C transactions on a synchronous bus from a worker
// goroutine, turning blocking bus drivers into an asynchronous i2c.Engine.
package host
