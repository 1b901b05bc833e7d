// Package bridge reaches I2C devices through a bridge MCU attached over a
// serial port.
//
// The link carries frames numbered with per-direction sequence numbers.
// Either side starts or restarts synchronization by sending
// [0xff, seq] and the other side acknowledges with [0xfe, seq]. After
// that, every frame must carry the next expected sequence number, any
// deviation restarts synchronization. There is no checksum, enable
// parity on the serial port if the line is noisy.
package bridge
