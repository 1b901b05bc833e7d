package bridge

import (
	"io"
	"time"
)

// Seq is a frame sequence number, valid in 1..0xEF. Values from 0xF0 up
// are reserved for link control bytes.
type Seq byte

// MaxFrameData is the largest payload a frame carries.
const MaxFrameData = 0x7f

// Frame codes. The low nibble is the code, bit 7 marks an unsolicited
// frame from the bridge.
const (
	CodeTransfer byte = 0x01
	CodeEvent    byte = 0x80

	codeMask byte = 0x8f
	lenMask  byte = 0x70
	lenShift      = 4
	lenSpill byte = 7
)

// NewSeq picks a starting sequence number.
func NewSeq() Seq {
	return Seq(byte(time.Now().UnixNano())).Next()
}

// Next returns the sequence number following s.
func (s Seq) Next() Seq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return Seq(n)
}

// Valid indicates s can number a frame.
func (s Seq) Valid() bool {
	return s > 0 && s < 0xf0
}

// Frame is a unit of the link protocol, encoded as
// [seq][code|len<<4][len if len>=7][data...].
type Frame struct {
	Seq  Seq
	Code byte
	Data []byte
}

func (f *Frame) header() []byte {
	h := []byte{byte(f.Seq), f.Code & codeMask, byte(len(f.Data))}
	if h[2] < lenSpill {
		h[1] |= (h[2] << lenShift) & lenMask
		return h[:2]
	}
	h[1] |= lenMask
	return h
}

// Bytes encodes the frame.
func (f *Frame) Bytes() []byte {
	return append(f.header(), f.Data...)
}

// WriteTo writes the encoded frame to w.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Bytes())
	return int64(n), err
}
