package i2c

import "encoding/binary"

// Write8 writes data to consecutive registers starting at reg.
func Write8(e Engine, addr, reg byte, data []byte, done Completion) error {
	if len(data) == 0 {
		return ErrInvalidArgument
	}
	buf := make([]byte, len(data)+1)
	buf[0] = reg
	copy(buf[1:], data)
	return e.Write(addr, buf, done)
}

// Read16BE reads len(data) big-endian 16-bit registers starting at reg.
// data is only valid after done reports success.
func Read16BE(e Engine, addr, reg byte, data []uint16, done Completion) error {
	if len(data) == 0 {
		return ErrInvalidArgument
	}
	raw := make([]byte, len(data)*2)
	return e.Read(addr, []byte{reg}, raw, CompleteFunc(func(s Status) {
		if s.OK() {
			for n := range data {
				data[n] = binary.BigEndian.Uint16(raw[n*2:])
			}
		}
		done.Complete(s)
	}))
}

// Write16BE writes len(data) 16-bit registers in big-endian order starting at reg.
func Write16BE(e Engine, addr, reg byte, data []uint16, done Completion) error {
	if len(data) == 0 {
		return ErrInvalidArgument
	}
	buf := make([]byte, len(data)*2+1)
	buf[0] = reg
	for n, v := range data {
		binary.BigEndian.PutUint16(buf[n*2+1:], v)
	}
	return e.Write(addr, buf, done)
}

// Modify is an in-flight read-modify-write sequence.
type Modify struct {
	// Reg is the target register.
	Reg byte
	// Mask selects the bits of the current value to keep.
	Mask uint16
	// Value is ORed into the kept bits.
	Value uint16
	// Written is the value written to the register, valid once the
	// sequence completed successfully.
	Written uint16

	engine Engine
	addr   byte
	width  int
	order  binary.ByteOrder
	buf    [3]byte
	done   Completion
}

// ReadModifyWrite8 updates an 8-bit register. With a zero mask, value is
// written directly without reading the register first.
func ReadModifyWrite8(e Engine, addr, reg, mask, value byte, done Completion) (*Modify, error) {
	m := NewModify8(reg, mask, value)
	return m, m.Start(e, addr, done)
}

// ReadModifyWrite16LE updates a 16-bit little-endian register.
func ReadModifyWrite16LE(e Engine, addr, reg byte, mask, value uint16, done Completion) (*Modify, error) {
	m := NewModify16LE(reg, mask, value)
	return m, m.Start(e, addr, done)
}

// ReadModifyWrite16BE updates a 16-bit big-endian register.
func ReadModifyWrite16BE(e Engine, addr, reg byte, mask, value uint16, done Completion) (*Modify, error) {
	m := NewModify16BE(reg, mask, value)
	return m, m.Start(e, addr, done)
}

// NewModify8 prepares an 8-bit read-modify-write sequence.
func NewModify8(reg, mask, value byte) *Modify {
	return &Modify{Reg: reg, Mask: uint16(mask), Value: uint16(value), width: 1}
}

// NewModify16LE prepares a 16-bit little-endian read-modify-write sequence.
func NewModify16LE(reg byte, mask, value uint16) *Modify {
	return &Modify{Reg: reg, Mask: mask, Value: value, width: 2, order: binary.LittleEndian}
}

// NewModify16BE prepares a 16-bit big-endian read-modify-write sequence.
func NewModify16BE(reg byte, mask, value uint16) *Modify {
	return &Modify{Reg: reg, Mask: mask, Value: value, width: 2, order: binary.BigEndian}
}

// Start submits the first transaction of the sequence.
func (m *Modify) Start(e Engine, addr byte, done Completion) error {
	m.engine, m.addr, m.done = e, addr, done
	m.buf[0] = m.Reg
	if m.Mask == 0 {
		return m.write(m.Value)
	}
	return e.Read(addr, m.buf[:1], m.buf[1:1+m.width], CompleteFunc(m.readDone))
}

func (m *Modify) readDone(s Status) {
	if !s.OK() {
		m.done.Complete(s)
		return
	}
	var v uint16
	if m.width == 1 {
		v = uint16(m.buf[1])
	} else {
		v = m.order.Uint16(m.buf[1:])
	}
	if err := m.write((v & m.Mask) | m.Value); err != nil {
		m.done.Complete(StatusError)
	}
}

func (m *Modify) write(v uint16) error {
	m.Written = v
	if m.width == 1 {
		m.buf[1] = byte(v)
	} else {
		m.order.PutUint16(m.buf[1:], v)
	}
	return m.engine.Write(m.addr, m.buf[:1+m.width], m.done)
}
