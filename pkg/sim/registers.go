package sim

import "sync"

// regFile is an 8-bit register file with a register pointer set by the
// first written byte.
type regFile struct {
	lock sync.Mutex
	regs [256]byte
	// incBit, when not zero, must be set in the pointer for accesses to
	// auto-increment and is not part of the address.
	incBit byte

	// refresh runs before each transaction.
	refresh func()
	// load returns the value read from reg, defaults to the stored one.
	load func(reg byte) byte
	// store is called after a byte is written to reg.
	store func(reg, val byte)
}

func (f *regFile) Tx(w, r []byte) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.refresh != nil {
		f.refresh()
	}
	if len(w) == 0 {
		return nil
	}
	reg, inc := w[0], true
	if f.incBit != 0 {
		inc = reg&f.incBit != 0
		reg &^= f.incBit
	}
	addr := func(n int) byte {
		if inc {
			return reg + byte(n)
		}
		return reg
	}
	for n, val := range w[1:] {
		a := addr(n)
		f.regs[a] = val
		if f.store != nil {
			f.store(a, val)
		}
	}
	for n := range r {
		a := addr(n)
		if f.load != nil {
			r[n] = f.load(a)
		} else {
			r[n] = f.regs[a]
		}
	}
	return nil
}

// wordFile is a file of 16-bit registers addressed by a pointer byte.
// Writes carry the high byte first.
type wordFile struct {
	lock sync.Mutex
	ptr  byte

	load  func(reg byte) []byte
	store func(reg byte, val uint16)
}

func (f *wordFile) Tx(w, r []byte) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if len(w) > 0 {
		f.ptr = w[0]
	}
	for n := 1; n+1 < len(w); n += 2 {
		f.store(f.ptr+byte(n/2), uint16(w[n])<<8|uint16(w[n+1]))
	}
	for n := 0; n < len(r); n += 2 {
		copy(r[n:], f.load(f.ptr+byte(n/2)))
	}
	return nil
}

func be16(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

func le16(v uint16) []byte {
	return []byte{byte(v), byte(v >> 8)}
}

// counts converts a physical value to a saturated raw reading.
func counts(v float64, lsb float32) int16 {
	raw := v / float64(lsb)
	switch {
	case raw > 32767:
		return 32767
	case raw < -32768:
		return -32768
	}
	return int16(raw)
}
