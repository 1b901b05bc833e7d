package bmp180

import "math"

// TemperatureRaw returns the uncompensated temperature reading.
func (d *BMP180) TemperatureRaw() uint16 {
	return uint16(d.data[0])<<8 | uint16(d.data[1])
}

// PressureRaw returns the uncompensated 19-bit-aligned pressure reading.
func (d *BMP180) PressureRaw() uint32 {
	return uint32(d.data[2])<<16 | uint32(d.data[3])<<8 | uint32(d.data[4]&OutXLSBMask)
}

// Temperature returns the temperature in degrees Celsius.
func (d *BMP180) Temperature() float32 {
	return d.b5() / 160
}

// Pressure returns the pressure in pascals.
func (d *BMP180) Pressure() float32 {
	c := &d.cal
	oss := d.mode >> CtrlMeasOSSShift
	up := float32(int32(d.PressureRaw())) / float32(int32(1)<<(8-oss))

	b6 := d.b5() - 4000
	x1 := (float32(c.B2) * ((b6 * b6) / 4096)) / 2048
	x2 := (float32(c.AC2) * b6) / 2048
	x3 := x1 + x2
	b3 := ((float32(c.AC1)*4 + x3) * float32(int32(1)<<oss)) / 4
	x1 = (float32(c.AC3) * b6) / 8192
	x2 = (float32(c.B1) * ((b6 * b6) / 4096)) / 65536
	x3 = (x1 + x2) / 4
	b4 := float32(c.AC4) * ((x3 / 32768) + 1)
	b7 := (up - b3) * float32(int32(50000)>>oss)
	p := (b7 * 2) / b4

	x1 = (p / 256) * (p / 256)
	x1 = (x1 * 3038) / 65536
	x2 = (p * -7357) / 65536
	p += (x1 + x2 + 3791) / 16
	return p
}

// Altitude converts the last pressure reading into meters above the
// given sea level pressure (Pa) with the international barometric formula.
func (d *BMP180) Altitude(seaLevel float32) float32 {
	return float32(44330 * (1 - math.Pow(float64(d.Pressure()/seaLevel), 1/5.255)))
}

func (d *BMP180) b5() float32 {
	c := &d.cal
	ut := float32(d.TemperatureRaw())
	x1 := ((ut - float32(c.AC6)) * float32(c.AC5)) / 32768
	x2 := (float32(c.MC) * 2048) / (x1 + float32(c.MD))
	return x1 + x2
}
