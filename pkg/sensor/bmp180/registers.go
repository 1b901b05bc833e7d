package bmp180

// Address is the bus address of the BMP180.
const Address = 0x77

// Registers
const (
	RegCalibration byte = 0xAA
	RegID          byte = 0xD0
	RegSoftReset   byte = 0xE0
	RegCtrlMeas    byte = 0xF4
	RegOutMSB      byte = 0xF6
	RegOutLSB      byte = 0xF7
	RegOutXLSB     byte = 0xF8
)

// Register values
const (
	ChipID         byte = 0x55
	SoftResetValue byte = 0xB6

	CtrlMeasOSSMask     byte = 0xC0
	CtrlMeasOSSShift         = 6
	CtrlMeasSCO         byte = 0x20
	CtrlMeasTemperature byte = 0x0E
	CtrlMeasPressure    byte = 0x14

	OutXLSBMask byte = 0xF8

	calibrationSize = 22
)

// Oversampling settings for CtrlMeas.
const (
	OSSSingle byte = 0x00
	OSS2Times byte = 0x40
	OSS4Times byte = 0x80
	OSS8Times byte = 0xC0
)
