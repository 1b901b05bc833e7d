package lsm303dlhc

// Bus addresses.
const (
	AccelAddress = 0x19
	MagAddress   = 0x1E
)

// Accelerometer registers
const (
	RegCtrl1      byte = 0x20
	RegCtrl2      byte = 0x21
	RegCtrl3      byte = 0x22
	RegCtrl4      byte = 0x23
	RegCtrl5      byte = 0x24
	RegCtrl6      byte = 0x25
	RegReference  byte = 0x26
	RegStatus     byte = 0x27
	RegOutXL      byte = 0x28
	RegFIFOCtrl   byte = 0x2E
	RegClickThs   byte = 0x3A
	RegTimeWindow byte = 0x3D

	// AutoIncrement is ORed into a register address for burst access.
	AutoIncrement byte = 0x80
)

// Accelerometer register values
const (
	Ctrl1ODR100Hz byte = 0x50
	Ctrl1AxesAll  byte = 0x07

	Ctrl4FSMask  byte = 0x30
	Ctrl4FSShift      = 4

	Ctrl5Boot byte = 0x80
)

// Accelerometer full scale ranges.
const (
	FS2G uint8 = iota
	FS4G
	FS8G
	FS16G
)

// Magnetometer registers
const (
	RegCRA   byte = 0x00
	RegCRB   byte = 0x01
	RegMR    byte = 0x02
	RegOutXH byte = 0x03
	RegSR    byte = 0x09
	RegIRA   byte = 0x0A
)

// MagIdentity is the content of IRA_REG_M through IRC_REG_M.
const MagIdentity = "H43"

// Magnetometer register values
const (
	CRAODR15Hz byte = 0x10

	CRBGainMask  byte = 0xE0
	CRBGainShift      = 5

	MRContinuous byte = 0x00
	MRSingle     byte = 0x01
	MRSleep      byte = 0x03
)

// Magnetometer gains, as full scale in gauss.
const (
	Gain1p3 uint8 = iota + 1
	Gain1p9
	Gain2p5
	Gain4p0
	Gain4p7
	Gain5p6
	Gain8p1
)
