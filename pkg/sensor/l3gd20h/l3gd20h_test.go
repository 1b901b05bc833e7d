package l3gd20h

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sensorlib.go/pkg/i2c"
	"github.com/robotalks/sensorlib.go/pkg/i2c/i2ctest"
)

func TestInit(t *testing.T) {
	testCases := []struct {
		name  string
		polls []byte
	}{
		{name: "reset cleared at once", polls: []byte{0x00}},
		{name: "reset pending", polls: []byte{0x04, 0x04, 0x00}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var e i2ctest.Engine
			var calls []i2c.Status
			d := New(&e, Address)
			require.NoError(t, d.Init(func(s i2c.Status) { calls = append(calls, s) }))
			tx := e.Complete(i2c.StatusSuccess)
			require.Equal(t, []byte{RegLowODR, LowODRSWReset}, tx.Write)
			for _, b := range tc.polls {
				require.Empty(t, calls)
				tx = e.CompleteWith(b)
				require.Equal(t, []byte{RegLowODR}, tx.Write)
				require.Len(t, tx.Read, 1)
			}
			require.Equal(t, []i2c.Status{i2c.StatusSuccess}, calls)
			require.Zero(t, e.Pending())
			require.Equal(t, FS245DPS, d.FullScale())
		})
	}
}

func TestDataRead(t *testing.T) {
	var e i2ctest.Engine
	var calls []i2c.Status
	d := New(&e, Address)
	require.NoError(t, d.DataRead(func(s i2c.Status) { calls = append(calls, s) }))
	tx := e.CompleteWith(0x0F, 0xE8, 0x03, 0x18, 0xFC, 0x00, 0x80)
	require.Equal(t, []byte{RegStatus | AutoIncrement}, tx.Write)
	require.Len(t, tx.Read, 7)
	require.Equal(t, []i2c.Status{i2c.StatusSuccess}, calls)

	require.Equal(t, byte(0x0F), d.Status())
	x, y, z := d.GyroRaw()
	require.Equal(t, int16(1000), x)
	require.Equal(t, int16(-1000), y)
	require.Equal(t, int16(-32768), z)
	gx, gy, gz := d.Gyro()
	require.InDelta(t, 1000*1.5271631e-4, gx, 1e-6)
	require.InDelta(t, -1000*1.5271631e-4, gy, 1e-6)
	require.InDelta(t, -32768*1.5271631e-4, gz, 1e-4)
}

func TestFullScaleStaging(t *testing.T) {
	testCases := []struct {
		name   string
		start  byte
		reg    byte
		data   []byte
		status i2c.Status
		expect uint8
	}{
		{name: "ctrl4 500dps", reg: RegCtrl4, data: []byte{0x10}, status: i2c.StatusSuccess, expect: FS500DPS},
		{name: "burst ctrl1 to ctrl4", reg: RegCtrl1 | AutoIncrement, data: []byte{0x0F, 0x00, 0x00, 0x20}, status: i2c.StatusSuccess, expect: FS2000DPS},
		{name: "ctrl4 write failed", reg: RegCtrl4, data: []byte{0x20}, status: i2c.StatusDataNack, expect: FS245DPS},
		{name: "unrelated register", start: 0x10, reg: RegCtrl1, data: []byte{0x0F}, status: i2c.StatusSuccess, expect: FS500DPS},
		{name: "software reset", start: 0x20, reg: RegLowODR, data: []byte{LowODRSWReset}, status: i2c.StatusSuccess, expect: FS245DPS},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var e i2ctest.Engine
			d := New(&e, Address)
			if tc.start != 0 {
				require.NoError(t, d.Write(RegCtrl4, []byte{tc.start}, nil))
				e.Complete(i2c.StatusSuccess)
			}
			require.NoError(t, d.Write(tc.reg, tc.data, nil))
			tx := e.Complete(tc.status)
			require.Equal(t, append([]byte{tc.reg}, tc.data...), tx.Write)
			require.Equal(t, tc.expect, d.FullScale())
		})
	}
}

func TestReadModifyWriteFullScale(t *testing.T) {
	var e i2ctest.Engine
	d := New(&e, Address)
	require.NoError(t, d.ReadModifyWrite(RegCtrl4, ^Ctrl4FSMask, 0x20, nil))
	tx := e.CompleteWith(0x80)
	require.Equal(t, []byte{RegCtrl4}, tx.Write)
	tx = e.Complete(i2c.StatusSuccess)
	require.Equal(t, []byte{RegCtrl4, 0xA0}, tx.Write)
	require.Equal(t, FS2000DPS, d.FullScale())

	require.NoError(t, d.ReadModifyWrite(RegLowODR, 0xFF, LowODRSWReset, nil))
	e.CompleteWith(0x00)
	e.Complete(i2c.StatusSuccess)
	require.Equal(t, FS245DPS, d.FullScale())
}

func TestWhoAmI(t *testing.T) {
	var e i2ctest.Engine
	d := New(&e, Address)
	var id [1]byte
	require.NoError(t, d.Read(RegWhoAmI, id[:], nil))
	e.CompleteWith(WhoAmIValue)
	require.Equal(t, WhoAmIValue, id[0])
}

func TestSensitivity(t *testing.T) {
	testCases := []struct {
		name string
		fs   uint8
		mdps float64
	}{
		{name: "245 dps", fs: FS245DPS, mdps: 8.75},
		{name: "500 dps", fs: FS500DPS, mdps: 17.5},
		{name: "2000 dps", fs: FS2000DPS, mdps: 70},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.mdps*1e-3*math.Pi/180, Sensitivity(tc.fs), 1e-9)
		})
	}
}
