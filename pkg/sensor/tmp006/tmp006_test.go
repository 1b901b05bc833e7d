package tmp006

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sensorlib.go/pkg/i2c"
	"github.com/robotalks/sensorlib.go/pkg/i2c/i2ctest"
)

func TestInit(t *testing.T) {
	var e i2ctest.Engine
	var calls []i2c.Status
	d := New(&e, Address)
	require.NoError(t, d.Init(func(s i2c.Status) { calls = append(calls, s) }))
	tx := e.Complete(i2c.StatusSuccess)
	require.Equal(t, []byte{RegConfig, 0x80, 0x00}, tx.Write)
	require.False(t, tx.IsRead())
	require.Equal(t, []i2c.Status{i2c.StatusSuccess}, calls)
	require.True(t, d.Idle())
}

func TestDataRead(t *testing.T) {
	testCases := []struct {
		name    string
		ambient []byte
		object  []byte
		amb     float32
		obj     float32
	}{
		{name: "no ir flux", ambient: []byte{0x0C, 0x80}, object: []byte{0x00, 0x00}, amb: 25.0, obj: 29.4746},
		{name: "cold object", ambient: []byte{0x0C, 0x80}, object: []byte{0xFF, 0x38}, amb: 25.0, obj: 26.0599},
		{name: "warm object", ambient: []byte{0x0C, 0x80}, object: []byte{0x00, 0x64}, amb: 25.0, obj: 31.1438},
		{name: "below zero truncates", ambient: []byte{0xFA, 0xFD}, object: []byte{0x00, 0x00}, amb: -10.0, obj: -6.2063},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var e i2ctest.Engine
			var calls []i2c.Status
			d := New(&e, Address)
			require.NoError(t, d.DataRead(func(s i2c.Status) { calls = append(calls, s) }))
			tx := e.CompleteWith(tc.ambient...)
			require.Equal(t, []byte{RegTAmbient}, tx.Write)
			require.Len(t, tx.Read, 2)
			require.Empty(t, calls)
			tx = e.CompleteWith(tc.object...)
			require.Equal(t, []byte{RegVObject}, tx.Write)
			require.Len(t, tx.Read, 2)
			require.Equal(t, []i2c.Status{i2c.StatusSuccess}, calls)

			amb, obj := d.Temperature()
			require.InDelta(t, tc.amb, amb, 1e-4)
			require.InDelta(t, tc.obj, obj, 1e-2)
		})
	}
}

func TestDataReadFailure(t *testing.T) {
	var e i2ctest.Engine
	var calls []i2c.Status
	d := New(&e, Address)
	require.NoError(t, d.DataRead(func(s i2c.Status) { calls = append(calls, s) }))
	e.Fail(i2c.StatusAddrNack)
	require.Equal(t, []i2c.Status{i2c.StatusAddrNack}, calls)
	require.Zero(t, e.Pending())
	require.Len(t, e.History(), 1)
}

func TestCalibrationFactor(t *testing.T) {
	var e i2ctest.Engine
	d := New(&e, Address)
	require.InDelta(t, DefaultCalibrationFactor, d.CalibrationFactor(), 1e-20)
	require.NoError(t, d.DataRead(nil))
	e.CompleteWith(0x0C, 0x80)
	e.CompleteWith(0x00, 0x64)
	_, before := d.Temperature()
	d.SetCalibrationFactor(5.0e-14)
	_, after := d.Temperature()
	require.True(t, after > before)
}

func TestRegisterAccess(t *testing.T) {
	var e i2ctest.Engine
	d := New(&e, Address)

	ids := make([]uint16, 2)
	require.NoError(t, d.Read(RegMfgID, ids[:1], nil))
	e.CompleteWith(0x54, 0x49)
	require.NoError(t, d.Read(RegDevID, ids[1:], nil))
	e.CompleteWith(0x00, 0x67)
	require.Equal(t, []uint16{MfgID, DevID}, ids)

	require.NoError(t, d.Write(RegConfig, []uint16{ConfigModeOn | ConfigEnDRDY}, nil))
	tx := e.Complete(i2c.StatusSuccess)
	require.Equal(t, []byte{RegConfig, 0x71, 0x00}, tx.Write)

	require.NoError(t, d.ReadModifyWrite(RegConfig, ^ConfigCRMask, 0x0400, nil))
	e.CompleteWith(0x75, 0x00)
	tx = e.Complete(i2c.StatusSuccess)
	require.Equal(t, []byte{RegConfig, 0x75, 0x00}, tx.Write)
}

func TestObjectVoltage(t *testing.T) {
	testCases := []struct {
		name    string
		ambient float32
		object  float32
	}{
		{name: "warmer", ambient: 25, object: 40},
		{name: "colder", ambient: 25, object: 10},
		{name: "cold die", ambient: -10, object: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			raw := ObjectVoltage(tc.ambient, tc.object, DefaultCalibrationFactor)
			require.InDelta(t, tc.object, ObjectTemperature(tc.ambient, raw, DefaultCalibrationFactor), 0.05)
		})
	}
}
