package msgs

import (
	"testing"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/sensorlib.go/pkg/framework"
	"github.com/robotalks/sensorlib.go/pkg/fusion"
	"github.com/robotalks/sensorlib.go/pkg/station"
)

type plainMessage struct{}

func (m *plainMessage) NewMessage() fx.Message { return &plainMessage{} }

func TestFromReading(t *testing.T) {
	testCases := []struct {
		name    string
		reading station.Reading
		topics  []string
	}{
		{name: "nothing updated", reading: station.Reading{}},
		{
			name:    "environment",
			reading: station.Reading{Updated: []string{station.Light}},
			topics:  []string{"environment"},
		},
		{
			name:    "motion before fusion",
			reading: station.Reading{Updated: []string{station.Gyro, station.Accel}},
			topics:  []string{"motion"},
		},
		{
			name:    "all",
			reading: station.Reading{Updated: []string{station.Barometer, station.Mag}, Fused: true},
			topics:  []string{"environment", "motion", "attitude"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var topics []string
			for _, msg := range FromReading(&tc.reading) {
				topics = append(topics, msg.Topic())
			}
			require.Equal(t, tc.topics, topics)
		})
	}
}

func TestTypedRoundTrip(t *testing.T) {
	r := station.Reading{
		Sequence:    42,
		Temperature: 15,
		Pressure:    69964,
		Light:       320,
		Ambient:     25,
		Object:      30,
		Gyro:        fusion.Vector{0.1, -0.2, 0.3},
		Accel:       fusion.Vector{0, 0, 9.8},
		Mag:         fusion.Vector{2.5e-5, 0, 4.3e-5},
		Fused:       true,
		Roll:        0.1,
		Pitch:       -0.2,
		Yaw:         1.5,
		Attitude:    fusion.QuaternionFromEuler(10, 20, 30),
		Updated:     []string{station.Barometer, station.Gyro},
	}
	msgs := FromReading(&r)
	require.Len(t, msgs, 3)
	for _, msg := range msgs {
		data, err := Encode(msg, r.Sequence)
		require.NoError(t, err)
		typed, err := DecodeTyped(data)
		require.NoError(t, err)
		require.True(t, typed.IsEvent())
		require.Equal(t, msg.TypeID(), typed.TypeId)
		require.Equal(t, uint64(42), typed.Sequence)
		decoded, err := typed.Decode()
		require.NoError(t, err)
		require.Equal(t, msg, decoded)
	}
}

func TestTypedErrors(t *testing.T) {
	_, err := TypedFrom(&plainMessage{}, 1)
	require.Equal(t, ErrNotSerializable, err)

	typed := Typed{}
	typed.TypeId = GroupCustom | 0x0001
	_, err = typed.Decode()
	require.Equal(t, &ErrUnknownType{TypeID: GroupCustom | 0x0001}, err)
	require.Equal(t, "unknown type: 7f000001", err.Error())

	_, err = DecodeTyped([]byte{0xff})
	require.Error(t, err)
}

func TestDecodeTypedEnvelope(t *testing.T) {
	data, err := Encode(&Environment{}, 9)
	require.NoError(t, err)
	typed, err := DecodeTyped(data)
	require.NoError(t, err)
	require.Equal(t, EnvironmentTypeID, typed.TypeId)
	require.Equal(t, uint64(9), typed.Sequence)
	msg, err := typed.Decode()
	require.NoError(t, err)
	require.IsType(t, &Environment{}, msg)
}
