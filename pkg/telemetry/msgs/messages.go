package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/sensorlib.go/pkg/framework"
	"github.com/robotalks/sensorlib.go/pkg/station"
	"github.com/robotalks/sensorlib.go/pkg/telemetry/msgs/pb"
)

// Environment event.
type Environment struct {
	pb.Environment
}

// NewMessage implements Message.
func (m *Environment) NewMessage() fx.Message { return &Environment{} }

// TypeID implements SerializableMessage.
func (m *Environment) TypeID() uint32 { return EnvironmentTypeID }

// Topic implements SerializableMessage.
func (m *Environment) Topic() string { return "environment" }

// Serializable implements SerializableMessage.
func (m *Environment) Serializable() proto.Message { return &m.Environment }

// Motion event.
type Motion struct {
	pb.Motion
}

// NewMessage implements Message.
func (m *Motion) NewMessage() fx.Message { return &Motion{} }

// TypeID implements SerializableMessage.
func (m *Motion) TypeID() uint32 { return MotionTypeID }

// Topic implements SerializableMessage.
func (m *Motion) Topic() string { return "motion" }

// Serializable implements SerializableMessage.
func (m *Motion) Serializable() proto.Message { return &m.Motion }

// Attitude event.
type Attitude struct {
	pb.Attitude
}

// NewMessage implements Message.
func (m *Attitude) NewMessage() fx.Message { return &Attitude{} }

// TypeID implements SerializableMessage.
func (m *Attitude) TypeID() uint32 { return AttitudeTypeID }

// Topic implements SerializableMessage.
func (m *Attitude) Topic() string { return "attitude" }

// Serializable implements SerializableMessage.
func (m *Attitude) Serializable() proto.Message { return &m.Attitude }

// TypeID Groups
const (
	GroupTelemetry uint32 = 0x00030000
	GroupCustom    uint32 = 0x7f000000 // base group id for custom messages.
)

// TypeIDs
const (
	EnvironmentTypeID uint32 = TypeIDKindEvent | GroupTelemetry | 0x0001
	MotionTypeID      uint32 = TypeIDKindEvent | GroupTelemetry | 0x0002
	AttitudeTypeID    uint32 = TypeIDKindEvent | GroupTelemetry | 0x0003
)

// FromReading converts the parts of r updated since the previous
// Reading into messages.
func FromReading(r *station.Reading) []SerializableMessage {
	var out []SerializableMessage
	if r.Has(station.Barometer) || r.Has(station.Light) || r.Has(station.Thermopile) {
		out = append(out, &Environment{Environment: pb.Environment{
			Temperature: r.Temperature,
			Pressure:    r.Pressure,
			Light:       r.Light,
			Ambient:     r.Ambient,
			Object:      r.Object,
		}})
	}
	if r.Has(station.Gyro) || r.Has(station.Accel) || r.Has(station.Mag) {
		out = append(out, &Motion{Motion: pb.Motion{
			Gyro:  r.Gyro[:],
			Accel: r.Accel[:],
			Mag:   r.Mag[:],
		}})
	}
	if r.Fused {
		out = append(out, &Attitude{Attitude: pb.Attitude{
			Roll:       r.Roll,
			Pitch:      r.Pitch,
			Yaw:        r.Yaw,
			Quaternion: r.Attitude[:],
		}})
	}
	return out
}
