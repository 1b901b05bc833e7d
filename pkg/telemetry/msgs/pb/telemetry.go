// Package pb holds the protobuf messages declared in telemetry.proto.
package pb

import "github.com/golang/protobuf/proto"

// Typed is the envelope of every message on the wire.
type Typed struct {
	TypeId   uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Sequence uint64 `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Message  []byte `protobuf:"bytes,3,opt,name=message,proto3" json:"message,omitempty"`
}

func (m *Typed) Reset()         { *m = Typed{} }
func (m *Typed) String() string { return proto.CompactTextString(m) }
func (*Typed) ProtoMessage()    {}

// Environment carries the non-motion sensors.
type Environment struct {
	Temperature float32 `protobuf:"fixed32,1,opt,name=temperature,proto3" json:"temperature,omitempty"`
	Pressure    float32 `protobuf:"fixed32,2,opt,name=pressure,proto3" json:"pressure,omitempty"`
	Light       float32 `protobuf:"fixed32,3,opt,name=light,proto3" json:"light,omitempty"`
	Ambient     float32 `protobuf:"fixed32,4,opt,name=ambient,proto3" json:"ambient,omitempty"`
	Object      float32 `protobuf:"fixed32,5,opt,name=object,proto3" json:"object,omitempty"`
}

func (m *Environment) Reset()         { *m = Environment{} }
func (m *Environment) String() string { return proto.CompactTextString(m) }
func (*Environment) ProtoMessage()    {}

// Motion carries the raw motion vectors.
type Motion struct {
	Gyro  []float32 `protobuf:"fixed32,1,rep,packed,name=gyro,proto3" json:"gyro,omitempty"`
	Accel []float32 `protobuf:"fixed32,2,rep,packed,name=accel,proto3" json:"accel,omitempty"`
	Mag   []float32 `protobuf:"fixed32,3,rep,packed,name=mag,proto3" json:"mag,omitempty"`
}

func (m *Motion) Reset()         { *m = Motion{} }
func (m *Motion) String() string { return proto.CompactTextString(m) }
func (*Motion) ProtoMessage()    {}

// Attitude carries the fused orientation.
type Attitude struct {
	Roll       float32   `protobuf:"fixed32,1,opt,name=roll,proto3" json:"roll,omitempty"`
	Pitch      float32   `protobuf:"fixed32,2,opt,name=pitch,proto3" json:"pitch,omitempty"`
	Yaw        float32   `protobuf:"fixed32,3,opt,name=yaw,proto3" json:"yaw,omitempty"`
	Quaternion []float32 `protobuf:"fixed32,4,rep,packed,name=quaternion,proto3" json:"quaternion,omitempty"`
}

func (m *Attitude) Reset()         { *m = Attitude{} }
func (m *Attitude) String() string { return proto.CompactTextString(m) }
func (*Attitude) ProtoMessage()    {}

func init() {
	proto.RegisterType((*Typed)(nil), "sensorlib.telemetry.v1.Typed")
	proto.RegisterType((*Environment)(nil), "sensorlib.telemetry.v1.Environment")
	proto.RegisterType((*Motion)(nil), "sensorlib.telemetry.v1.Motion")
	proto.RegisterType((*Attitude)(nil), "sensorlib.telemetry.v1.Attitude")
}
