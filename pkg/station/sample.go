package station

import (
	"time"

	fx "github.com/robotalks/sensorlib.go/pkg/framework"
)

// Sample is posted to the loop when a DataRead completes.
type Sample struct {
	Sensor string
	Time   time.Time
	// Err is the completion status as an error.
	Err error
	// Values holds the converted data, by sensor:
	//   bmp180: temperature (°C), pressure (Pa)
	//   cm3218: illuminance (lux)
	//   tmp006: die temperature (°C), object temperature (°C)
	//   l3gd20h: angular rate (rad/s) X, Y, Z
	//   lsm303-accel: acceleration (m/s²) X, Y, Z
	//   lsm303-mag: field (T) X, Y, Z
	Values [3]float32
}

// NewMessage implements fx.Message.
func (s *Sample) NewMessage() fx.Message { return &Sample{} }
