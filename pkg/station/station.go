package station

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/sensorlib.go/pkg/framework"
	"github.com/robotalks/sensorlib.go/pkg/fusion"
	"github.com/robotalks/sensorlib.go/pkg/i2c"
)

// Default filter weights.
const (
	DefaultAccelWeight float32 = 0.2
	DefaultGyroWeight  float32 = 0.6
	DefaultMagWeight   float32 = 0.2
)

// Reading is the latest view of all sensors and the fused attitude.
type Reading struct {
	Time     time.Time
	Sequence uint64

	Temperature float32 // °C
	Pressure    float32 // Pa
	Light       float32 // lux
	Ambient     float32 // °C
	Object      float32 // °C

	Gyro  fusion.Vector // rad/s
	Accel fusion.Vector // m/s²
	Mag   fusion.Vector // T

	// Fused is set once the filter has started, and the attitude below
	// is valid.
	Fused            bool
	Roll, Pitch, Yaw float32 // radians
	Attitude         fusion.Quaternion

	// Updated lists the sensors sampled since the previous Reading.
	Updated []string
}

// Has indicates the named sensor contributed to this Reading.
func (r *Reading) Has(name string) bool {
	for _, s := range r.Updated {
		if s == name {
			return true
		}
	}
	return false
}

// Sink receives every new Reading.
type Sink interface {
	Publish(context.Context, *Reading) error
}

// SinkFunc is func form of Sink.
type SinkFunc func(context.Context, *Reading) error

// Publish implements Sink.
func (f SinkFunc) Publish(ctx context.Context, r *Reading) error {
	return f(ctx, r)
}

// LogSink logs readings with glog.
var LogSink = SinkFunc(func(ctx context.Context, r *Reading) error {
	glog.Infof("#%d %.2f°C %.0fPa %.1flux ir=%.2f/%.2f°C rpy=%.1f/%.1f/%.1f",
		r.Sequence, r.Temperature, r.Pressure, r.Light, r.Ambient, r.Object,
		degrees(r.Roll), degrees(r.Pitch), degrees(r.Yaw))
	return nil
})

// Station samples the board and fuses the motion sensors.
type Station struct {
	Board *Board
	DCM   *fusion.DCM
	Sinks []Sink

	// Filter weights applied when added to a loop.
	AccelWeight, GyroWeight, MagWeight float32

	reading Reading
	updated []string
	motion  uint8
	started bool

	lock     sync.RWMutex
	snapshot Reading
}

const (
	haveGyro uint8 = 1 << iota
	haveAccel
	haveMag
	haveMotion = haveGyro | haveAccel | haveMag
)

// New creates a Station over an initialized board.
func New(board *Board, sinks ...Sink) *Station {
	return &Station{
		Board:       board,
		DCM:         &fusion.DCM{},
		Sinks:       sinks,
		AccelWeight: DefaultAccelWeight,
		GyroWeight:  DefaultGyroWeight,
		MagWeight:   DefaultMagWeight,
	}
}

// AddSinks adds more sinks.
func (s *Station) AddSinks(sinks ...Sink) *Station {
	s.Sinks = append(s.Sinks, sinks...)
	return s
}

// AddToLoop implements fx.LoopAdder. The filter time step is the loop
// interval.
func (s *Station) AddToLoop(l *fx.Loop) {
	interval := l.Interval
	if interval <= 0 {
		interval = fx.DefaultInterval
	}
	s.DCM.Init(float32(interval.Seconds()), s.AccelWeight, s.GyroWeight, s.MagWeight)
	l.AddController(fx.PrLvSense, fx.ControlFunc(s.sample))
	l.AddController(fx.PrLvControl, fx.ControlFunc(s.fuse))
	l.AddController(fx.PrLvPostProc, fx.ControlFunc(s.publish))
}

// Reading returns the last published Reading.
func (s *Station) Reading() Reading {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.snapshot
}

// sample starts DataRead on every ready sensor whose previous Sample has
// been consumed. The completion posts a Sample with the converted
// values, taken before anything can start the driver again.
func (s *Station) sample(cc fx.ControlContext) error {
	for _, p := range s.Board.probes {
		if !p.ready || p.pending || !p.driver.Idle() {
			continue
		}
		p := p
		p.pending = true
		err := p.driver.DataRead(func(status i2c.Status) {
			smp := &Sample{Sensor: p.name, Time: time.Now(), Err: status.Err()}
			if status.OK() {
				smp.Values = p.values()
			}
			cc.PostMessage(smp)
		})
		if err != nil {
			p.pending = false
			glog.Warningf("%s: data read rejected: %v", p.name, err)
		}
	}
	return nil
}

func (s *Station) fuse(cc fx.ControlContext) error {
	var motion uint8
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
		smp, ok := mc.CurrentMessage().(*Sample)
		if !ok {
			return
		}
		mc.MessageTaken()
		if p := s.Board.probe(smp.Sensor); p != nil {
			p.pending = false
		}
		if smp.Err != nil {
			glog.V(1).Infof("%s: data read failed: %v", smp.Sensor, smp.Err)
			return
		}
		motion |= s.apply(smp)
		s.updated = append(s.updated, smp.Sensor)
	}))

	s.motion |= motion
	switch {
	case !s.started && s.motion == haveMotion:
		s.DCM.Start()
		s.started = true
		glog.V(1).Info("attitude filter started")
	case s.started && motion&haveGyro != 0:
		s.DCM.Update()
	default:
		return nil
	}
	r := &s.reading
	r.Fused = true
	r.Roll, r.Pitch, r.Yaw = s.DCM.Eulers()
	r.Attitude = s.DCM.Quaternion()
	return nil
}

func (s *Station) apply(smp *Sample) uint8 {
	r, v := &s.reading, smp.Values
	var err error
	switch smp.Sensor {
	case Barometer:
		r.Temperature, r.Pressure = v[0], v[1]
	case Light:
		r.Light = v[0]
	case Thermopile:
		r.Ambient, r.Object = v[0], v[1]
	case Gyro:
		r.Gyro = fusion.Vector(v)
		if err = s.DCM.GyroUpdate(v[0], v[1], v[2]); err == nil {
			return haveGyro
		}
	case Accel:
		r.Accel = fusion.Vector(v)
		if err = s.DCM.AccelUpdate(v[0], v[1], v[2]); err == nil {
			return haveAccel
		}
	case Mag:
		r.Mag = fusion.Vector(v)
		if err = s.DCM.MagnetoUpdate(v[0], v[1], v[2]); err == nil {
			return haveMag
		}
	}
	if err != nil {
		glog.Warningf("%s: %v", smp.Sensor, err)
	}
	return 0
}

func (s *Station) publish(cc fx.ControlContext) error {
	if len(s.updated) == 0 {
		return nil
	}
	s.reading.Time = cc.Time()
	s.reading.Sequence++
	s.reading.Updated, s.updated = s.updated, nil

	s.lock.Lock()
	s.snapshot = s.reading
	s.lock.Unlock()

	var errs fx.AggregatedError
	for _, sink := range s.Sinks {
		r := s.reading
		errs.Add(sink.Publish(cc.Context(), &r))
	}
	return errs.Aggregate()
}

func degrees(rad float32) float64 {
	return float64(rad) * 180 / math.Pi
}
