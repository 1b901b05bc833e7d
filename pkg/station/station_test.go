package station

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/sensorlib.go/pkg/framework"
	"github.com/robotalks/sensorlib.go/pkg/i2c/host"
	"github.com/robotalks/sensorlib.go/pkg/sensor/bmp180"
	"github.com/robotalks/sensorlib.go/pkg/sensor/lsm303dlhc"
	"github.com/robotalks/sensorlib.go/pkg/sim"
)

type testEnv struct {
	t     *testing.T
	world *sim.World
	bus   *sim.Bus
	board *Board
	ctx   context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	w := sim.NewWorld()
	bus := sim.NewBoard(w)
	e := host.NewEngine(bus)
	go e.Run(ctx)
	return &testEnv{t: t, world: w, bus: bus, board: NewBoard(e), ctx: ctx}
}

func (e *testEnv) init() *testEnv {
	ctx, cancel := context.WithTimeout(e.ctx, time.Second)
	defer cancel()
	require.NoError(e.t, e.board.Init(ctx))
	return e
}

// run runs st in a loop ticked every few milliseconds until cond holds.
func (e *testEnv) run(st *Station, cond func(Reading) bool) Reading {
	ticks := make(chan time.Time)
	l := fx.NewLoop()
	l.Interval = 20 * time.Millisecond
	l.Ticks = ticks
	l.Add(st)
	ctx, cancel := context.WithCancel(e.ctx)
	defer cancel()
	go l.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for {
		r := st.Reading()
		if cond(r) {
			return r
		}
		require.True(e.t, time.Now().Before(deadline), "condition not met, last reading %+v", r)
		ticks <- time.Now()
		time.Sleep(2 * time.Millisecond)
	}
}

type collector struct {
	lock     sync.Mutex
	readings []Reading
}

func (c *collector) Publish(ctx context.Context, r *Reading) error {
	c.lock.Lock()
	c.readings = append(c.readings, *r)
	c.lock.Unlock()
	return nil
}

func (c *collector) all() []Reading {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]Reading(nil), c.readings...)
}

func TestBoardInit(t *testing.T) {
	env := newTestEnv(t).init()
	require.Equal(t, []string{Barometer, Light, Thermopile, Gyro, Accel, Mag}, env.board.Names())
	for _, name := range env.board.Names() {
		require.Truef(t, env.board.Ready(name), "%s not ready", name)
		require.NotNil(t, env.board.Driver(name))
	}
	require.Nil(t, env.board.Driver("unknown"))
	require.False(t, env.board.Ready("unknown"))
	require.Equal(t, bmp180.OSS4Times, env.board.Barometer.Mode())
	require.Equal(t, lsm303dlhc.Gain1p3, env.board.Mag.Gain())
}

func TestBoardInitMissingSensor(t *testing.T) {
	env := newTestEnv(t)
	env.bus.Detach(lsm303dlhc.MagAddress)
	ctx, cancel := context.WithTimeout(env.ctx, time.Second)
	defer cancel()
	err := env.board.Init(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), Mag)
	require.False(t, env.board.Ready(Mag))
	require.True(t, env.board.Ready(Gyro))
}

func TestStationReadings(t *testing.T) {
	env := newTestEnv(t)
	env.world.SetLight(150)
	env.world.SetTemperatures(20, 33)
	env.world.SetAttitude(sim.AngleFromDegrees(10), sim.AngleFromDegrees(-5), sim.AngleFromDegrees(30))
	env.init()

	var sink collector
	st := New(env.board, &sink)
	r := env.run(st, func(r Reading) bool { return r.Fused && r.Sequence >= 5 })

	require.InDelta(t, 15.0, r.Temperature, 0.01)
	require.InDelta(t, 69964, r.Pressure, 2)
	require.InDelta(t, 150, r.Light, 0.1)
	require.InDelta(t, 20, r.Ambient, 0.1)
	require.InDelta(t, 33, r.Object, 0.1)

	accel := env.world.Accel()
	for n := range accel {
		require.InDelta(t, accel[n], r.Accel[n], 0.01)
	}
	require.InDelta(t, 10, degrees(r.Roll), 1)
	require.InDelta(t, -5, degrees(r.Pitch), 1)
	require.InDelta(t, 30, degrees(r.Yaw), 1)
	require.InDelta(t, 1, r.Attitude.SquaredNorm(), 1e-3)
	require.Zero(t, st.DCM.Resets())

	published := sink.all()
	require.NotEmpty(t, published)
	for n, p := range published {
		require.Equal(t, uint64(n+1), p.Sequence)
		require.NotEmpty(t, p.Updated)
	}
}

func TestStationWithoutMagnetometer(t *testing.T) {
	env := newTestEnv(t)
	env.bus.Detach(lsm303dlhc.MagAddress)
	ctx, cancel := context.WithTimeout(env.ctx, time.Second)
	defer cancel()
	require.Error(t, env.board.Init(ctx))

	st := New(env.board)
	r := env.run(st, func(r Reading) bool { return r.Has(Gyro) && r.Has(Accel) && r.Sequence >= 3 })
	require.False(t, r.Fused)
	require.False(t, r.Has(Mag))
	require.Zero(t, r.Mag)
}

func TestStationSinkErrors(t *testing.T) {
	env := newTestEnv(t).init()
	failing := SinkFunc(func(ctx context.Context, r *Reading) error {
		return context.DeadlineExceeded
	})
	var sink collector
	st := New(env.board, failing).AddSinks(&sink)
	env.run(st, func(r Reading) bool { return r.Sequence >= 2 })
	require.NotEmpty(t, sink.all())
}

func TestReadingHas(t *testing.T) {
	r := Reading{Updated: []string{Light, Gyro}}
	require.True(t, r.Has(Gyro))
	require.False(t, r.Has(Mag))
	require.InDelta(t, 180, degrees(math.Pi), 1e-4)
}
