package main

import (
	"context"
	"flag"
	"math"
	"sync"
	"time"

	"github.com/golang/glog"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/robotalks/sensorlib.go/pkg/sim"
	"github.com/robotalks/sensorlib.go/pkg/station"
	"github.com/robotalks/sensorlib.go/pkg/station/env"
)

// Plots the fused attitude of a simulated board against the simulated
// truth while the board turns at constant rates.

var (
	duration = 10 * time.Second
	output   = "attitude.png"
	rates    [3]float64
	start    [3]float64
)

func init() {
	flag.DurationVar(&duration, "t", duration, "Run duration.")
	flag.StringVar(&output, "o", output, "Output image, format from extension.")
	flag.Float64Var(&rates[0], "roll-rate", 0, "Body rate about X in °/s, gyro sign convention.")
	flag.Float64Var(&rates[1], "pitch-rate", 0, "Body rate about Y in °/s.")
	flag.Float64Var(&rates[2], "yaw-rate", 20, "Body rate about Z in °/s.")
	flag.Float64Var(&start[0], "roll", 0, "Initial roll in degrees.")
	flag.Float64Var(&start[1], "pitch", 0, "Initial pitch in degrees.")
	flag.Float64Var(&start[2], "yaw", 0, "Initial yaw in degrees.")
}

type series struct {
	lock  sync.Mutex
	est   [3]plotter.XYs
	truth [3]plotter.XYs
}

func (s *series) record(w *sim.World, r *station.Reading) {
	if !r.Fused {
		return
	}
	t := w.Elapsed().Seconds()
	roll, pitch, yaw := w.Attitude()
	s.lock.Lock()
	defer s.lock.Unlock()
	for n, v := range []float32{r.Roll, r.Pitch, r.Yaw} {
		s.est[n] = append(s.est[n], plotter.XY{X: t, Y: float64(v) * 180 / math.Pi})
	}
	for n, a := range []sim.Angle{roll, pitch, yaw} {
		s.truth[n] = append(s.truth[n], plotter.XY{X: t, Y: a.Degrees()})
	}
}

func (s *series) save(file string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	p := plot.New()
	p.Title.Text = "Attitude"
	p.X.Label.Text = "t (s)"
	p.Y.Label.Text = "angle (°)"
	if err := plotutil.AddLines(p,
		"roll", s.est[0], "roll (truth)", s.truth[0],
		"pitch", s.est[1], "pitch (truth)", s.truth[1],
		"yaw", s.est[2], "yaw (truth)", s.truth[2]); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 5*vg.Inch, file)
}

func main() {
	flag.Parse()

	conf := env.NewConfig()
	conf.Bus = env.BusSim
	e := conf.MustNewEnv()
	world := e.Bus.World
	world.SetAttitude(sim.AngleFromDegrees(start[0]), sim.AngleFromDegrees(start[1]), sim.AngleFromDegrees(start[2]))
	world.SetRate(sim.Vec3{
		sim.AngleFromDegrees(rates[0]).Radians(),
		sim.AngleFromDegrees(rates[1]).Radians(),
		sim.AngleFromDegrees(rates[2]).Radians(),
	})

	var s series
	e.Station.AddSinks(station.SinkFunc(func(ctx context.Context, r *station.Reading) error {
		s.record(world, r)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(duration, cancel)
	if err := e.Run(ctx); err != nil {
		glog.Fatal(err)
	}
	if err := s.save(output); err != nil {
		glog.Fatal(err)
	}
	glog.Infof("saved %s", output)
}
