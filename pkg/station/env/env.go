package env

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	fx "github.com/robotalks/sensorlib.go/pkg/framework"
	"github.com/robotalks/sensorlib.go/pkg/station"
	"github.com/robotalks/sensorlib.go/pkg/telemetry/mqtt"
	"github.com/robotalks/sensorlib.go/pkg/telemetry/ws"
)

// Env is a station with its bus and sinks.
type Env struct {
	Config   *Config
	Bus      *Bus
	Board    *station.Board
	Station  *station.Station
	Registry *prometheus.Registry

	// Publisher is set when an MQTT broker is configured.
	Publisher *mqtt.Publisher
	// Hub is set when Listen is configured.
	Hub *ws.Hub
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if c.ID == "" {
		return nil, fmt.Errorf("station id must be specified")
	}
	env := &Env{Config: c, Registry: prometheus.NewRegistry()}
	env.Registry.MustRegister(prometheus.NewGoCollector())

	bus, err := c.OpenBus(env.Registry)
	if err != nil {
		return nil, err
	}
	env.Bus = bus
	env.Board = station.NewBoard(bus.Engine)
	env.Station = station.New(env.Board)

	if c.MQTTBrokerURL != "" {
		meta := mqtt.Meta{Description: c.Description, Bus: c.Bus, Sensors: env.Board.Names()}
		pub, err := mqtt.NewPublisher(c.MQTTBrokerURL, c.ID, meta)
		if err != nil {
			return nil, fmt.Errorf("create MQTT publisher error: %w", err)
		}
		env.Publisher = pub
		env.Station.AddSinks(pub)
	}
	if c.Listen != "" {
		env.Hub = ws.NewHub()
		env.Station.AddSinks(env.Hub)
	}
	if c.LogReadings {
		env.Station.AddSinks(station.LogSink)
	}
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		glog.Fatal(err)
	}
	return env
}

// AddToLoop implements fx.LoopAdder. The bus worker is not added, it
// must be running before the board is initialized.
func (e *Env) AddToLoop(l *fx.Loop) {
	if e.Bus.World != nil {
		l.Add(e.Bus.World)
	}
	l.Add(e.Station)
	if e.Publisher != nil {
		l.Add(e.Publisher)
	}
}

// Handler serves /ws and /metrics.
func (e *Env) Handler() http.Handler {
	mux := http.NewServeMux()
	if e.Hub != nil {
		mux.Handle("/ws", e.Hub.Handler())
	}
	mux.Handle("/metrics", promhttp.HandlerFor(e.Registry, promhttp.HandlerOpts{}))
	return mux
}

// Run drives the bus, initializes the board and runs the loop until ctx
// is done. Sensors failing to initialize are logged and left out.
func (e *Env) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	runner := fx.NewRunnerWith(ctx).Go(e.Bus)
	if err := e.Board.Init(ctx); err != nil {
		glog.Warningf("board init: %v", err)
	}

	loop := fx.NewLoop()
	loop.Interval = e.Config.Interval
	loop.Add(e)
	runner.Go(fx.NamedRun("loop", loop))

	if e.Config.Listen != "" {
		ln, err := net.Listen("tcp", e.Config.Listen)
		if err != nil {
			cancel()
			runner.Wait()
			return err
		}
		glog.Infof("serving on %s", ln.Addr())
		server := &http.Server{Handler: e.Handler()}
		runner.Go(fx.NamedRun("http", fx.RunFunc(func(ctx context.Context) error {
			return fx.RunWithContextCancel(ctx, func() { server.Close() }, func() error {
				return server.Serve(ln)
			})
		})))
	}
	return runner.Wait()
}
