package env

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sensorlib.go/pkg/station"
)

func simConfig() *Config {
	conf := NewConfig()
	conf.ID = "test"
	conf.Bus = BusSim
	conf.MQTTBrokerURL = ""
	conf.Listen = ""
	conf.Interval = 10 * time.Millisecond
	return conf
}

func TestNewEnvErrors(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "no id", modify: func(c *Config) { c.ID = "" }},
		{name: "unknown bus", modify: func(c *Config) { c.Bus = "spi" }},
		{name: "bad bus number", modify: func(c *Config) { c.Bus, c.Device = BusEmbd, "x" }},
		{name: "bad mqtt url", modify: func(c *Config) { c.MQTTBrokerURL = "://broker" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := simConfig()
			tc.modify(conf)
			_, err := conf.NewEnv()
			require.Error(t, err)
		})
	}
}

func TestNewConfigCopies(t *testing.T) {
	conf := NewConfig()
	conf.Bus = "changed"
	require.NotEqual(t, "changed", Default().Bus)
}

func TestEnvRunSim(t *testing.T) {
	conf := simConfig()
	conf.Listen = "127.0.0.1:0"
	env, err := conf.NewEnv()
	require.NoError(t, err)
	require.NotNil(t, env.Bus.World)
	require.NotNil(t, env.Hub)
	require.Nil(t, env.Publisher)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for !env.Station.Reading().Fused {
		require.True(t, time.Now().Before(deadline), "station never fused")
		time.Sleep(5 * time.Millisecond)
	}
	for _, name := range env.Board.Names() {
		require.True(t, env.Board.Ready(name), name)
	}
	r := env.Station.Reading()
	require.InDelta(t, 15, r.Temperature, 0.01)
	require.True(t, r.Has(station.Gyro) || r.Has(station.Accel) || r.Has(station.Light))

	rec := httptest.NewRecorder()
	env.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "sensorlib_i2c_transactions_total")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("env didn't stop")
	}
}
