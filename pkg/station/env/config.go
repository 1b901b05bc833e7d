// Package env assembles a station from configuration: the I2C bus, the
// board, the control loop and the telemetry sinks.
package env

import (
	"flag"
	"os"
	"time"
)

// Bus kinds.
const (
	BusSim    = "sim"
	BusEmbd   = "embd"
	BusSerial = "serial"
)

// Config provides common options to set up a station.
type Config struct {
	// ID names the station in telemetry topics.
	ID          string
	Description string

	// Bus is one of BusSim, BusEmbd and BusSerial.
	Bus string
	// Device is the I2C bus number for BusEmbd, or the serial port of
	// the bridge for BusSerial.
	Device string
	// Baud is the serial baud rate.
	Baud int

	// Interval is the sampling period.
	Interval time.Duration

	// MQTTBrokerURL specifies the MQTT broker to publish to, disabled
	// when empty. e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// Listen is the HTTP address serving /ws and /metrics, disabled
	// when empty.
	Listen string
	// LogReadings logs every Reading with glog.
	LogReadings bool
}

var defaultConfig = Config{
	ID:       "sensorlib",
	Bus:      BusSim,
	Device:   "1",
	Baud:     115200,
	Interval: 50 * time.Millisecond,
}

func init() {
	if val := os.Getenv("SENSORLIB_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("SENSORLIB_BUS"); val != "" {
		defaultConfig.Bus = val
	}
	if val := os.Getenv("SENSORLIB_LISTEN"); val != "" {
		defaultConfig.Listen = val
	}
	if id := MachineID(); id != "" {
		defaultConfig.ID = id
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Station ID")
	flag.StringVar(&defaultConfig.Description, "desc", defaultConfig.Description, "Station description")
	flag.StringVar(&defaultConfig.Bus, "bus", defaultConfig.Bus, "I2C bus: sim, embd or serial")
	flag.StringVar(&defaultConfig.Device, "dev", defaultConfig.Device, "I2C bus number (embd) or serial port (serial)")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial baud rate")
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Sampling interval")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL")
	flag.StringVar(&defaultConfig.Listen, "listen", defaultConfig.Listen, "HTTP listen address for /ws and /metrics")
	flag.BoolVar(&defaultConfig.LogReadings, "log-readings", defaultConfig.LogReadings, "Log every reading")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}
