// Package instrument exports Prometheus metrics for i2c.Engine traffic.
package instrument

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/robotalks/sensorlib.go/pkg/i2c"
)

const namespace = "sensorlib"

// Transaction kinds used as label values.
const (
	KindRead  = "read"
	KindWrite = "write"
)

// Metrics holds the collectors shared by instrumented engines.
type Metrics struct {
	Transactions *prometheus.CounterVec
	Rejected     *prometheus.CounterVec
	Latency      *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg if not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "i2c",
			Name:      "transactions_total",
			Help:      "Completed I2C transactions by kind and status.",
		}, []string{"kind", "status"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "i2c",
			Name:      "rejected_total",
			Help:      "I2C transactions rejected at submission.",
		}, []string{"kind"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "i2c",
			Name:      "transaction_seconds",
			Help:      "Time from submission to completion.",
			Buckets:   prometheus.ExponentialBuckets(50e-6, 2, 12),
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.Transactions, m.Rejected, m.Latency)
	}
	return m
}

// Engine decorates an i2c.Engine with metrics.
type Engine struct {
	i2c.Engine
	Metrics *Metrics
}

// Wrap instruments e with collectors registered to reg.
func Wrap(e i2c.Engine, reg prometheus.Registerer) *Engine {
	return &Engine{Engine: e, Metrics: NewMetrics(reg)}
}

// Read implements i2c.Engine.
func (e *Engine) Read(addr byte, wbuf, rbuf []byte, done i2c.Completion) error {
	return e.observe(KindRead, done, func(c i2c.Completion) error {
		return e.Engine.Read(addr, wbuf, rbuf, c)
	})
}

// Write implements i2c.Engine.
func (e *Engine) Write(addr byte, buf []byte, done i2c.Completion) error {
	return e.observe(KindWrite, done, func(c i2c.Completion) error {
		return e.Engine.Write(addr, buf, c)
	})
}

func (e *Engine) observe(kind string, done i2c.Completion, submit func(i2c.Completion) error) error {
	start := time.Now()
	err := submit(i2c.CompleteFunc(func(s i2c.Status) {
		e.Metrics.Latency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		e.Metrics.Transactions.WithLabelValues(kind, s.String()).Inc()
		if done != nil {
			done.Complete(s)
		}
	}))
	if err != nil {
		e.Metrics.Rejected.WithLabelValues(kind).Inc()
	}
	return err
}
