package mqtt

import (
	"context"
	"encoding/json"

	paho "github.com/eclipse/paho.mqtt.golang"

	fx "github.com/robotalks/sensorlib.go/pkg/framework"
	"github.com/robotalks/sensorlib.go/pkg/station"
	"github.com/robotalks/sensorlib.go/pkg/telemetry/msgs"
)

// MetaTopic is the retained topic under the station describing it. It
// is cleared when the station goes away.
const MetaTopic = "meta"

// Meta describes a station.
type Meta struct {
	Description string            `json:"description,omitempty"`
	Bus         string            `json:"bus,omitempty"`
	Sensors     []string          `json:"sensors,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// Publisher is a station.Sink publishing each message derived from a
// Reading to <station>/<message topic>.
type Publisher struct {
	Queue   *Queue
	Station string

	metaJSON []byte
}

// NewPublisher creates a Publisher for the station with the given ID.
// The retained meta is published on connect and cleared by the broker
// through the last will if the station disconnects unexpectedly.
func NewPublisher(brokerURL, stationID string, meta Meta) (*Publisher, error) {
	metaJSON, err := json.Marshal(&meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+stationID+"/"+MetaTopic, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("sensorlib:" + stationID)
	}
	p := &Publisher{
		Queue:    NewQueue(opts, topicPrefix),
		Station:  stationID,
		metaJSON: metaJSON,
	}
	p.Queue.OnConnect = func(*Queue) { p.publishMeta(p.metaJSON) }
	return p, nil
}

// Publish implements station.Sink. Messages are sent with QoS 0 without
// waiting for the broker.
func (p *Publisher) Publish(ctx context.Context, r *station.Reading) error {
	var errs fx.AggregatedError
	for _, msg := range msgs.FromReading(r) {
		data, err := msgs.Encode(msg, r.Sequence)
		if err != nil {
			errs.Add(err)
			continue
		}
		p.Queue.Pub(p.Station+"/"+msg.Topic(), data)
	}
	return errs.Aggregate()
}

// AddToLoop implements fx.LoopAdder.
func (p *Publisher) AddToLoop(l *fx.Loop) {
	l.AddRunnable(p)
}

// Run implements fx.Runnable. It connects and stays connected until ctx
// is done.
func (p *Publisher) Run(ctx context.Context) error {
	p.Queue.Connect()
	<-ctx.Done()
	p.publishMeta(nil).Wait()
	return p.Queue.Close()
}

func (p *Publisher) publishMeta(payload []byte) paho.Token {
	return p.Queue.PubWith(p.Station+"/"+MetaTopic, payload, 1, true)
}
