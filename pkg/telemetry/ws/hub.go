// Package ws streams station telemetry to websocket clients.
package ws

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/sensorlib.go/pkg/framework"
	"github.com/robotalks/sensorlib.go/pkg/station"
	"github.com/robotalks/sensorlib.go/pkg/telemetry/msgs"
)

// DefaultBacklog is the number of frames queued per client.
const DefaultBacklog = 16

// Hub broadcasts encoded msgs.Typed frames to all connected clients as
// binary websocket messages. A client not keeping up loses frames.
type Hub struct {
	Backlog int

	lock    sync.RWMutex
	clients map[*client]struct{}
	dropped uint64
}

type client struct {
	frames chan []byte
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{Backlog: DefaultBacklog}
}

// Handler returns the http.Handler accepting websocket clients.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(h.serve)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.clients)
}

// Dropped returns the number of frames dropped for slow clients.
func (h *Hub) Dropped() uint64 {
	return atomic.LoadUint64(&h.dropped)
}

// Broadcast queues frame to every client.
func (h *Hub) Broadcast(frame []byte) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	for c := range h.clients {
		select {
		case c.frames <- frame:
		default:
			atomic.AddUint64(&h.dropped, 1)
		}
	}
}

// Publish implements station.Sink.
func (h *Hub) Publish(ctx context.Context, r *station.Reading) error {
	if h.Clients() == 0 {
		return nil
	}
	var errs fx.AggregatedError
	for _, msg := range msgs.FromReading(r) {
		data, err := msgs.Encode(msg, r.Sequence)
		if err != nil {
			errs.Add(err)
			continue
		}
		h.Broadcast(data)
	}
	return errs.Aggregate()
}

func (h *Hub) add() *client {
	backlog := h.Backlog
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	c := &client{frames: make(chan []byte, backlog)}
	h.lock.Lock()
	if h.clients == nil {
		h.clients = make(map[*client]struct{})
	}
	h.clients[c] = struct{}{}
	h.lock.Unlock()
	return c
}

func (h *Hub) remove(c *client) {
	h.lock.Lock()
	delete(h.clients, c)
	h.lock.Unlock()
}

func (h *Hub) serve(conn *websocket.Conn) {
	defer conn.Close()
	c := h.add()
	defer h.remove(c)
	glog.V(1).Infof("ws: client %s connected", conn.Request().RemoteAddr)

	// clients don't send anything, reading only detects the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
	}()

	for {
		select {
		case <-closed:
			glog.V(1).Infof("ws: client %s disconnected", conn.Request().RemoteAddr)
			return
		case frame := <-c.frames:
			if err := websocket.Message.Send(conn, frame); err != nil {
				glog.V(1).Infof("ws: send to %s failed: %v", conn.Request().RemoteAddr, err)
				return
			}
		}
	}
}
