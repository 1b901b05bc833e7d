package host

import (
	"context"
	"errors"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/sensorlib.go/pkg/i2c"
)

// Bus performs blocking transactions.
type Bus interface {
	// Tx writes w and then reads len(r) bytes into r. Either may be empty.
	Tx(addr byte, w, r []byte) error
	Close() error
}

// TxFunc is func form of the transaction part of Bus.
type TxFunc func(addr byte, w, r []byte) error

// Tx implements Bus.
func (f TxFunc) Tx(addr byte, w, r []byte) error {
	return f(addr, w, r)
}

// Close implements Bus.
func (f TxFunc) Close() error {
	return nil
}

type request struct {
	addr byte
	w, r []byte
	done i2c.Completion
}

// Engine queues transactions and executes them in order on a Bus.
type Engine struct {
	Bus Bus

	queue  chan *request
	lock   sync.RWMutex
	closed bool
}

// NewEngine creates an engine over bus. Transactions are only executed
// while Run is active.
func NewEngine(bus Bus) *Engine {
	return &Engine{Bus: bus, queue: make(chan *request, i2c.QueueDepth)}
}

// Read implements i2c.Engine.
func (e *Engine) Read(addr byte, wbuf, rbuf []byte, done i2c.Completion) error {
	if len(rbuf) == 0 {
		return i2c.ErrInvalidArgument
	}
	return e.submit(&request{addr: addr, w: append([]byte(nil), wbuf...), r: rbuf, done: done})
}

// Write implements i2c.Engine.
func (e *Engine) Write(addr byte, buf []byte, done i2c.Completion) error {
	if len(buf) == 0 {
		return i2c.ErrInvalidArgument
	}
	return e.submit(&request{addr: addr, w: append([]byte(nil), buf...), done: done})
}

func (e *Engine) submit(req *request) error {
	e.lock.RLock()
	defer e.lock.RUnlock()
	if e.closed {
		return i2c.ErrClosed
	}
	select {
	case e.queue <- req:
		return nil
	default:
		return i2c.ErrQueueFull
	}
}

// Run executes queued transactions until ctx is done. On exit the bus is
// closed, queued transactions complete with StatusError and later
// submissions fail with i2c.ErrClosed.
func (e *Engine) Run(ctx context.Context) error {
	defer e.shutdown()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-e.queue:
			e.execute(req)
		}
	}
}

func (e *Engine) execute(req *request) {
	err := e.Bus.Tx(req.addr, req.w, req.r)
	status := StatusOf(err)
	if glog.V(2) {
		glog.Infof("i2c TX addr=0x%02x w=%x r=%d: %s", req.addr, req.w, len(req.r), status)
	}
	if err != nil && status == i2c.StatusError {
		glog.Warningf("i2c addr=0x%02x: %v", req.addr, err)
	}
	if req.done != nil {
		req.done.Complete(status)
	}
}

func (e *Engine) shutdown() {
	e.lock.Lock()
	e.closed = true
	e.lock.Unlock()
	for {
		select {
		case req := <-e.queue:
			if req.done != nil {
				req.done.Complete(i2c.StatusError)
			}
		default:
			if err := e.Bus.Close(); err != nil {
				glog.Warningf("i2c bus close: %v", err)
			}
			return
		}
	}
}

// StatusOf maps a bus error to a completion status.
func StatusOf(err error) i2c.Status {
	var se *i2c.TxError
	switch {
	case err == nil:
		return i2c.StatusSuccess
	case errors.Is(err, i2c.ErrNoDevice):
		return i2c.StatusAddrNack
	case errors.As(err, &se):
		return se.Status
	default:
		return i2c.StatusError
	}
}
