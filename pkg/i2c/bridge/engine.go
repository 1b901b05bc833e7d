package bridge

import (
	"context"
	"errors"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/sensorlib.go/pkg/i2c"
)

// ErrNotReady indicates the link is not synchronized with the bridge.
var ErrNotReady = errors.New("bridge link not ready")

type transfer struct {
	seq  Seq
	addr byte
	rbuf []byte
	done i2c.Completion
	next *transfer
}

// Engine implements i2c.Engine by forwarding transactions to an I2C
// bridge MCU over a Link.
//
// A transfer request carries [addr, wlen, w..., rlen]. The bridge replies
// with the i2c.Status as the frame code and [request seq, read bytes...]
// as data. Replies arrive in request order, so a reply overtaking older
// requests means those were lost and they complete with StatusError.
type Engine struct {
	link *Link

	lock   sync.Mutex
	head   *transfer
	tail   *transfer
	count  int
	closed bool
}

// NewEngine creates an engine over link. The engine takes over the
// link's Handler and Notifier.
func NewEngine(link *Link) *Engine {
	e := &Engine{link: link}
	link.Handler = e
	link.Notifier = e
	return e
}

// Link returns the underlying link.
func (e *Engine) Link() *Link {
	return e.link
}

// Read implements i2c.Engine.
func (e *Engine) Read(addr byte, wbuf, rbuf []byte, done i2c.Completion) error {
	if len(rbuf) == 0 {
		return i2c.ErrInvalidArgument
	}
	return e.submit(addr, wbuf, rbuf, done)
}

// Write implements i2c.Engine.
func (e *Engine) Write(addr byte, buf []byte, done i2c.Completion) error {
	if len(buf) == 0 {
		return i2c.ErrInvalidArgument
	}
	return e.submit(addr, buf, nil, done)
}

func (e *Engine) submit(addr byte, wbuf, rbuf []byte, done i2c.Completion) error {
	if len(wbuf)+3 > MaxFrameData || len(rbuf)+1 > MaxFrameData {
		return i2c.ErrInvalidArgument
	}
	data := make([]byte, 0, len(wbuf)+3)
	data = append(data, addr, byte(len(wbuf)))
	data = append(data, wbuf...)
	data = append(data, byte(len(rbuf)))
	f := &Frame{Code: CodeTransfer, Data: data}

	e.lock.Lock()
	defer e.lock.Unlock()
	if e.closed {
		return i2c.ErrClosed
	}
	if e.count >= i2c.QueueDepth {
		return i2c.ErrQueueFull
	}
	if err := e.link.Send(f); err != nil {
		return err
	}
	t := &transfer{seq: f.Seq, addr: addr, rbuf: rbuf, done: done}
	if e.tail == nil {
		e.head = t
	} else {
		e.tail.next = t
	}
	e.tail = t
	e.count++
	glog.V(2).Infof("bridge TX seq=%d addr=0x%02x w=%d r=%d", f.Seq, addr, len(wbuf), len(rbuf))
	return nil
}

// HandleFrame implements FrameHandler.
func (e *Engine) HandleFrame(ctx context.Context, f *Frame) {
	if f.Code&CodeEvent != 0 {
		glog.V(2).Infof("bridge event 0x%02x %x", f.Code&^CodeEvent, f.Data)
		return
	}
	if len(f.Data) == 0 || !Seq(f.Data[0]).Valid() {
		glog.Warningf("bridge: malformed reply %x", f.Bytes())
		return
	}
	seq := Seq(f.Data[0])

	e.lock.Lock()
	var lost *transfer
	t := e.head
	for ; t != nil; t = t.next {
		if t.seq == seq {
			break
		}
	}
	if t != nil {
		lost = e.head
		for n := lost; n != t.next; n = n.next {
			e.count--
		}
		e.head = t.next
		if e.head == nil {
			e.tail = nil
		}
	}
	e.lock.Unlock()
	if t == nil {
		glog.Warningf("bridge: reply for unknown request %d", seq)
		return
	}

	for ; lost != t; lost = lost.next {
		e.finish(lost, i2c.StatusError)
	}
	status := i2c.Status(f.Code &^ CodeEvent)
	if status.OK() {
		if read := f.Data[1:]; len(read) != len(t.rbuf) {
			glog.Warningf("bridge: reply %d carries %d bytes, want %d", seq, len(read), len(t.rbuf))
			status = i2c.StatusError
		} else {
			copy(t.rbuf, read)
		}
	}
	e.finish(t, status)
}

// LinkStateChanged implements StateNotifier. Requests in flight when the
// link loses synchronization are never answered.
func (e *Engine) LinkStateChanged(ctx context.Context, state LinkState) {
	if !state.Ready() {
		e.failAll()
	}
}

// Run runs the link until ctx is done. Transfers still in flight fail
// with StatusError and later submissions with i2c.ErrClosed.
func (e *Engine) Run(ctx context.Context) error {
	err := e.link.Run(ctx)
	e.lock.Lock()
	e.closed = true
	e.lock.Unlock()
	e.failAll()
	return err
}

func (e *Engine) failAll() {
	e.lock.Lock()
	t := e.head
	e.head, e.tail, e.count = nil, nil, 0
	e.lock.Unlock()
	for ; t != nil; t = t.next {
		e.finish(t, i2c.StatusError)
	}
}

func (e *Engine) finish(t *transfer, status i2c.Status) {
	glog.V(2).Infof("bridge RX seq=%d addr=0x%02x %s", t.seq, t.addr, status)
	if t.done != nil {
		t.done.Complete(status)
	}
}
