package bridge

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
)

// FrameHandler is called on the link goroutine for each received frame.
type FrameHandler interface {
	HandleFrame(context.Context, *Frame)
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, *Frame)

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, frame *Frame) {
	f(ctx, frame)
}

// StateNotifier is called when the link state changes.
type StateNotifier interface {
	LinkStateChanged(context.Context, LinkState)
}

// LinkStateChangedFunc is func type of StateNotifier.
type LinkStateChangedFunc func(context.Context, LinkState)

// LinkStateChanged implements StateNotifier.
func (f LinkStateChangedFunc) LinkStateChanged(ctx context.Context, state LinkState) {
	f(ctx, state)
}

// Link exchanges frames with the bridge over a byte stream.
type Link struct {
	Stream   io.ReadWriter
	Handler  FrameHandler
	Notifier StateNotifier
	// Timeout restarts synchronization when the peer goes quiet in the
	// middle of a handshake or frame.
	Timeout time.Duration
	// ReadTimeout is set when reads from Stream time out by themselves,
	// e.g. a serial port opened with a read timeout.
	ReadTimeout bool

	seq   Seq
	state LinkState
	lock  sync.RWMutex

	timer <-chan time.Time
	rx    Receiver
}

// NewLink creates a Link over stream.
func NewLink(stream io.ReadWriter) *Link {
	return &Link{
		Stream:  stream,
		Timeout: 100 * time.Millisecond,
		seq:     NewSeq(),
	}
}

// State returns the link state.
func (l *Link) State() LinkState {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.state
}

// Send numbers and writes a frame. It fails with ErrNotReady until the
// link is synchronized.
func (l *Link) Send(f *Frame) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if !l.state.Ready() {
		return ErrNotReady
	}
	f.Seq = l.seq
	if _, err := f.WriteTo(l.Stream); err != nil {
		return err
	}
	l.seq = l.seq.Next()
	return nil
}

// Run synchronizes with the peer and dispatches received frames until
// ctx is done or the stream fails.
func (l *Link) Run(ctx context.Context) error {
	if err := l.apply(ctx, l.rx.Reset()); err != nil {
		return err
	}
	if l.ReadTimeout {
		return l.runPolling(ctx)
	}

	byteCh, errCh := make(chan byte), make(chan error, 1)
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.readLoop(readCtx, byteCh, errCh)
	for {
		var err error
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err = <-errCh:
			return err
		case b := <-byteCh:
			err = l.apply(ctx, l.rx.Feed(b))
		case <-l.timer:
			err = l.apply(ctx, l.rx.Timeout())
		}
		if err != nil {
			return err
		}
	}
}

func (l *Link) runPolling(ctx context.Context) error {
	buf := make([]byte, 1)
	for {
		var err error
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.timer:
			err = l.apply(ctx, l.rx.Timeout())
		default:
			n, rerr := l.Stream.Read(buf)
			switch {
			case rerr != nil && !os.IsTimeout(rerr):
				return rerr
			case rerr != nil || n == 0:
				err = l.apply(ctx, l.rx.Timeout())
			default:
				err = l.apply(ctx, l.rx.Feed(buf[0]))
			}
		}
		if err != nil {
			return err
		}
	}
}

func (l *Link) readLoop(ctx context.Context, byteCh chan<- byte, errCh chan<- error) {
	buf := make([]byte, 1)
	for {
		if _, err := l.Stream.Read(buf); err != nil {
			errCh <- err
			return
		}
		select {
		case byteCh <- buf[0]:
		case <-ctx.Done():
			return
		}
	}
}

func (l *Link) apply(ctx context.Context, s Step) (err error) {
	var notifier StateNotifier
	l.lock.Lock()
	if l.state != s.State {
		l.state = s.State
		notifier = l.Notifier
	}
	if s.Control != 0 {
		_, err = l.Stream.Write([]byte{s.Control, byte(l.seq)})
	}
	l.lock.Unlock()
	if err != nil {
		return
	}

	if l.ReadTimeout {
		// polling reads already report idle periods through Timeout
		if s.Control == ctlSync {
			l.timer = time.After(l.Timeout)
		} else {
			l.timer = nil
		}
	} else if s.RestartTimer() {
		l.timer = time.After(l.Timeout)
	} else if s.StopTimer() {
		l.timer = nil
	}

	if notifier != nil {
		glog.V(4).Infof("bridge link state %x", s.State)
		notifier.LinkStateChanged(ctx, s.State)
	}
	if s.Frame != nil && l.Handler != nil {
		l.Handler.HandleFrame(ctx, s.Frame)
	}
	return
}
