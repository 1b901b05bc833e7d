package host

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sensorlib.go/pkg/i2c"
)

type fakeBus struct {
	lock   sync.Mutex
	txs    []string
	gate   chan struct{}
	err    error
	closed bool
}

func (b *fakeBus) Tx(addr byte, w, r []byte) error {
	if b.gate != nil {
		<-b.gate
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	b.txs = append(b.txs, string(append([]byte{addr}, w...)))
	for n := range r {
		r[n] = addr + byte(n)
	}
	return b.err
}

func (b *fakeBus) Close() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.closed = true
	return nil
}

func (b *fakeBus) isClosed() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.closed
}

func startEngine(t *testing.T, bus Bus) (*Engine, context.CancelFunc, <-chan error) {
	e := NewEngine(bus)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- e.Run(ctx) }()
	t.Cleanup(cancel)
	return e, cancel, errCh
}

func statusSink() (i2c.Completion, <-chan i2c.Status) {
	ch := make(chan i2c.Status, 32)
	return i2c.CompleteFunc(func(s i2c.Status) { ch <- s }), ch
}

func recv(t *testing.T, ch <-chan i2c.Status) i2c.Status {
	select {
	case s := <-ch:
		return s
	case <-time.After(time.Second):
		t.Fatal("timeout waiting completion")
	}
	return i2c.StatusError
}

func TestEngineExecutesInOrder(t *testing.T) {
	bus := &fakeBus{}
	e, _, _ := startEngine(t, bus)
	done, ch := statusSink()
	buf := make([]byte, 3)
	require.NoError(t, e.Write(0x77, []byte{0xF4, 0x2E}, done))
	require.NoError(t, e.Read(0x77, []byte{0xF6}, buf, done))
	require.Equal(t, i2c.StatusSuccess, recv(t, ch))
	require.Equal(t, i2c.StatusSuccess, recv(t, ch))
	require.Equal(t, []byte{0x77, 0x78, 0x79}, buf)
	require.Equal(t, []string{"\x77\xF4\x2E", "\x77\xF6"}, bus.txs)
}

func TestEngineCopiesWriteBuffer(t *testing.T) {
	bus := &fakeBus{gate: make(chan struct{})}
	e, _, _ := startEngine(t, bus)
	done, ch := statusSink()
	w := []byte{0x20, 0x0F}
	require.NoError(t, e.Write(0x6A, w, done))
	w[1] = 0
	close(bus.gate)
	require.Equal(t, i2c.StatusSuccess, recv(t, ch))
	require.Equal(t, []string{"\x6A\x20\x0F"}, bus.txs)
}

func TestEngineStatusMapping(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status i2c.Status
	}{
		{name: "ok", status: i2c.StatusSuccess},
		{name: "no device", err: i2c.ErrNoDevice, status: i2c.StatusAddrNack},
		{name: "wrapped no device", err: mapErrno(nackErrnos[0]), status: i2c.StatusAddrNack},
		{name: "status", err: &i2c.TxError{Status: i2c.StatusArbLost}, status: i2c.StatusArbLost},
		{name: "other", err: errors.New("bus fault"), status: i2c.StatusError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.status, StatusOf(tc.err))
			e, _, _ := startEngine(t, &fakeBus{err: tc.err})
			done, ch := statusSink()
			require.NoError(t, e.Write(0x48, []byte{0}, done))
			require.Equal(t, tc.status, recv(t, ch))
		})
	}
}

func TestEngineQueueFull(t *testing.T) {
	bus := &fakeBus{gate: make(chan struct{})}
	e, _, _ := startEngine(t, bus)
	done, ch := statusSink()
	// the first transaction is taken by the worker and blocks on the gate
	require.NoError(t, e.Write(0x41, []byte{0x02}, done))
	deadline := time.Now().Add(time.Second)
	for len(e.queue) > 0 {
		require.True(t, time.Now().Before(deadline))
		time.Sleep(time.Millisecond)
	}
	for n := 0; n < i2c.QueueDepth; n++ {
		require.NoError(t, e.Write(0x41, []byte{0x02}, done))
	}
	require.Equal(t, i2c.ErrQueueFull, e.Write(0x41, []byte{0x02}, done))
	close(bus.gate)
	for n := 0; n <= i2c.QueueDepth; n++ {
		require.Equal(t, i2c.StatusSuccess, recv(t, ch))
	}
}

func TestEngineInvalidArgument(t *testing.T) {
	e := NewEngine(&fakeBus{})
	require.Equal(t, i2c.ErrInvalidArgument, e.Write(0x41, nil, nil))
	require.Equal(t, i2c.ErrInvalidArgument, e.Read(0x41, []byte{0}, nil, nil))
}

func TestEngineClose(t *testing.T) {
	bus := &fakeBus{}
	e := NewEngine(bus)
	done, ch := statusSink()
	require.NoError(t, e.Write(0x41, []byte{0x02}, done))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Equal(t, context.Canceled, e.Run(ctx))
	require.True(t, bus.isClosed())
	// queued before Run exited; may have executed or been failed
	s := recv(t, ch)
	require.Contains(t, []i2c.Status{i2c.StatusSuccess, i2c.StatusError}, s)
	require.Equal(t, i2c.ErrClosed, e.Write(0x41, []byte{0x02}, done))
}

func TestEngineCallbackResubmits(t *testing.T) {
	bus := &fakeBus{}
	e, _, _ := startEngine(t, bus)
	done, ch := statusSink()
	errCh := make(chan error, 1)
	require.NoError(t, e.Write(0x19, []byte{0x20}, i2c.CompleteFunc(func(s i2c.Status) {
		errCh <- e.Write(0x19, []byte{0x23}, done)
	})))
	require.Equal(t, i2c.StatusSuccess, recv(t, ch))
	require.NoError(t, <-errCh)
	require.Equal(t, []string{"\x19\x20", "\x19\x23"}, bus.txs)
}
