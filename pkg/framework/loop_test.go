package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sample struct {
	value int
}

func (m *sample) NewMessage() Message { return &sample{} }

type note struct{}

func (m *note) NewMessage() Message { return &note{} }

// runLoop runs l with a manual ticker and returns a func performing one
// iteration and waiting for it to finish.
func runLoop(t *testing.T, l *Loop) func() {
	ticks := make(chan time.Time)
	l.Ticks = ticks
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.Equal(t, context.Canceled, <-done)
	})
	return func() {
		n := l.Iterations()
		ticks <- time.Now()
		deadline := time.Now().Add(time.Second)
		for l.Iterations() == n {
			require.True(t, time.Now().Before(deadline), "iteration timeout")
			time.Sleep(time.Millisecond)
		}
	}
}

func TestLoopPriorityOrder(t *testing.T) {
	var order []int
	record := func(n int) Controller {
		return ControlFunc(func(cc ControlContext) error {
			require.Equal(t, n, cc.PriorityLevel())
			order = append(order, n)
			return nil
		})
	}
	l := NewLoop().
		AddController(PrLvPostProc, record(PrLvPostProc)).
		AddController(PrLvSense, record(PrLvSense)).
		AddController(PrLvControl, record(PrLvControl), ControlFunc(func(ControlContext) error {
			return errors.New("ignored")
		}))
	step := runLoop(t, l)
	step()
	require.Equal(t, []int{PrLvSense, PrLvControl, PrLvPostProc}, order)
	step()
	require.Len(t, order, 6)
}

func TestLoopHooks(t *testing.T) {
	var trace []string
	hook := func(name string) Controller {
		return ControlFunc(func(ControlContext) error {
			trace = append(trace, name)
			return nil
		})
	}
	l := NewLoop()
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		trace = append(trace, "ctl")
		cc.PostRun(ControlFunc(func(cc ControlContext) error {
			trace = append(trace, "post")
			cc.PostRun(hook("next"))
			return nil
		}))
		return nil
	}))
	l.PreRunAt(PrLvControl, hook("pre"))
	step := runLoop(t, l)
	step()
	require.Equal(t, []string{"pre", "ctl", "post"}, trace)
	trace = nil
	step()
	// hooks queued by the previous iteration run first
	require.Equal(t, []string{"ctl", "next", "post"}, trace)
}

func TestLoopMessages(t *testing.T) {
	var seen, remaining []Message
	l := NewLoop()
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			if s, ok := mc.CurrentMessage().(*sample); ok {
				seen = append(seen, s)
				mc.MessageTaken()
				if s.value == 2 {
					mc.AddMessages(&note{})
				}
			}
		}))
		return nil
	}))
	l.AddController(PrLvPostProc, ControlFunc(func(cc ControlContext) error {
		remaining = nil
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			remaining = append(remaining, mc.CurrentMessage())
		}))
		return nil
	}))
	step := runLoop(t, l)
	l.PostMessage(&sample{value: 1})
	l.PostMessage(&note{})
	l.PostMessage(&sample{value: 2})
	step()
	require.Equal(t, []Message{&sample{value: 1}, &sample{value: 2}}, seen)
	require.Equal(t, []Message{&note{}, &note{}}, remaining)

	step()
	require.Empty(t, remaining)
}

func TestLoopStopProcessing(t *testing.T) {
	var visited int
	var remaining int
	l := NewLoop()
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			visited++
			mc.MessageTaken()
			mc.StopProcessing()
		}))
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			remaining++
		}))
		return nil
	}))
	step := runLoop(t, l)
	for n := 0; n < 3; n++ {
		l.PostMessage(&sample{value: n})
	}
	step()
	require.Equal(t, 1, visited)
	require.Equal(t, 2, remaining)
}

func TestLoopTriggerNext(t *testing.T) {
	ran := make(chan struct{}, 4)
	l := NewLoop()
	l.Interval = time.Hour
	l.AddController(PrLvSense, ControlFunc(func(ControlContext) error {
		ran <- struct{}{}
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	l.TriggerNext()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("iteration not triggered")
	}
}

type probe struct {
	ctlCh chan LoopControl
}

func (p *probe) Control(ControlContext) error { return nil }

func (p *probe) Run(ctx context.Context) error {
	p.ctlCh <- LoopControlFrom(ctx)
	<-ctx.Done()
	return ctx.Err()
}

func TestLoopStartsRunnableControllers(t *testing.T) {
	p := &probe{ctlCh: make(chan LoopControl, 1)}
	l := NewLoop().AddController(PrLvSense, p)
	runLoop(t, l)
	select {
	case ctl := <-p.ctlCh:
		require.Equal(t, LoopControl(l), ctl)
	case <-time.After(time.Second):
		t.Fatal("runnable not started")
	}
}
